package migrations

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationsAreRegisteredInOrder(t *testing.T) {
	ids := IDs()
	assert.Equal(t, []string{
		"000001_create_users_table",
		"000002_create_document_tables",
		"000003_create_marketplace_tables",
		"000004_create_contact_tables",
	}, ids)
	assert.True(t, sort.StringsAreSorted(ids))

	for _, m := range migrationsList {
		assert.NotNil(t, m.Migrate, m.ID)
		assert.NotNil(t, m.Rollback, m.ID)
	}
}
