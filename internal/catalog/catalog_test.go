package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chantierdirect/backend/internal/models"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []models.DocumentType{
		models.DocumentTypeKBIS,
		models.DocumentTypeAttestationVigilance,
		models.DocumentTypeAssuranceRCPro,
		models.DocumentTypeAssuranceDecennale,
	}, c.RequiredTypesForRole(models.RoleSousTraitant))

	assert.Empty(t, c.RequiredTypesForRole(models.RoleDonneurOrdre))
	assert.Empty(t, c.RequiredTypesForRole(models.RoleAdmin))
	assert.Len(t, c.Requirements(models.RoleSousTraitant), 8)
	assert.Equal(t, []models.Role{models.RoleSousTraitant, models.RoleDonneurOrdre, models.RoleAdmin}, c.Roles())
}

func TestLookup(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	req, ok := c.Lookup(models.RoleSousTraitant, models.DocumentTypeIBAN)
	assert.True(t, ok)
	assert.False(t, req.Required)

	_, ok = c.Lookup(models.RoleDonneurOrdre, models.DocumentTypeAssuranceDecennale)
	assert.False(t, ok)
}

func TestRequirementsReturnsCopy(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	reqs := c.Requirements(models.RoleSousTraitant)
	reqs[0].Required = false

	assert.Contains(t, c.RequiredTypesForRole(models.RoleSousTraitant), models.DocumentTypeKBIS)
}

func TestLoadRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown type",
			yaml: "roles:\n  sous_traitant:\n    - type: PASSPORT\n      required: true\n",
		},
		{
			name: "duplicate type",
			yaml: "roles:\n  sous_traitant:\n    - type: KBIS\n      required: true\n    - type: KBIS\n      required: false\n",
		},
		{
			name: "unknown role",
			yaml: "roles:\n  architecte:\n    - type: KBIS\n      required: true\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := "roles:\n  sous_traitant:\n    - type: ASSURANCE_RC_PRO\n      required: true\n    - type: KBIS\n      required: true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []models.DocumentType{models.DocumentTypeAssuranceRCPro, models.DocumentTypeKBIS}, c.RequiredTypesForRole(models.RoleSousTraitant))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
