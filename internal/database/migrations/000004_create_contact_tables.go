package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createContactTablesMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_contact_tables",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS contact_requests (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					from_user_id UUID NOT NULL REFERENCES users(id),
					to_user_id UUID NOT NULL REFERENCES users(id),
					project_id UUID REFERENCES projects(id),
					subject VARCHAR(255) NOT NULL,
					message TEXT NOT NULL,
					read_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_contact_requests_from_user_id ON contact_requests(from_user_id);
				CREATE INDEX IF NOT EXISTS idx_contact_requests_to_user_id ON contact_requests(to_user_id);

				CREATE TABLE IF NOT EXISTS contact_messages (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					name VARCHAR(255) NOT NULL,
					email VARCHAR(255) NOT NULL,
					subject VARCHAR(255),
					body TEXT NOT NULL,
					ip_address VARCHAR(45),
					handled_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			if err := tx.Exec("DROP TABLE IF EXISTS contact_messages").Error; err != nil {
				return err
			}
			return tx.Exec("DROP TABLE IF EXISTS contact_requests").Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createContactTablesMigration())
}
