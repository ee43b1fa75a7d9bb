package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createMarketplaceTablesMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_marketplace_tables",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS projects (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					owner_id UUID NOT NULL REFERENCES users(id),
					title VARCHAR(255) NOT NULL,
					slug VARCHAR(255) NOT NULL,
					description TEXT,
					trade VARCHAR(100),
					city VARCHAR(100),
					department VARCHAR(3),
					budget_cents BIGINT,
					deadline TIMESTAMP WITH TIME ZONE,
					status VARCHAR(20) NOT NULL DEFAULT 'OPEN',
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_slug ON projects(slug);
				CREATE INDEX IF NOT EXISTS idx_projects_owner_id ON projects(owner_id);
				CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status);
				CREATE INDEX IF NOT EXISTS idx_projects_trade ON projects(trade);
				CREATE INDEX IF NOT EXISTS idx_projects_department ON projects(department);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS offers (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					project_id UUID NOT NULL REFERENCES projects(id),
					bidder_id UUID NOT NULL REFERENCES users(id),
					amount_cents BIGINT NOT NULL,
					delay_days INTEGER,
					message TEXT,
					status VARCHAR(20) NOT NULL DEFAULT 'SUBMITTED',
					decided_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE UNIQUE INDEX IF NOT EXISTS idx_offer_project_bidder ON offers(project_id, bidder_id);
				CREATE INDEX IF NOT EXISTS idx_offers_status ON offers(status);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			if err := tx.Exec("DROP TABLE IF EXISTS offers").Error; err != nil {
				return err
			}
			return tx.Exec("DROP TABLE IF EXISTS projects").Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createMarketplaceTablesMigration())
}
