package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createDocumentTablesMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_document_tables",
		Migrate: func(tx *gorm.DB) error {
			// one row per (user, type); a re-upload updates it in place
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS document_submissions (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					user_id UUID NOT NULL REFERENCES users(id),
					type VARCHAR(50) NOT NULL,
					status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
					file_name VARCHAR(255) NOT NULL,
					file_path TEXT NOT NULL,
					mime_type VARCHAR(100),
					file_size BIGINT,
					rejection_reason TEXT,
					reviewed_by UUID REFERENCES users(id),
					reviewed_at TIMESTAMP WITH TIME ZONE,
					uploaded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE UNIQUE INDEX IF NOT EXISTS idx_submission_user_type ON document_submissions(user_id, type);
				CREATE INDEX IF NOT EXISTS idx_document_submissions_status ON document_submissions(status);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS document_reviews (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					submission_id UUID NOT NULL REFERENCES document_submissions(id),
					previous_status VARCHAR(20),
					new_status VARCHAR(20) NOT NULL,
					changed_by UUID REFERENCES users(id),
					comment TEXT,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_document_reviews_submission_id ON document_reviews(submission_id);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			if err := tx.Exec("DROP TABLE IF EXISTS document_reviews").Error; err != nil {
				return err
			}
			return tx.Exec("DROP TABLE IF EXISTS document_submissions").Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createDocumentTablesMigration())
}
