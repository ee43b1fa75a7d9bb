package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chantierdirect/backend/internal/models"
)

var submissionColumns = []string{"id", "user_id", "type", "status", "file_name", "file_path", "rejection_reason", "uploaded_at"}

func TestDocumentStoreListForUser(t *testing.T) {
	db, mock := newDBWithMock(t)
	store := NewDocumentStore(db)
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "document_submissions" WHERE user_id = \$1 ORDER BY uploaded_at DESC`).
		WillReturnRows(sqlmock.NewRows(submissionColumns).
			AddRow(uuid.New().String(), userID.String(), "KBIS", "APPROVED", "kbis.pdf", "/tmp/kbis.pdf", nil, now).
			AddRow(uuid.New().String(), userID.String(), "IBAN", "REJECTED", "iban.pdf", "/tmp/iban.pdf", "illisible", now.Add(-time.Hour)))

	subs, err := store.ListForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, models.DocumentTypeKBIS, subs[0].Type)
	assert.Equal(t, models.DocumentStatusApproved, subs[0].Status)
	require.NotNil(t, subs[1].RejectionReason)
	assert.Equal(t, "illisible", *subs[1].RejectionReason)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStoreListForUserPropagatesError(t *testing.T) {
	db, mock := newDBWithMock(t)
	store := NewDocumentStore(db)

	mock.ExpectQuery(`SELECT \* FROM "document_submissions"`).
		WillReturnError(errors.New("connection refused"))

	_, err := store.ListForUser(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStoreListForUsersGroupsByUser(t *testing.T) {
	db, mock := newDBWithMock(t)
	store := NewDocumentStore(db)
	a, b := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "document_submissions" WHERE user_id IN`).
		WillReturnRows(sqlmock.NewRows(submissionColumns).
			AddRow(uuid.New().String(), a.String(), "KBIS", "APPROVED", "k.pdf", "/k", nil, now).
			AddRow(uuid.New().String(), b.String(), "KBIS", "PENDING", "k.pdf", "/k", nil, now).
			AddRow(uuid.New().String(), a.String(), "IBAN", "APPROVED", "i.pdf", "/i", nil, now))

	grouped, err := store.ListForUsers(context.Background(), []uuid.UUID{a, b})
	require.NoError(t, err)
	assert.Len(t, grouped[a], 2)
	assert.Len(t, grouped[b], 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStoreListForUsersEmptySkipsQuery(t *testing.T) {
	db, mock := newDBWithMock(t)
	store := NewDocumentStore(db)

	grouped, err := store.ListForUsers(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, grouped)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStoreFindByIDNotFound(t *testing.T) {
	db, mock := newDBWithMock(t)
	store := NewDocumentStore(db)

	mock.ExpectQuery(`SELECT \* FROM "document_submissions" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(submissionColumns))

	_, err := store.FindByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func newUpload(userID uuid.UUID) *models.DocumentSubmission {
	return &models.DocumentSubmission{
		UserID:     userID,
		Type:       models.DocumentTypeAssuranceDecennale,
		FileName:   "decennale-2026.pdf",
		FilePath:   "/uploads/decennale-new.pdf",
		MimeType:   "application/pdf",
		FileSize:   2048,
		UploadedAt: time.Now(),
	}
}

func TestDocumentStoreUpsertFirstUpload(t *testing.T) {
	db, mock := newDBWithMock(t)
	store := NewDocumentStore(db)
	upload := newUpload(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "document_submissions" WHERE \(?user_id = \$1 AND type = \$2.*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(submissionColumns))
	mock.ExpectQuery(`INSERT INTO "document_submissions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO "document_reviews"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	replaced, err := store.Upsert(context.Background(), upload)
	require.NoError(t, err)
	assert.Empty(t, replaced)
	assert.NotEqual(t, uuid.Nil, upload.ID)
	assert.Equal(t, models.DocumentStatusPending, upload.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStoreUpsertReplacesReviewedUpload(t *testing.T) {
	for _, previous := range []string{"REJECTED", "APPROVED"} {
		t.Run(previous, func(t *testing.T) {
			db, mock := newDBWithMock(t)
			store := NewDocumentStore(db)
			userID, existingID := uuid.New(), uuid.New()
			upload := newUpload(userID)
			reviewer := uuid.New()
			reviewedAt := time.Now().Add(-24 * time.Hour)
			upload.ReviewedBy = &reviewer
			upload.ReviewedAt = &reviewedAt

			mock.ExpectBegin()
			mock.ExpectQuery(`SELECT \* FROM "document_submissions" WHERE \(?user_id = \$1 AND type = \$2.*FOR UPDATE`).
				WillReturnRows(sqlmock.NewRows(submissionColumns).
					AddRow(existingID.String(), userID.String(), "ASSURANCE_DECENNALE", previous, "old.pdf", "/uploads/decennale-old.pdf", "attestation expirée", reviewedAt))
			mock.ExpectExec(`UPDATE "document_submissions" SET .*"status".*"rejection_reason".*"reviewed_by".*"reviewed_at".* WHERE .*"id" = `).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectQuery(`INSERT INTO "document_reviews"`).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
			mock.ExpectCommit()

			replaced, err := store.Upsert(context.Background(), upload)
			require.NoError(t, err)
			assert.Equal(t, "/uploads/decennale-old.pdf", replaced)
			assert.Equal(t, existingID, upload.ID)
			assert.Equal(t, models.DocumentStatusPending, upload.Status)
			assert.Nil(t, upload.RejectionReason)
			assert.Nil(t, upload.ReviewedBy)
			assert.Nil(t, upload.ReviewedAt)
			assert.Equal(t, "/uploads/decennale-new.pdf", upload.FilePath)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDocumentStoreUpsertUniqueViolationIsConflict(t *testing.T) {
	db, mock := newDBWithMock(t)
	store := NewDocumentStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "document_submissions" WHERE \(?user_id = \$1 AND type = \$2.*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(submissionColumns))
	mock.ExpectQuery(`INSERT INTO "document_submissions"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_submission_user_type"})
	mock.ExpectRollback()

	_, err := store.Upsert(context.Background(), newUpload(uuid.New()))
	require.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStoreReviewSameStatusIsStale(t *testing.T) {
	db, mock := newDBWithMock(t)
	store := NewDocumentStore(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "document_submissions" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(submissionColumns).
			AddRow(id.String(), uuid.New().String(), "KBIS", "APPROVED", "k.pdf", "/k", nil, time.Now()))
	mock.ExpectRollback()

	_, err := store.Review(context.Background(), id, ReviewChange{
		Status:     models.DocumentStatusApproved,
		ReviewerID: uuid.New(),
	})
	require.ErrorIs(t, err, ErrStaleState)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStoreReviewRejectWritesHistory(t *testing.T) {
	db, mock := newDBWithMock(t)
	store := NewDocumentStore(db)
	id := uuid.New()
	reason := "document expiré"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "document_submissions" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(submissionColumns).
			AddRow(id.String(), uuid.New().String(), "ASSURANCE_DECENNALE", "PENDING", "d.pdf", "/d", nil, time.Now()))
	mock.ExpectExec(`UPDATE "document_submissions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "document_reviews"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	sub, err := store.Review(context.Background(), id, ReviewChange{
		Status:     models.DocumentStatusRejected,
		ReviewerID: uuid.New(),
		Reason:     &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusRejected, sub.Status)
	require.NotNil(t, sub.RejectionReason)
	assert.Equal(t, reason, *sub.RejectionReason)
	assert.NotNil(t, sub.ReviewedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStoreCountByStatus(t *testing.T) {
	db, mock := newDBWithMock(t)
	store := NewDocumentStore(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "document_submissions" WHERE status = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := store.CountByStatus(context.Background(), models.DocumentStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
