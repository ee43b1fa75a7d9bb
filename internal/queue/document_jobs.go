package queue

import "github.com/google/uuid"

const (
	// JobTypeDocumentReviewed emails a user the outcome of a document review
	JobTypeDocumentReviewed JobType = "document_reviewed"
	// JobTypeVerificationReminder emails a subcontractor the documents still
	// blocking their account
	JobTypeVerificationReminder JobType = "verification_reminder"
)

// DocumentReviewedPayload is the payload of JobTypeDocumentReviewed
type DocumentReviewedPayload struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	UserID       uuid.UUID `json:"user_id"`
	DocumentType string    `json:"document_type"`
	Status       string    `json:"status"`
	Reason       string    `json:"reason,omitempty"`
}

// VerificationReminderPayload is the payload of JobTypeVerificationReminder
type VerificationReminderPayload struct {
	UserID uuid.UUID `json:"user_id"`
}
