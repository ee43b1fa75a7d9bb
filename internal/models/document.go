package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType identifies a category in the document catalog
type DocumentType string

const (
	DocumentTypeKBIS                   DocumentType = "KBIS"
	DocumentTypeAttestationVigilance   DocumentType = "ATTESTATION_VIGILANCE"
	DocumentTypeAssuranceRCPro         DocumentType = "ASSURANCE_RC_PRO"
	DocumentTypeAssuranceDecennale     DocumentType = "ASSURANCE_DECENNALE"
	DocumentTypeIBAN                   DocumentType = "IBAN"
	DocumentTypeListeSalariesEtrangers DocumentType = "LISTE_SALARIES_ETRANGERS"
	DocumentTypeAttestationFiscale     DocumentType = "ATTESTATION_FISCALE"
	DocumentTypeQualification          DocumentType = "QUALIFICATION"
)

// DocumentTypes lists the closed catalog of document types
var DocumentTypes = []DocumentType{
	DocumentTypeKBIS,
	DocumentTypeAttestationVigilance,
	DocumentTypeAssuranceRCPro,
	DocumentTypeAssuranceDecennale,
	DocumentTypeIBAN,
	DocumentTypeListeSalariesEtrangers,
	DocumentTypeAttestationFiscale,
	DocumentTypeQualification,
}

// Known reports whether t belongs to the closed catalog
func (t DocumentType) Known() bool {
	for _, known := range DocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// DocumentStatus is the review state of a submitted document
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "PENDING"
	DocumentStatusApproved DocumentStatus = "APPROVED"
	DocumentStatusRejected DocumentStatus = "REJECTED"
)

// DocumentSubmission is the current document on file for one user and type.
// A re-upload replaces the row for that type.
type DocumentSubmission struct {
	Base
	UserID          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_submission_user_type" json:"user_id"`
	User            User           `gorm:"foreignKey:UserID" json:"-"`
	Type            DocumentType   `gorm:"type:varchar(50);not null;uniqueIndex:idx_submission_user_type" json:"type"`
	Status          DocumentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	FileName        string         `gorm:"type:varchar(255);not null" json:"file_name"`
	FilePath        string         `gorm:"type:text;not null" json:"-"`
	MimeType        string         `gorm:"type:varchar(100)" json:"mime_type"`
	FileSize        int64          `json:"file_size"`
	RejectionReason *string        `gorm:"type:text" json:"rejection_reason,omitempty"`
	ReviewedBy      *uuid.UUID     `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`
	UploadedAt      time.Time      `gorm:"not null" json:"uploaded_at"`
}

// DocumentReview tracks the history of status changes for a submission
type DocumentReview struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SubmissionID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"submission_id"`
	PreviousStatus DocumentStatus `gorm:"type:varchar(20)" json:"previous_status"`
	NewStatus      DocumentStatus `gorm:"type:varchar(20);not null" json:"new_status"`
	ChangedBy      uuid.UUID      `gorm:"type:uuid" json:"changed_by"`
	Comment        string         `gorm:"type:text" json:"comment"`
	CreatedAt      time.Time      `json:"created_at"`
}
