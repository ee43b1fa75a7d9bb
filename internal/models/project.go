package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus is the lifecycle state of a posted project
type ProjectStatus string

const (
	ProjectStatusOpen    ProjectStatus = "OPEN"
	ProjectStatusAwarded ProjectStatus = "AWARDED"
	ProjectStatusClosed  ProjectStatus = "CLOSED"
)

// Project is a construction job posted by a donneur d'ordre
type Project struct {
	Base
	OwnerID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner       User          `gorm:"foreignKey:OwnerID" json:"-"`
	Title       string        `gorm:"type:varchar(255);not null" json:"title"`
	Slug        string        `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description string        `gorm:"type:text" json:"description"`
	Trade       string        `gorm:"type:varchar(100);index" json:"trade"`
	City        string        `gorm:"type:varchar(100)" json:"city"`
	Department  string        `gorm:"type:varchar(3);index" json:"department"`
	BudgetCents *int64        `json:"budget_cents,omitempty"`
	Deadline    *time.Time    `json:"deadline,omitempty"`
	Status      ProjectStatus `gorm:"type:varchar(20);not null;default:'OPEN';index" json:"status"`
}

// OfferStatus is the lifecycle state of a bid
type OfferStatus string

const (
	OfferStatusSubmitted OfferStatus = "SUBMITTED"
	OfferStatusAccepted  OfferStatus = "ACCEPTED"
	OfferStatusDeclined  OfferStatus = "DECLINED"
	OfferStatusWithdrawn OfferStatus = "WITHDRAWN"
)

// Offer is a subcontractor's bid on a project
type Offer struct {
	Base
	ProjectID   uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_offer_project_bidder" json:"project_id"`
	Project     Project     `gorm:"foreignKey:ProjectID" json:"-"`
	BidderID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_offer_project_bidder" json:"bidder_id"`
	Bidder      User        `gorm:"foreignKey:BidderID" json:"-"`
	AmountCents int64       `gorm:"not null" json:"amount_cents"`
	DelayDays   int         `json:"delay_days"`
	Message     string      `gorm:"type:text" json:"message"`
	Status      OfferStatus `gorm:"type:varchar(20);not null;default:'SUBMITTED';index" json:"status"`
	DecidedAt   *time.Time  `json:"decided_at,omitempty"`
}
