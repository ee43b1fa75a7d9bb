package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactRequest is a donneur d'ordre reaching out to a subcontractor
type ContactRequest struct {
	Base
	FromUserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"from_user_id"`
	ToUserID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"to_user_id"`
	ProjectID  *uuid.UUID `gorm:"type:uuid" json:"project_id,omitempty"`
	Subject    string     `gorm:"type:varchar(255);not null" json:"subject"`
	Message    string     `gorm:"type:text;not null" json:"message"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
}

// ContactMessage is a message sent through the public contact form
type ContactMessage struct {
	Base
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	Email     string     `gorm:"type:varchar(255);not null" json:"email"`
	Subject   string     `gorm:"type:varchar(255)" json:"subject"`
	Body      string     `gorm:"type:text;not null" json:"body"`
	IPAddress string     `gorm:"type:varchar(45)" json:"-"`
	HandledAt *time.Time `json:"handled_at,omitempty"`
}
