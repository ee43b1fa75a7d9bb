package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the marketplace role a user registered with
type Role string

const (
	RoleDonneurOrdre Role = "donneur_ordre"
	RoleSousTraitant Role = "sous_traitant"
	RoleAdmin        Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleDonneurOrdre, RoleSousTraitant, RoleAdmin:
		return true
	}
	return false
}

// User represents a company account on the marketplace
type User struct {
	Base
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role           `gorm:"type:varchar(20);not null;index" json:"role"`
	FirstName    string         `gorm:"type:varchar(100)" json:"first_name"`
	LastName     string         `gorm:"type:varchar(100)" json:"last_name"`
	CompanyName  string         `gorm:"type:varchar(255)" json:"company_name"`
	Siret        string         `gorm:"type:varchar(14)" json:"siret"`
	Trade        string         `gorm:"type:varchar(100);index" json:"trade"`
	City         string         `gorm:"type:varchar(100)" json:"city"`
	Department   string         `gorm:"type:varchar(3);index" json:"department"`
	PhoneNumber  *string        `gorm:"type:varchar(20)" json:"phone_number,omitempty"`
	Description  string         `gorm:"type:text" json:"description"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsAdmin reports whether the user has back-office access
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicProfile is the subset of a user shown to other companies
type PublicProfile struct {
	ID          string `json:"id"`
	CompanyName string `json:"company_name"`
	Trade       string `json:"trade"`
	City        string `json:"city"`
	Department  string `json:"department"`
	Description string `json:"description"`
}

// Profile returns the public view of the user
func (u *User) Profile() PublicProfile {
	return PublicProfile{
		ID:          u.ID.String(),
		CompanyName: u.CompanyName,
		Trade:       u.Trade,
		City:        u.City,
		Department:  u.Department,
		Description: u.Description,
	}
}
