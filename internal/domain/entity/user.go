package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quotation-api/internal/domain/enum"
	"gorm.io/gorm"
)

// User is a staff account. Accounts are provisioned by an admin.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Username     string         `gorm:"size:150;unique;not null" json:"username"`
	Email        string         `gorm:"size:255;unique;not null" json:"email"`
	FullName     string         `gorm:"size:255;not null" json:"full_name"`
	Password     string         `gorm:"size:255;not null" json:"-"`
	Role         enum.Role      `gorm:"size:32;not null;index" json:"role"`
	Country      string         `gorm:"size:100" json:"country"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Clients    []Client    `gorm:"foreignKey:SalespersonID" json:"-"`
	Quotations []Quotation `gorm:"foreignKey:SalespersonID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// LoginAudit records one successful sign-in.
type LoginAudit struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	IPAddress string    `gorm:"size:64" json:"ip_address"`
	UserAgent string    `gorm:"size:512" json:"user_agent"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (a *LoginAudit) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (LoginAudit) TableName() string {
	return "login_audits"
}
