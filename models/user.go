package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RolePatient UserRole = "patient"
	RolePartner UserRole = "partner"
	RoleAdmin   UserRole = "admin"
)

type User struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	FullName     string   `json:"full_name" gorm:"size:255;not null"`
	Username     string   `json:"username" gorm:"size:100;uniqueIndex;not null"`
	Email        string   `json:"email" gorm:"size:255"`
	PhoneNumber  string   `json:"phone_number" gorm:"size:20"`
	PasswordHash string   `json:"-" gorm:"size:255;not null"` // Hidden from JSON
	Role         UserRole `json:"role" gorm:"type:varchar(20);not null;default:'patient';check:role IN ('patient','partner','admin')"`
	// Specialty is informational only (phlebotomist, courier, ...), it never
	// widens a partner's permissions.
	Specialty string    `json:"specialty,omitempty" gorm:"size:100"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Bookings []Booking `json:"bookings,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate is a GORM hook that runs before creating a user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RolePatient
	}
	return nil
}

// IsValidRole checks if the user role is valid
func (u *User) IsValidRole() bool {
	switch u.Role {
	case RolePatient, RolePartner, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin checks if the user is an admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsPartner checks if the user is a collection partner
func (u *User) IsPartner() bool {
	return u.Role == RolePartner
}

// IsPatient checks if the user is a patient
func (u *User) IsPatient() bool {
	return u.Role == RolePatient
}
