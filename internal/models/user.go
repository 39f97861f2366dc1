package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole represents the level of access for an operator account
type UserRole string

const (
	// RoleAdmin represents administrative access
	RoleAdmin UserRole = "admin"
	// RoleManager represents site management access
	RoleManager UserRole = "manager"
	// RoleTechnician represents field technician access
	RoleTechnician UserRole = "technician"
	// RoleViewer represents read-only access
	RoleViewer UserRole = "viewer"
)

// User model represents an operator account
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Username     string    `json:"username" gorm:"Column:username;uniqueIndex"`
	Email        string    `json:"email" gorm:"Column:email"`
	Role         UserRole  `json:"role" gorm:"Column:role;default:viewer"`
	Organization string    `json:"organization" gorm:"Column:organization"`
	PhoneNumber  string    `json:"phone_number" gorm:"Column:phone_number"`
	APIToken     string    `json:"-" gorm:"Column:api_token;uniqueIndex"`
	IsActive     bool      `json:"is_active" gorm:"Column:is_active;default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanManage reports whether the user may mutate operator-managed resources
func (u *User) CanManage() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}
