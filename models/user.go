package models

import "time"

// Roles known to the system. Every user has exactly one.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleEmployee   = "employee"
)

// ValidRole reports whether the given string is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleSupervisor || role == RoleEmployee
}

// User represents an account in the database.
type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	FullName     string     `json:"fullName" gorm:"not null"`
	PasswordHash string     `json:"-" gorm:"not null"`
	Role         string     `json:"role" gorm:"not null;default:'employee'"`
	Phone        string     `json:"phone"`
	IsActive     *bool      `json:"isActive" gorm:"default:true"`
	LastLogin    *time.Time `json:"lastLogin"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Active treats a missing flag as active, matching the column default.
func (u *User) Active() bool {
	return u.IsActive == nil || *u.IsActive
}
