package models

import (
	"time"
)

// UserRole represents valid user roles
type UserRole string

const (
	UserRoleLearner UserRole = "learner"
	UserRoleManager UserRole = "manager"
	UserRoleSupport UserRole = "support"
	UserRoleAdmin   UserRole = "admin"
)

// User represents a platform account
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role" validate:"required,oneof=learner manager support admin"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// IsAdmin reports whether the user holds the administrator role
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// CanManageContent reports whether the user may create or edit lessons and materials
func (u *User) CanManageContent() bool {
	return u.Role == UserRoleAdmin || u.Role == UserRoleManager
}

// CanHandleTickets reports whether the user may respond to support tickets
func (u *User) CanHandleTickets() bool {
	return u.Role == UserRoleAdmin || u.Role == UserRoleSupport
}

// RegisterRequest
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserProfile - public-facing profile, NO sensitive data
type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse
type LoginResponse struct {
	Token     string      `json:"token"`
	User      UserProfile `json:"user"`
	ExpiresIn int         `json:"expires_in,omitempty"` // seconds
}

// OTPRequest asks for a one-time login code
type OTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// OTPVerifyRequest exchanges a one-time code for a token
type OTPVerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

// IsValidUserRole validates a role string against schema constraints
func IsValidUserRole(role string) bool {
	switch UserRole(role) {
	case UserRoleLearner, UserRoleManager, UserRoleSupport, UserRoleAdmin:
		return true
	default:
		return false
	}
}
