package auth

import (
	"time"

	"github.com/incroft/staffdir/internal/shared"
)

// User is an account row in the directory.
type User struct {
	ID                  string      `json:"id"`
	EmpCode             string      `json:"emp_code"`
	Name                string      `json:"name"`
	Email               string      `json:"email"`
	PasswordHash        string      `json:"-"`
	Role                shared.Role `json:"role"`
	Phone               string      `json:"phone"`
	IsVerified          bool        `json:"is_verified"`
	IsDisabled          bool        `json:"is_disabled"`
	ForcePasswordChange bool        `json:"force_password_change"`
	LastLoginAt         *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
	CreatedBy           string      `json:"created_by"`
	UpdatedBy           string      `json:"updated_by"`
}

// LoginInput carries credentials for authentication.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginResponse is returned on successful authentication.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// SignUpInput registers a new employee account.
type SignUpInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone" validate:"required,min=7"`
	Role     string `json:"role"`
}

// ChangePasswordInput rotates the caller's own password.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}
