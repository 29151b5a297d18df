package users

import (
	"time"

	"github.com/incroft/staffdir/internal/shared"
)

// Sort directions for paginated listings.
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// Sortable columns. Cursors are timestamps taken from the active sort column.
const (
	SortByCreatedAt = "created_at"
	SortByUpdatedAt = "updated_at"
)

// Pagination bounds.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// User is the directory view of an account. Password material never leaves
// the auth package.
type User struct {
	ID                  string      `json:"id"`
	EmpCode             string      `json:"emp_code"`
	Name                string      `json:"name"`
	Email               string      `json:"email"`
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

// Profile carries the employment and address details attached to a user.
type Profile struct {
	UserID         string     `json:"user_id"`
	DepartmentID   *string    `json:"department_id,omitempty"`
	DesignationID  *string    `json:"designation_id,omitempty"`
	EmploymentType string     `json:"employment_type,omitempty"`
	WorkLocation   string     `json:"work_location,omitempty"`
	DateOfJoining  *time.Time `json:"date_of_joining,omitempty"`
	DateOfLeaving  *time.Time `json:"date_of_leaving,omitempty"`
	Address        string     `json:"address,omitempty"`
	City           string     `json:"city,omitempty"`
	State          string     `json:"state,omitempty"`
	Country        string     `json:"country,omitempty"`
	Zipcode        string     `json:"zipcode,omitempty"`
}

// PaginatedUsersInput drives cursor pagination over the directory.
// After is an RFC 3339 timestamp cursor taken from the sort column.
type PaginatedUsersInput struct {
	First           int    `json:"first"`
	After           string `json:"after,omitempty"`
	Sort            string `json:"sort,omitempty"`
	SortBy          string `json:"sort_by,omitempty"`
	EmpCode         string `json:"emp_code,omitempty"`
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Role            string `json:"role,omitempty"`
	IncludeDisabled bool   `json:"include_disabled,omitempty"`
}

// Edge pairs a user with the cursor that resumes the page after it.
type Edge struct {
	Cursor string `json:"cursor"`
	Node   User   `json:"node"`
}

// PageInfo summarises a page of results.
type PageInfo struct {
	EndCursor   *string `json:"end_cursor"`
	HasNextPage bool    `json:"has_next_page"`
	TotalCount  int64   `json:"total_count"`
}

// Connection is a page of users.
type Connection struct {
	Edges    []Edge   `json:"edges"`
	PageInfo PageInfo `json:"page_info"`
}

// Lookup fields accepted by ByField. ID and email are sensitive and gated
// harder than the rest.
const (
	FieldID      = "id"
	FieldEmail   = "email"
	FieldName    = "name"
	FieldPhone   = "phone"
	FieldRole    = "role"
	FieldEmpCode = "emp_code"
)

// ByFieldInput looks users up by a single column value.
type ByFieldInput struct {
	Field string `json:"field" validate:"required,oneof=id email name phone role emp_code"`
	Value string `json:"value" validate:"required"`
}

// EditUserInput updates a user and the employment half of its profile.
// Email, role and employment fields only take effect for admin callers.
type EditUserInput struct {
	ID                  string  `json:"id" validate:"required"`
	Name                string  `json:"name,omitempty"`
	Email               string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone               string  `json:"phone,omitempty"`
	Role                string  `json:"role,omitempty"`
	IsVerified          *bool   `json:"is_verified,omitempty"`
	IsDisabled          *bool   `json:"is_disabled,omitempty"`
	ForcePasswordChange *bool   `json:"force_password_change,omitempty"`
	DepartmentID        *string `json:"department_id,omitempty"`
	DesignationID       *string `json:"designation_id,omitempty"`
	EmploymentType      *string `json:"employment_type,omitempty"`
	WorkLocation        *string `json:"work_location,omitempty"`
	Address             *string `json:"address,omitempty"`
	City                *string `json:"city,omitempty"`
	State               *string `json:"state,omitempty"`
	Country             *string `json:"country,omitempty"`
	Zipcode             *string `json:"zipcode,omitempty"`
}
