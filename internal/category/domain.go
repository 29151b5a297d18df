package category

import "time"

// Taxonomy types. Departments and designations share one table and one
// service, discriminated by type.
const (
	TypeDepartment  = "DEPARTMENT"
	TypeDesignation = "DESIGNATION"
)

// Category is one taxonomy entry.
type Category struct {
	ID          string    `json:"id"`
	Type        string    `json:"category_type"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsDisabled  bool      `json:"is_disabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreatedBy   string    `json:"created_by"`
	UpdatedBy   string    `json:"updated_by"`
}

// Filter narrows a listing to one id or a name search.
type Filter struct {
	ID     string `json:"id,omitempty"`
	Search string `json:"search,omitempty"`
}

// CreateInput adds a taxonomy entry.
type CreateInput struct {
	Type        string `json:"category_type" validate:"required,oneof=DEPARTMENT DESIGNATION"`
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description,omitempty"`
}

// UpdateInput renames or disables an entry.
type UpdateInput struct {
	ID          string `json:"id" validate:"required"`
	Type        string `json:"category_type" validate:"required,oneof=DEPARTMENT DESIGNATION"`
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description,omitempty"`
	IsDisabled  *bool  `json:"is_disabled,omitempty"`
}

// DeleteInput removes an entry.
type DeleteInput struct {
	ID   string `json:"id" validate:"required"`
	Type string `json:"category_type" validate:"required,oneof=DEPARTMENT DESIGNATION"`
}
