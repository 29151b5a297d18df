package rbac

import (
	"fmt"

	"github.com/incroft/staffdir/internal/shared"
)

// Wildcard matches any resource or action in a permission.
const Wildcard = "*"

// Resource and action vocabulary used by the domain services. The string
// form "<resource>:<action>" is part of the public contract.
const (
	ResourceUser           = "user"
	ResourceCategory       = "category"
	ResourceKV             = "kv"
	ResourceCompanyProfile = "company_profile"
	ResourceAuth           = "auth"

	ActionCreate             = "create"
	ActionRead               = "read"
	ActionReadSelf           = "read_self"
	ActionList               = "list"
	ActionUpdate             = "update"
	ActionDelete             = "delete"
	ActionDisable            = "disable"
	ActionWrite              = "write"
	ActionAdmin              = "admin"
	ActionChangePasswordSelf = "change_password_self"
)

// Permission is a resource/action pair. Wildcards are expressed with the
// Wildcard constant in either position.
type Permission struct {
	Resource string
	Action   string
}

// Perm is shorthand for constructing a Permission.
func Perm(resource, action string) Permission {
	return Permission{Resource: resource, Action: action}
}

// String renders the boundary form "<resource>:<action>".
func (p Permission) String() string {
	return p.Resource + ":" + p.Action
}

// DenialError is raised when a principal lacks a required permission. It
// always surfaces to the transport boundary, never retried.
type DenialError struct {
	Role     shared.Role
	Resource string
	Action   string
	Message  string
}

func (e *DenialError) Error() string { return e.Message }

// ErrorCode maps every authorization denial to a single stable code.
func (e *DenialError) ErrorCode() string { return shared.CodeRBACDenied }

func denial(role shared.Role, p Permission) *DenialError {
	return &DenialError{
		Role:     role,
		Resource: p.Resource,
		Action:   p.Action,
		Message:  fmt.Sprintf("access denied: %s on %s", p.Action, p.Resource),
	}
}
