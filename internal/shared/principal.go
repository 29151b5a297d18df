package shared

import "context"

// Role is a closed enumeration of access levels.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleViewer  Role = "VIEWER"
)

// KnownRole reports whether the raw value names a declared role.
func KnownRole(raw string) bool {
	switch Role(raw) {
	case RoleAdmin, RoleManager, RoleViewer:
		return true
	}
	return false
}

// ParseRole maps a raw role value onto the closed enum. Unrecognised values
// downgrade to Viewer so a token minted for a newer role never gains access
// it was not declared for.
func ParseRole(raw string) Role {
	switch Role(raw) {
	case RoleAdmin:
		return RoleAdmin
	case RoleManager:
		return RoleManager
	default:
		return RoleViewer
	}
}

// Principal is the authenticated identity attached to a single request.
// A nil principal means the request is anonymous.
type Principal struct {
	ID    string
	Role  Role
	Email string
	Name  string
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context, nil when the
// request is unauthenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}

// RoleOf returns the principal's role, empty for anonymous requests.
func RoleOf(p *Principal) Role {
	if p == nil {
		return ""
	}
	return p.Role
}
