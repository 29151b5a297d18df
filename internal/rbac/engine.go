package rbac

import (
	"fmt"
	"strings"
	"sync"

	"github.com/incroft/staffdir/internal/shared"
)

// Engine answers permission queries over a static catalog. The effective
// permission set per role is computed once by transitive closure over the
// inheritance graph and is read-only afterwards, so an Engine is safe for
// concurrent use.
type Engine struct {
	catalog   Catalog
	once      sync.Once
	effective map[shared.Role]map[Permission]struct{}
}

// NewEngine builds an Engine over the given catalog. The closure is computed
// lazily on first use; call Initialize at bootstrap to pay the cost up front.
func NewEngine(catalog Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Initialize computes the effective permission set for every role in the
// catalog. Idempotent and safe to call concurrently.
func (e *Engine) Initialize() {
	e.once.Do(e.build)
}

func (e *Engine) build() {
	effective := make(map[shared.Role]map[Permission]struct{}, len(e.catalog))
	for role := range e.catalog {
		set := make(map[Permission]struct{})
		// The visited set is per top-level role so concurrent closures can
		// never interfere, and cycles stop expanding at the first revisit.
		e.collect(role, set, make(map[shared.Role]struct{}))
		effective[role] = set
	}
	e.effective = effective
}

func (e *Engine) collect(role shared.Role, set map[Permission]struct{}, visited map[shared.Role]struct{}) {
	if _, seen := visited[role]; seen {
		return
	}
	visited[role] = struct{}{}

	entry, ok := e.catalog[role]
	if !ok {
		return
	}
	for _, p := range entry.Permissions {
		set[p] = struct{}{}
	}
	for _, parent := range entry.Inherits {
		e.collect(parent, set, visited)
	}
}

// EffectivePermissions returns the resolved permission strings for a role,
// useful for diagnostics.
func (e *Engine) EffectivePermissions(role shared.Role) []string {
	e.Initialize()
	set, ok := e.effective[role]
	if !ok {
		return nil
	}
	perms := make([]string, 0, len(set))
	for p := range set {
		perms = append(perms, p.String())
	}
	return perms
}

// HasPermission reports whether the role may perform action on resource.
// An empty role is denied by default.
func (e *Engine) HasPermission(role shared.Role, resource, action string) bool {
	e.Initialize()

	if role == "" {
		return false
	}
	set, ok := e.effective[role]
	if !ok {
		return false
	}
	if _, ok := set[Perm(resource, action)]; ok {
		return true
	}
	if _, ok := set[Perm(resource, Wildcard)]; ok {
		return true
	}
	_, ok = set[Perm(Wildcard, Wildcard)]
	return ok
}

// RequirePermission returns a DenialError when the role lacks the permission.
func (e *Engine) RequirePermission(role shared.Role, resource, action string) error {
	if !e.HasPermission(role, resource, action) {
		return denial(role, Perm(resource, action))
	}
	return nil
}

// RequireAuthentication returns a DenialError for anonymous principals.
func (e *Engine) RequireAuthentication(role shared.Role) error {
	if role == "" {
		return &DenialError{Message: "authentication required"}
	}
	return nil
}

// HasAnyPermission reports whether the role holds at least one of the
// requested permissions.
func (e *Engine) HasAnyPermission(role shared.Role, perms []Permission) bool {
	for _, p := range perms {
		if e.HasPermission(role, p.Resource, p.Action) {
			return true
		}
	}
	return false
}

// RequireAnyPermission returns a DenialError enumerating every requested
// permission when none of them is held.
func (e *Engine) RequireAnyPermission(role shared.Role, perms []Permission) error {
	if e.HasAnyPermission(role, perms) {
		return nil
	}
	wanted := make([]string, len(perms))
	for i, p := range perms {
		wanted[i] = fmt.Sprintf("%s on %s", p.Action, p.Resource)
	}
	return &DenialError{
		Role:    role,
		Message: "access denied, required one of: " + strings.Join(wanted, ", "),
	}
}

// RequireOwnershipOrPermission allows a principal to act on its own resource,
// or on anyone's when it holds the blanket permission. The denial message
// states the dual condition.
func (e *Engine) RequireOwnershipOrPermission(p *shared.Principal, ownerID, resource, action string) error {
	if p != nil && p.ID != "" && p.ID == ownerID {
		return nil
	}
	role := shared.RoleOf(p)
	if e.HasPermission(role, resource, action) {
		return nil
	}
	return &DenialError{
		Role:     role,
		Resource: resource,
		Action:   action,
		Message:  fmt.Sprintf("access denied: you can only %s your own %s or need %s permission", action, resource, action),
	}
}
