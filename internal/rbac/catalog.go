package rbac

import "github.com/incroft/staffdir/internal/shared"

// Entry declares a role's direct permissions and the roles it inherits from.
// Entries are read-only after construction.
type Entry struct {
	Inherits    []shared.Role
	Permissions []Permission
}

// Catalog maps each role to its declaration. Lookup by role is O(1).
type Catalog map[shared.Role]Entry

// DefaultCatalog returns the production access policy.
func DefaultCatalog() Catalog {
	return Catalog{
		shared.RoleAdmin: {
			Inherits:    nil,
			Permissions: []Permission{Perm(Wildcard, Wildcard)},
		},
		shared.RoleManager: {
			Inherits: []shared.Role{shared.RoleViewer},
			Permissions: []Permission{
				Perm(ResourceCategory, ActionCreate),
				Perm(ResourceCategory, ActionUpdate),
				Perm(ResourceCategory, ActionDelete),
				Perm(ResourceKV, ActionRead),
				Perm(ResourceKV, ActionWrite),
			},
		},
		shared.RoleViewer: {
			Inherits: nil,
			Permissions: []Permission{
				Perm(ResourceCategory, ActionRead),
				Perm(ResourceKV, ActionRead),
				Perm(ResourceAuth, ActionChangePasswordSelf),
			},
		},
	}
}
