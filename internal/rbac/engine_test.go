package rbac

import (
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incroft/staffdir/internal/shared"
)

func sortedEffective(e *Engine, role shared.Role) []string {
	perms := e.EffectivePermissions(role)
	sort.Strings(perms)
	return perms
}

func TestEffectiveEqualsDirectWithoutInheritance(t *testing.T) {
	engine := NewEngine(Catalog{
		shared.RoleViewer: {Permissions: []Permission{Perm("category", "read"), Perm("kv", "read")}},
	})
	assert.Equal(t, []string{"category:read", "kv:read"}, sortedEffective(engine, shared.RoleViewer))
}

func TestEffectiveUnionOverInheritanceChain(t *testing.T) {
	engine := NewEngine(Catalog{
		shared.RoleManager: {
			Inherits:    []shared.Role{shared.RoleViewer},
			Permissions: []Permission{Perm("category", "create")},
		},
		shared.RoleViewer: {Permissions: []Permission{Perm("category", "read")}},
	})
	assert.Equal(t, []string{"category:create", "category:read"}, sortedEffective(engine, shared.RoleManager))
}

func TestInheritanceCycleTerminates(t *testing.T) {
	// Admin -> Manager -> Viewer -> Admin: the closure must stop expanding at
	// the revisit and still union all three permission sets.
	engine := NewEngine(Catalog{
		shared.RoleAdmin: {
			Inherits:    []shared.Role{shared.RoleManager},
			Permissions: []Permission{Perm("user", "delete")},
		},
		shared.RoleManager: {
			Inherits:    []shared.Role{shared.RoleViewer},
			Permissions: []Permission{Perm("category", "create")},
		},
		shared.RoleViewer: {
			Inherits:    []shared.Role{shared.RoleAdmin},
			Permissions: []Permission{Perm("category", "read")},
		},
	})
	want := []string{"category:create", "category:read", "user:delete"}
	assert.Equal(t, want, sortedEffective(engine, shared.RoleAdmin))
	assert.Equal(t, want, sortedEffective(engine, shared.RoleViewer))
}

func TestDenyByDefaultForEmptyRole(t *testing.T) {
	engine := NewEngine(DefaultCatalog())
	if engine.HasPermission("", "user", "read") {
		t.Fatal("empty role granted permission")
	}
	if engine.HasPermission("GHOST", "category", "read") {
		t.Fatal("unknown role granted permission")
	}
}

func TestGlobalWildcardGrantsEverything(t *testing.T) {
	engine := NewEngine(DefaultCatalog())
	if !engine.HasPermission(shared.RoleAdmin, "anything", "anything") {
		t.Fatal("admin with *:* denied")
	}
}

func TestWildcardMatchOrder(t *testing.T) {
	engine := NewEngine(Catalog{
		shared.RoleManager: {Permissions: []Permission{Perm("category", Wildcard)}},
	})
	if !engine.HasPermission(shared.RoleManager, "category", "read") {
		t.Fatal("resource wildcard did not match")
	}
	if engine.HasPermission(shared.RoleManager, "user", "read") {
		t.Fatal("resource wildcard leaked across resources")
	}
}

func TestRequirePermissionMirrorsHasPermission(t *testing.T) {
	engine := NewEngine(DefaultCatalog())
	checks := []struct {
		role             shared.Role
		resource, action string
	}{
		{shared.RoleAdmin, "user", "delete"},
		{shared.RoleManager, "category", "create"},
		{shared.RoleManager, "category", "read"}, // inherited from Viewer
		{shared.RoleManager, "user", "delete"},
		{shared.RoleViewer, "category", "read"},
		{shared.RoleViewer, "category", "create"},
		{"", "user", "read"},
	}
	for _, c := range checks {
		err := engine.RequirePermission(c.role, c.resource, c.action)
		if engine.HasPermission(c.role, c.resource, c.action) {
			assert.NoError(t, err, "%s %s:%s", c.role, c.resource, c.action)
		} else {
			assert.Error(t, err, "%s %s:%s", c.role, c.resource, c.action)
		}
	}
}

func TestDenialCarriesDiagnostics(t *testing.T) {
	engine := NewEngine(DefaultCatalog())
	err := engine.RequirePermission("", "user", "read")
	require.Error(t, err)

	var d *DenialError
	require.True(t, errors.As(err, &d))
	assert.Equal(t, shared.Role(""), d.Role)
	assert.Equal(t, "user", d.Resource)
	assert.Equal(t, "read", d.Action)
	assert.Equal(t, shared.CodeRBACDenied, shared.CodeOf(err))
}

func TestRequireAuthentication(t *testing.T) {
	engine := NewEngine(DefaultCatalog())
	require.NoError(t, engine.RequireAuthentication(shared.RoleViewer))

	err := engine.RequireAuthentication("")
	require.Error(t, err)
	assert.Equal(t, "authentication required", err.Error())
}

func TestRequireAnyPermissionEnumeratesPairs(t *testing.T) {
	engine := NewEngine(DefaultCatalog())
	perms := []Permission{Perm("user", "read"), Perm("user", "list")}

	require.NoError(t, engine.RequireAnyPermission(shared.RoleAdmin, perms))

	err := engine.RequireAnyPermission(shared.RoleViewer, perms)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read on user")
	assert.Contains(t, err.Error(), "list on user")
}

func TestOwnershipOrPermissionGate(t *testing.T) {
	engine := NewEngine(DefaultCatalog())
	owner := &shared.Principal{ID: "u1", Role: shared.RoleViewer}

	// Ownership match succeeds even without any declared permission.
	require.NoError(t, engine.RequireOwnershipOrPermission(owner, "u1", "user", "update_self"))

	// Not the owner, no permission: denied.
	err := engine.RequireOwnershipOrPermission(owner, "u2", "user", "update")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "your own user")

	// Not the owner but the blanket permission is held.
	admin := &shared.Principal{ID: "a1", Role: shared.RoleAdmin}
	require.NoError(t, engine.RequireOwnershipOrPermission(admin, "u2", "user", "update"))

	// Anonymous principals never pass on ownership.
	err = engine.RequireOwnershipOrPermission(nil, "u1", "user", "update")
	require.Error(t, err)
}

func TestConcurrentInitialization(t *testing.T) {
	engine := NewEngine(DefaultCatalog())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !engine.HasPermission(shared.RoleManager, "category", "read") {
				t.Error("manager denied inherited permission during concurrent init")
			}
		}()
	}
	wg.Wait()
}
