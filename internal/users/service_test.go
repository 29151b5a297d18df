package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incroft/staffdir/internal/rbac"
	"github.com/incroft/staffdir/internal/shared"
)

type stubRepo struct {
	page        []User
	total       int64
	lastQuery   PageQuery
	byField     []User
	fieldArgs   [2]string
	updated     *User
	adminEdit   bool
	editor      string
	deleted     []string
	disabledIDs []string
}

func (s *stubRepo) Paginated(ctx context.Context, q PageQuery) ([]User, int64, error) {
	s.lastQuery = q
	return s.page, s.total, nil
}

func (s *stubRepo) ListAll(ctx context.Context) ([]User, error) { return s.page, nil }

func (s *stubRepo) ListByIDs(ctx context.Context, ids []string) ([]User, error) {
	return s.page, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id string) (*User, error) {
	return &User{ID: id}, nil
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	return &User{ID: "u-found", Email: email}, nil
}

func (s *stubRepo) FindByField(ctx context.Context, field, value string) ([]User, error) {
	s.fieldArgs = [2]string{field, value}
	return s.byField, nil
}

func (s *stubRepo) ProfileByUserID(ctx context.Context, userID string) (*Profile, error) {
	return nil, nil
}

func (s *stubRepo) Update(ctx context.Context, in EditUserInput, adminEdit bool, editor string) (*User, error) {
	s.adminEdit = adminEdit
	s.editor = editor
	u := User{ID: in.ID, Email: "edited@incroft.test"}
	s.updated = &u
	return &u, nil
}

func (s *stubRepo) Delete(ctx context.Context, id string) (bool, error) {
	s.deleted = append(s.deleted, id)
	return true, nil
}

func (s *stubRepo) SetDisabled(ctx context.Context, id string, disabled bool, editor string) (bool, error) {
	s.disabledIDs = append(s.disabledIDs, id)
	return true, nil
}

var (
	admin  = &shared.Principal{ID: "admin-1", Role: shared.RoleAdmin, Email: "admin@incroft.test", Name: "Admin"}
	viewer = &shared.Principal{ID: "viewer-1", Role: shared.RoleViewer, Email: "viewer@incroft.test", Name: "Viewer"}
)

func newTestService(repo *stubRepo) *Service {
	return NewService(repo, rbac.NewEngine(rbac.DefaultCatalog()), nil, nil)
}

func TestPaginatedAuthorization(t *testing.T) {
	svc := newTestService(&stubRepo{})

	_, err := svc.Paginated(context.Background(), nil, nil, PaginatedUsersInput{})
	assert.Equal(t, shared.CodeRBACDenied, shared.CodeOf(err), "anonymous caller")

	_, err = svc.Paginated(context.Background(), viewer, nil, PaginatedUsersInput{})
	assert.Equal(t, shared.CodeRBACDenied, shared.CodeOf(err), "viewer cannot list the directory")

	_, err = svc.Paginated(context.Background(), admin, nil, PaginatedUsersInput{})
	assert.NoError(t, err)
}

func TestPaginatedWindow(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	// Three rows back for first=2: the look-ahead row signals a next page.
	repo := &stubRepo{total: 9, page: []User{
		{ID: "u1", CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base.Add(2 * time.Hour)},
		{ID: "u2", CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)},
		{ID: "u3", CreatedAt: base, UpdatedAt: base},
	}}
	svc := newTestService(repo)

	conn, err := svc.Paginated(context.Background(), admin, nil, PaginatedUsersInput{First: 2, SortBy: SortByCreatedAt})
	require.NoError(t, err)

	assert.Equal(t, 3, repo.lastQuery.Limit, "repository sees first+1")
	require.Len(t, conn.Edges, 2)
	assert.True(t, conn.PageInfo.HasNextPage)
	assert.Equal(t, int64(9), conn.PageInfo.TotalCount)
	require.NotNil(t, conn.PageInfo.EndCursor)
	assert.Equal(t, conn.Edges[1].Cursor, *conn.PageInfo.EndCursor)

	cursor, err := time.Parse(time.RFC3339Nano, conn.Edges[0].Cursor)
	require.NoError(t, err)
	assert.True(t, cursor.Equal(base.Add(2*time.Hour)))
}

func TestPaginatedDefaultsAndCap(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo)

	_, err := svc.Paginated(context.Background(), admin, nil, PaginatedUsersInput{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize+1, repo.lastQuery.Limit)
	assert.Equal(t, SortDesc, repo.lastQuery.Sort)
	assert.Equal(t, SortByUpdatedAt, repo.lastQuery.SortBy)

	_, err = svc.Paginated(context.Background(), admin, nil, PaginatedUsersInput{First: 5000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize+1, repo.lastQuery.Limit)
}

func TestPaginatedRejectsBadCursor(t *testing.T) {
	svc := newTestService(&stubRepo{})
	_, err := svc.Paginated(context.Background(), admin, nil, PaginatedUsersInput{After: "yesterday"})
	assert.Equal(t, shared.CodeBadUserInput, shared.CodeOf(err))
}

func TestByIDOwnership(t *testing.T) {
	svc := newTestService(&stubRepo{})

	u, err := svc.ByID(context.Background(), viewer, viewer.ID)
	require.NoError(t, err, "reading one's own record passes by ownership")
	assert.Equal(t, viewer.ID, u.ID)

	_, err = svc.ByID(context.Background(), viewer, "someone-else")
	assert.Equal(t, shared.CodeRBACDenied, shared.CodeOf(err))

	_, err = svc.ByID(context.Background(), admin, "someone-else")
	assert.NoError(t, err)
}

func TestByEmailOwnership(t *testing.T) {
	svc := newTestService(&stubRepo{})

	_, err := svc.ByEmail(context.Background(), viewer, "Viewer@incroft.test")
	assert.NoError(t, err, "own email matches case-insensitively")

	_, err = svc.ByEmail(context.Background(), viewer, "other@incroft.test")
	assert.Equal(t, shared.CodeRBACDenied, shared.CodeOf(err))
}

func TestByFieldSensitiveLookups(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo)

	_, err := svc.ByField(context.Background(), viewer, ByFieldInput{Field: FieldID, Value: viewer.ID})
	assert.NoError(t, err, "own id is never sensitive to its owner")

	_, err = svc.ByField(context.Background(), viewer, ByFieldInput{Field: FieldID, Value: "someone-else"})
	assert.Equal(t, shared.CodeRBACDenied, shared.CodeOf(err))

	_, err = svc.ByField(context.Background(), viewer, ByFieldInput{Field: FieldName, Value: "Ada"})
	assert.Equal(t, shared.CodeRBACDenied, shared.CodeOf(err), "plain lookups still need user:read")
}

func TestByFieldValueMapping(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo)

	_, err := svc.ByField(context.Background(), admin, ByFieldInput{Field: FieldName, Value: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, [2]string{FieldName, "Ada%"}, repo.fieldArgs, "name lookups match as a prefix")

	_, err = svc.ByField(context.Background(), admin, ByFieldInput{Field: FieldRole, Value: "SUPERVISOR"})
	require.NoError(t, err)
	assert.Equal(t, [2]string{FieldRole, string(shared.RoleViewer)}, repo.fieldArgs, "unknown roles map to viewer")
}

func TestEditOwnershipAndAdminFields(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo)

	_, err := svc.Edit(context.Background(), viewer, EditUserInput{ID: viewer.ID, Name: "New Name"})
	require.NoError(t, err)
	assert.False(t, repo.adminEdit, "non-admin edits cannot touch email or role")
	assert.Equal(t, "Viewer", repo.editor)

	_, err = svc.Edit(context.Background(), viewer, EditUserInput{ID: "someone-else"})
	assert.Equal(t, shared.CodeRBACDenied, shared.CodeOf(err))

	_, err = svc.Edit(context.Background(), admin, EditUserInput{ID: "someone-else"})
	require.NoError(t, err)
	assert.True(t, repo.adminEdit)
}

func TestDeleteRequiresAdminRole(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo)

	_, err := svc.Delete(context.Background(), viewer, "u9")
	assert.Equal(t, shared.CodeRBACDenied, shared.CodeOf(err))
	assert.Empty(t, repo.deleted)

	// A role granted user:delete without being ADMIN still hits the role gate.
	catalog := rbac.DefaultCatalog()
	entry := catalog[shared.RoleManager]
	entry.Permissions = append(entry.Permissions, rbac.Perm(rbac.ResourceUser, rbac.ActionDelete))
	catalog[shared.RoleManager] = entry
	privileged := NewService(repo, rbac.NewEngine(catalog), nil, nil)

	manager := &shared.Principal{ID: "m1", Role: shared.RoleManager, Name: "Manager"}
	_, err = privileged.Delete(context.Background(), manager, "u9")
	assert.Equal(t, shared.CodeRoleDenied, shared.CodeOf(err))
	assert.Empty(t, repo.deleted)

	deleted, err := svc.Delete(context.Background(), admin, "u9")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []string{"u9"}, repo.deleted)
}

func TestSetDisabledRequiresAdminRole(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo)

	_, err := svc.SetDisabled(context.Background(), viewer, "u9", true)
	assert.Equal(t, shared.CodeRBACDenied, shared.CodeOf(err))

	changed, err := svc.SetDisabled(context.Background(), admin, "u9", true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"u9"}, repo.disabledIDs)
}
