package users

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/incroft/staffdir/internal/platform/cache"
	"github.com/incroft/staffdir/internal/rbac"
	"github.com/incroft/staffdir/internal/shared"
)

// Service handles directory queries and mutations with per-operation
// authorization.
type Service struct {
	repo     Repository
	engine   *rbac.Engine
	cache    *cache.Cache
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo Repository, engine *rbac.Engine, c *cache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, engine: engine, cache: c, validate: validator.New(), logger: logger}
}

var readOrList = []rbac.Permission{
	rbac.Perm(rbac.ResourceUser, rbac.ActionRead),
	rbac.Perm(rbac.ResourceUser, rbac.ActionList),
}

// Paginated returns a page of users. When ids are given the pagination input
// is ignored and exactly those users come back in a single page.
func (s *Service) Paginated(ctx context.Context, p *shared.Principal, ids []string, in PaginatedUsersInput) (*Connection, error) {
	if err := s.engine.RequireAnyPermission(shared.RoleOf(p), readOrList); err != nil {
		return nil, err
	}

	cacheKey := paginatedCacheKey(ids, in)
	var cached Connection
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	var conn *Connection
	if len(ids) > 0 {
		list, err := s.repo.ListByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		conn = idsConnection(list)
	} else {
		var err error
		conn, err = s.page(ctx, in)
		if err != nil {
			return nil, err
		}
	}

	s.cache.Set(ctx, cacheKey, conn)
	return conn, nil
}

func (s *Service) page(ctx context.Context, in PaginatedUsersInput) (*Connection, error) {
	first := in.First
	if first <= 0 {
		first = DefaultPageSize
	}
	if first > MaxPageSize {
		first = MaxPageSize
	}
	sortBy := in.SortBy
	if sortBy != SortByCreatedAt {
		sortBy = SortByUpdatedAt
	}
	sort := SortDesc
	if strings.EqualFold(in.Sort, SortAsc) {
		sort = SortAsc
	}

	q := PageQuery{
		// One extra row tells us whether a next page exists.
		Limit:           first + 1,
		Sort:            sort,
		SortBy:          sortBy,
		EmpCode:         in.EmpCode,
		Name:            in.Name,
		Email:           in.Email,
		Phone:           in.Phone,
		IncludeDisabled: in.IncludeDisabled,
	}
	if in.After != "" {
		after, err := time.Parse(time.RFC3339, in.After)
		if err != nil {
			return nil, shared.WrapError(shared.CodeBadUserInput, "cursor must be an RFC 3339 timestamp", err)
		}
		q.After = &after
	}
	if in.Role != "" {
		q.Role = shared.ParseRole(in.Role)
		q.HasRole = true
	}

	list, total, err := s.repo.Paginated(ctx, q)
	if err != nil {
		return nil, err
	}

	hasNext := len(list) > first
	if hasNext {
		list = list[:first]
	}

	edges := make([]Edge, len(list))
	for i, u := range list {
		ts := u.UpdatedAt
		if sortBy == SortByCreatedAt {
			ts = u.CreatedAt
		}
		edges[i] = Edge{Cursor: ts.Format(time.RFC3339Nano), Node: u}
	}
	info := PageInfo{HasNextPage: hasNext, TotalCount: total}
	if len(edges) > 0 {
		info.EndCursor = &edges[len(edges)-1].Cursor
	}
	return &Connection{Edges: edges, PageInfo: info}, nil
}

func idsConnection(list []User) *Connection {
	edges := make([]Edge, len(list))
	for i, u := range list {
		edges[i] = Edge{Cursor: u.CreatedAt.Format(time.RFC3339Nano), Node: u}
	}
	return &Connection{
		Edges:    edges,
		PageInfo: PageInfo{TotalCount: int64(len(list))},
	}
}

func paginatedCacheKey(ids []string, in PaginatedUsersInput) string {
	if len(ids) > 0 {
		return "users:ids:" + strings.Join(ids, ",")
	}
	raw, _ := json.Marshal(in)
	return "users:paginated:" + string(raw)
}

// ListAll returns every user in the directory.
func (s *Service) ListAll(ctx context.Context, p *shared.Principal) ([]User, error) {
	if err := s.engine.RequireAnyPermission(shared.RoleOf(p), readOrList); err != nil {
		return nil, err
	}

	const cacheKey = "users:all"
	var cached []User
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, nil
	}
	list, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, cacheKey, list)
	return list, nil
}

// ByID fetches a single user. Callers read themselves by ownership; reading
// anyone else takes the blanket read permission.
func (s *Service) ByID(ctx context.Context, p *shared.Principal, id string) (*User, error) {
	if err := s.engine.RequireOwnershipOrPermission(p, id, rbac.ResourceUser, rbac.ActionRead); err != nil {
		return nil, err
	}

	cacheKey := "user:id:" + id
	var cached User
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, cacheKey, u)
	return u, nil
}

// ProfileByID fetches the employment profile, gated like ByID. A user without
// a profile row resolves to nil, not an error.
func (s *Service) ProfileByID(ctx context.Context, p *shared.Principal, id string) (*Profile, error) {
	if err := s.engine.RequireOwnershipOrPermission(p, id, rbac.ResourceUser, rbac.ActionRead); err != nil {
		return nil, err
	}
	return s.repo.ProfileByUserID(ctx, id)
}

// ByEmail fetches a user by email. Looking up one's own email passes by
// ownership; any other address needs the blanket read permission.
func (s *Service) ByEmail(ctx context.Context, p *shared.Principal, email string) (*User, error) {
	if p == nil || !strings.EqualFold(p.Email, email) {
		if err := s.engine.RequirePermission(shared.RoleOf(p), rbac.ResourceUser, rbac.ActionRead); err != nil {
			return nil, err
		}
	}

	cacheKey := "user:email:" + email
	var cached User
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, cacheKey, u)
	s.cache.Set(ctx, "user:id:"+u.ID, u)
	return u, nil
}

// ByField looks users up by a single column. Lookups on id or email are
// sensitive: unless the value is the caller's own id or email, the self-read
// permission is required. Other columns take the blanket read permission, and
// name lookups match as a prefix.
func (s *Service) ByField(ctx context.Context, p *shared.Principal, in ByFieldInput) ([]User, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, shared.WrapError(shared.CodeBadUserInput, "invalid lookup input", err)
	}

	if in.Field == FieldID || in.Field == FieldEmail {
		lookingUpSelf := p != nil && (p.ID == in.Value || strings.EqualFold(p.Email, in.Value))
		if !lookingUpSelf {
			if err := s.engine.RequireOwnershipOrPermission(p, in.Value, rbac.ResourceUser, rbac.ActionReadSelf); err != nil {
				return nil, err
			}
		}
	} else {
		if err := s.engine.RequirePermission(shared.RoleOf(p), rbac.ResourceUser, rbac.ActionRead); err != nil {
			return nil, err
		}
	}

	cacheKey := fmt.Sprintf("users:field:%s:%s", in.Field, in.Value)
	var cached []User
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, nil
	}

	value := in.Value
	switch in.Field {
	case FieldRole:
		value = string(shared.ParseRole(in.Value))
	case FieldName:
		value = in.Value + "%"
	}

	list, err := s.repo.FindByField(ctx, in.Field, value)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, cacheKey, list)
	for i := range list {
		s.cache.Set(ctx, "user:id:"+list[i].ID, list[i])
	}
	return list, nil
}

// Edit updates a user. Callers edit themselves by ownership; editing anyone
// else takes the update permission. Email, role and employment fields only
// stick for admin callers.
func (s *Service) Edit(ctx context.Context, p *shared.Principal, in EditUserInput) (*User, error) {
	if err := s.engine.RequireOwnershipOrPermission(p, in.ID, rbac.ResourceUser, rbac.ActionUpdate); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, shared.WrapError(shared.CodeBadUserInput, "invalid edit input", err)
	}

	adminEdit := shared.RoleOf(p) == shared.RoleAdmin
	u, err := s.repo.Update(ctx, in, adminEdit, p.Name)
	if err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, "user:id:"+in.ID, "user:email:"+u.Email)
	if err := s.cache.InvalidatePattern(ctx, "users:*"); err != nil {
		s.logger.Warn("invalidate user cache", slog.Any("error", err))
	}
	return u, nil
}

// Delete removes a user. The delete permission gets the caller to the door;
// only the admin role walks through it.
func (s *Service) Delete(ctx context.Context, p *shared.Principal, id string) (bool, error) {
	if err := s.engine.RequirePermission(shared.RoleOf(p), rbac.ResourceUser, rbac.ActionDelete); err != nil {
		return false, err
	}
	if shared.RoleOf(p) != shared.RoleAdmin {
		return false, shared.NewError(shared.CodeRoleDenied, "only admin can delete users")
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.cache.Delete(ctx, "user:id:"+id)
		if err := s.cache.InvalidatePattern(ctx, "users:*"); err != nil {
			s.logger.Warn("invalidate user cache", slog.Any("error", err))
		}
	}
	return deleted, nil
}

// SetDisabled flips a user's disabled flag under the same admin-only rule as
// Delete.
func (s *Service) SetDisabled(ctx context.Context, p *shared.Principal, id string, disabled bool) (bool, error) {
	if err := s.engine.RequirePermission(shared.RoleOf(p), rbac.ResourceUser, rbac.ActionDisable); err != nil {
		return false, err
	}
	if shared.RoleOf(p) != shared.RoleAdmin {
		return false, shared.NewError(shared.CodeRoleDenied, "only admin can disable or enable users")
	}

	changed, err := s.repo.SetDisabled(ctx, id, disabled, p.Name)
	if err != nil {
		return false, err
	}
	if changed {
		s.cache.Delete(ctx, "user:id:"+id)
		if err := s.cache.InvalidatePattern(ctx, "user*"); err != nil {
			s.logger.Warn("invalidate user cache", slog.Any("error", err))
		}
	}
	return changed, nil
}
