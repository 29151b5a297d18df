package category

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/incroft/staffdir/internal/platform/cache"
	"github.com/incroft/staffdir/internal/rbac"
	"github.com/incroft/staffdir/internal/shared"
)

// Service manages the department/designation taxonomy.
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

// cacheKey omits empty filter parts so equivalent requests share an entry.
func cacheKey(categoryType string, f Filter) string {
	key := "category:" + categoryType
	if f.Search != "" {
		key += ":" + f.Search
	}
	if f.ID != "" {
		key += ":" + f.ID
	}
	return key
}

func (s *Service) invalidateType(ctx context.Context, categoryType string) {
	if err := s.cache.InvalidatePattern(ctx, "category:"+categoryType+"*"); err != nil {
		s.logger.Warn("invalidate category cache", slog.String("type", categoryType), slog.Any("error", err))
	}
}

// List returns taxonomy entries of one type. Requires category read access.
func (s *Service) List(ctx context.Context, p *shared.Principal, categoryType string, f Filter) ([]Category, error) {
	if err := s.engine.RequirePermission(shared.RoleOf(p), rbac.ResourceCategory, rbac.ActionRead); err != nil {
		return nil, err
	}
	if categoryType != TypeDepartment && categoryType != TypeDesignation {
		return nil, shared.NewError(shared.CodeBadUserInput, "unknown category type")
	}

	key := cacheKey(categoryType, f)
	var cached []Category
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	list, err := s.repo.List(ctx, categoryType, f)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, list)
	return list, nil
}

// ByIDs batch-fetches entries of one type for nested lookups.
func (s *Service) ByIDs(ctx context.Context, p *shared.Principal, categoryType string, ids []string) ([]Category, error) {
	if err := s.engine.RequirePermission(shared.RoleOf(p), rbac.ResourceCategory, rbac.ActionRead); err != nil {
		return nil, err
	}
	return s.repo.FindByIDs(ctx, categoryType, ids)
}

// Create adds a taxonomy entry and drops the type's cached listings.
func (s *Service) Create(ctx context.Context, p *shared.Principal, in CreateInput) (*Category, error) {
	if err := s.engine.RequirePermission(shared.RoleOf(p), rbac.ResourceCategory, rbac.ActionCreate); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, shared.WrapError(shared.CodeBadUserInput, "invalid category input", err)
	}

	now := time.Now()
	c := &Category{
		ID:          uuid.NewString(),
		Type:        in.Type,
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   p.Name,
		UpdatedBy:   p.Name,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.invalidateType(ctx, in.Type)
	return c, nil
}

// Update renames or disables an entry and drops the type's cached listings.
func (s *Service) Update(ctx context.Context, p *shared.Principal, in UpdateInput) (*Category, error) {
	if err := s.engine.RequirePermission(shared.RoleOf(p), rbac.ResourceCategory, rbac.ActionUpdate); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, shared.WrapError(shared.CodeBadUserInput, "invalid category input", err)
	}

	c := &Category{
		ID:          in.ID,
		Type:        in.Type,
		Name:        in.Name,
		Description: in.Description,
		UpdatedAt:   time.Now(),
		UpdatedBy:   p.Name,
	}
	if in.IsDisabled != nil {
		c.IsDisabled = *in.IsDisabled
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.invalidateType(ctx, in.Type)
	return c, nil
}

// Delete removes an entry and drops the type's cached listings.
func (s *Service) Delete(ctx context.Context, p *shared.Principal, in DeleteInput) (bool, error) {
	if err := s.engine.RequirePermission(shared.RoleOf(p), rbac.ResourceCategory, rbac.ActionDelete); err != nil {
		return false, err
	}
	if err := s.validate.Struct(in); err != nil {
		return false, shared.WrapError(shared.CodeBadUserInput, "invalid category input", err)
	}

	deleted, err := s.repo.Delete(ctx, in.Type, in.ID)
	if err != nil {
		return false, err
	}
	if deleted {
		s.invalidateType(ctx, in.Type)
	}
	return deleted, nil
}
