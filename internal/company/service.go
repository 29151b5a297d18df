package company

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/incroft/staffdir/internal/platform/cache"
	"github.com/incroft/staffdir/internal/rbac"
	"github.com/incroft/staffdir/internal/shared"
)

// Service manages the company profile document and operator KV assets.
type Service struct {
	kv       *cache.KV
	env      string
	engine   *rbac.Engine
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds a Service instance. Keys are namespaced by environment so
// staging and production share a store safely.
func NewService(kv *cache.KV, env string, engine *rbac.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{kv: kv, env: env, engine: engine, validate: validator.New(), logger: logger}
}

func (s *Service) profileKey() string {
	return "company_profile:" + s.env
}

// Profile returns the company profile, or nil when none has been stored yet.
// Requires kv read access.
func (s *Service) Profile(ctx context.Context, p *shared.Principal) (*Profile, error) {
	if err := s.engine.RequirePermission(shared.RoleOf(p), rbac.ResourceKV, rbac.ActionRead); err != nil {
		return nil, err
	}

	data, err := s.kv.Get(ctx, s.profileKey())
	if err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("company: load profile: %w", err)
	}
	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("company: decode profile: %w", err)
	}
	return &profile, nil
}

// UpdateProfile replaces the whole profile document.
func (s *Service) UpdateProfile(ctx context.Context, p *shared.Principal, in Profile) (*Profile, error) {
	if err := s.engine.RequirePermission(shared.RoleOf(p), rbac.ResourceCompanyProfile, rbac.ActionUpdate); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, shared.WrapError(shared.CodeBadUserInput, "invalid company profile", err)
	}

	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("company: encode profile: %w", err)
	}
	// The profile is durable: no TTL.
	if err := s.kv.Put(ctx, s.profileKey(), data, 0); err != nil {
		return nil, fmt.Errorf("company: store profile: %w", err)
	}
	s.logger.Info("company profile updated", slog.String("by", p.Name))
	return &in, nil
}

// KVAsset fetches an operator-managed KV entry verbatim. Admin only.
// A missing key resolves to a null value, not an error.
func (s *Service) KVAsset(ctx context.Context, p *shared.Principal, key string) (*KVAsset, error) {
	if err := s.engine.RequirePermission(shared.RoleOf(p), rbac.ResourceKV, rbac.ActionAdmin); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, shared.NewError(shared.CodeBadUserInput, "kv_key is required")
	}

	asset := &KVAsset{Key: key}
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			return asset, nil
		}
		return nil, fmt.Errorf("company: load kv asset: %w", err)
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("company: decode kv asset %q: %w", key, err)
	}
	asset.Value = value
	return asset, nil
}
