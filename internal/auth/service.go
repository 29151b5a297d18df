package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/incroft/staffdir/internal/platform/cache"
	"github.com/incroft/staffdir/internal/rbac"
	"github.com/incroft/staffdir/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	issuer   *Issuer
	verifier *Verifier
	engine   *rbac.Engine
	codes    CodeGenerator
	cache    *cache.Cache
	validate *validator.Validate
	logger   *slog.Logger
	titler   cases.Caser
}

// NewService constructs a Service.
func NewService(repo Repository, issuer *Issuer, verifier *Verifier, engine *rbac.Engine, codes CodeGenerator, c *cache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		issuer:   issuer,
		verifier: verifier,
		engine:   engine,
		codes:    codes,
		cache:    c,
		validate: validator.New(),
		logger:   logger,
		titler:   cases.Title(language.Und),
	}
}

// Login validates email/password credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResponse, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, shared.WrapError(shared.CodeBadUserInput, "invalid email or password format", err)
	}

	user, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, shared.NewError(shared.CodeUnauthorized, "invalid credentials")
	}
	if user.IsDisabled {
		return nil, shared.NewError(shared.CodeUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, shared.NewError(shared.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.issuer.Issue(*user)
	if err != nil {
		return nil, err
	}
	if err := s.repo.TouchLastLogin(ctx, user.ID, time.Now()); err != nil {
		s.logger.Warn("touch last login", slog.Any("error", err))
	}

	user.PasswordHash = ""
	return &LoginResponse{Token: token, User: *user}, nil
}

// SignUp registers a new employee account and assigns its employee code.
// Unrecognised role values downgrade to Viewer.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*User, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, shared.WrapError(shared.CodeBadUserInput, "invalid signup input", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, shared.WrapError(shared.CodeInternal, "failed to hash password", err)
	}

	total, err := s.repo.CountEmployees(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	name := s.titler.String(in.Name)
	user := &User{
		ID:           uuid.NewString(),
		EmpCode:      s.codes.Generate(total + 1),
		Name:         name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         shared.ParseRole(in.Role),
		Phone:        in.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
		CreatedBy:    name,
		UpdatedBy:    name,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if err := s.cache.InvalidatePattern(ctx, "users:*"); err != nil {
		s.logger.Warn("invalidate user cache", slog.Any("error", err))
	}

	user.PasswordHash = ""
	return user, nil
}

// ChangePassword rotates the caller's own password after verifying the
// current one.
func (s *Service) ChangePassword(ctx context.Context, p *shared.Principal, in ChangePasswordInput) error {
	if err := s.engine.RequirePermission(shared.RoleOf(p), rbac.ResourceAuth, rbac.ActionChangePasswordSelf); err != nil {
		return err
	}
	if err := s.validate.Struct(in); err != nil {
		return shared.WrapError(shared.CodeBadUserInput, "new password and confirmation must match and be at least 8 characters", err)
	}
	if in.CurrentPassword == in.NewPassword {
		return shared.NewError(shared.CodeBadUserInput, "new password must differ from the current one")
	}

	user, err := s.repo.FindByEmail(ctx, p.Email)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return shared.NewError(shared.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return shared.WrapError(shared.CodeInternal, "failed to hash password", err)
	}
	return s.repo.UpdatePassword(ctx, user.ID, string(hash))
}

// Logout verifies the presented token so a bogus one still fails loudly.
// Token revocation is out of scope; clients discard the token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if _, err := s.verifier.Verify(token); err != nil {
		return err
	}
	return nil
}
