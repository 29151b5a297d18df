package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/incroft/staffdir/internal/rbac"
	"github.com/incroft/staffdir/internal/shared"
)

type stubRepo struct {
	users   map[string]*User
	created []*User
	count   int64
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return nil, shared.NewError(shared.CodeNotFound, "user not found")
}

func (s *stubRepo) CreateUser(ctx context.Context, u *User) error {
	s.created = append(s.created, u)
	return nil
}

func (s *stubRepo) UpdatePassword(ctx context.Context, userID, hash string) error { return nil }

func (s *stubRepo) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	return nil
}

func (s *stubRepo) CountEmployees(ctx context.Context) (int64, error) { return s.count, nil }

func newTestService(t *testing.T, repo *stubRepo) *Service {
	t.Helper()
	issuer := NewIssuer("topsecret", time.Hour)
	verifier := NewVerifier("topsecret", nil, nil)
	engine := rbac.NewEngine(rbac.DefaultCatalog())
	return NewService(repo, issuer, verifier, engine, SequentialCodes{}, nil, nil)
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLogin(t *testing.T) {
	repo := &stubRepo{users: map[string]*User{
		"ada@incroft.test": {
			ID:           "u1",
			Email:        "ada@incroft.test",
			Name:         "Ada Lovelace",
			Role:         shared.RoleManager,
			PasswordHash: hashOf(t, "correct-horse"),
		},
	}}
	svc := newTestService(t, repo)

	resp, err := svc.Login(context.Background(), LoginInput{Email: "ada@incroft.test", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Empty(t, resp.User.PasswordHash)

	_, err = svc.Login(context.Background(), LoginInput{Email: "ada@incroft.test", Password: "wrong-password"})
	assert.Equal(t, shared.CodeUnauthorized, shared.CodeOf(err))

	_, err = svc.Login(context.Background(), LoginInput{Email: "ghost@incroft.test", Password: "whatever123"})
	assert.Equal(t, shared.CodeUnauthorized, shared.CodeOf(err))
}

func TestLoginDisabledAccount(t *testing.T) {
	repo := &stubRepo{users: map[string]*User{
		"gone@incroft.test": {
			ID:           "u2",
			Email:        "gone@incroft.test",
			IsDisabled:   true,
			PasswordHash: hashOf(t, "correct-horse"),
		},
	}}
	svc := newTestService(t, repo)

	_, err := svc.Login(context.Background(), LoginInput{Email: "gone@incroft.test", Password: "correct-horse"})
	assert.Equal(t, shared.CodeUnauthorized, shared.CodeOf(err))
}

func TestSignUpAssignsCodeAndDowngradesRole(t *testing.T) {
	repo := &stubRepo{count: 41}
	svc := newTestService(t, repo)

	user, err := svc.SignUp(context.Background(), SignUpInput{
		Name:     "grace hopper",
		Email:    "grace@incroft.test",
		Password: "password123",
		Phone:    "5550100",
		Role:     "COMMODORE",
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)

	assert.Equal(t, "EMP0042", user.EmpCode)
	assert.Equal(t, shared.RoleViewer, user.Role, "unknown role must downgrade to least privilege")
	assert.Equal(t, "Grace Hopper", user.Name)
	assert.NotEmpty(t, repo.created[0].PasswordHash)
	assert.Empty(t, user.PasswordHash)
}

func TestSignUpValidation(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	_, err := svc.SignUp(context.Background(), SignUpInput{Name: "x", Email: "not-an-email", Password: "short", Phone: "1"})
	assert.Equal(t, shared.CodeBadUserInput, shared.CodeOf(err))
}

func TestChangePassword(t *testing.T) {
	repo := &stubRepo{users: map[string]*User{
		"ada@incroft.test": {
			ID:           "u1",
			Email:        "ada@incroft.test",
			PasswordHash: hashOf(t, "old-password"),
		},
	}}
	svc := newTestService(t, repo)
	principal := &shared.Principal{ID: "u1", Role: shared.RoleViewer, Email: "ada@incroft.test"}

	err := svc.ChangePassword(context.Background(), principal, ChangePasswordInput{
		CurrentPassword: "old-password",
		NewPassword:     "new-password-1",
		ConfirmPassword: "new-password-1",
	})
	require.NoError(t, err)

	// Wrong current password.
	err = svc.ChangePassword(context.Background(), principal, ChangePasswordInput{
		CurrentPassword: "not-the-one",
		NewPassword:     "new-password-1",
		ConfirmPassword: "new-password-1",
	})
	assert.Equal(t, shared.CodeUnauthorized, shared.CodeOf(err))

	// Confirmation mismatch.
	err = svc.ChangePassword(context.Background(), principal, ChangePasswordInput{
		CurrentPassword: "old-password",
		NewPassword:     "new-password-1",
		ConfirmPassword: "different",
	})
	assert.Equal(t, shared.CodeBadUserInput, shared.CodeOf(err))

	// Anonymous caller is denied by the engine.
	err = svc.ChangePassword(context.Background(), nil, ChangePasswordInput{
		CurrentPassword: "old-password",
		NewPassword:     "new-password-1",
		ConfirmPassword: "new-password-1",
	})
	assert.Equal(t, shared.CodeRBACDenied, shared.CodeOf(err))
}
