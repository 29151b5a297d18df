package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/incroft/staffdir/internal/shared"
)

// Repository defines the persistence methods the auth service needs.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
	CountEmployees(ctx context.Context) (int64, error)
}

// PGRepository provides PostgreSQL backed persistence for accounts.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository over the pool.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, emp_code, name, email, password_hash, role, phone,
	is_verified, is_disabled, force_password_change, last_login_at,
	created_at, updated_at, created_by, updated_by`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.EmpCode, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.Phone, &u.IsVerified, &u.IsDisabled, &u.ForcePasswordChange,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt, &u.CreatedBy, &u.UpdatedBy)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByEmail fetches an account by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NewError(shared.CodeNotFound, "user not found")
		}
		return nil, fmt.Errorf("auth: find by email: %w", err)
	}
	return u, nil
}

// CreateUser inserts a new account. Unique violations on email or phone map
// to a DUPLICATE error.
func (r *PGRepository) CreateUser(ctx context.Context, u *User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, emp_code, name, email, password_hash, role, phone,
			is_verified, is_disabled, force_password_change,
			created_at, updated_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		u.ID, u.EmpCode, u.Name, u.Email, u.PasswordHash, u.Role, u.Phone,
		u.IsVerified, u.IsDisabled, u.ForcePasswordChange,
		u.CreatedAt, u.UpdatedAt, u.CreatedBy, u.UpdatedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.WrapError(shared.CodeDuplicate, "email or phone already registered", err)
		}
		return fmt.Errorf("auth: create user: %w", err)
	}
	return nil
}

// UpdatePassword stores a new password hash.
func (r *PGRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, force_password_change = FALSE, updated_at = NOW()
		WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("auth: update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewError(shared.CodeNotFound, "user not found")
	}
	return nil
}

// TouchLastLogin records the most recent successful login.
func (r *PGRepository) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, userID, at)
	if err != nil {
		return fmt.Errorf("auth: touch last login: %w", err)
	}
	return nil
}

// CountEmployees returns the total number of accounts, used for sequential
// employee codes.
func (r *PGRepository) CountEmployees(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("auth: count employees: %w", err)
	}
	return count, nil
}
