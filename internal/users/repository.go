package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/incroft/staffdir/internal/platform/db"
	"github.com/incroft/staffdir/internal/shared"
)

// PageQuery is a normalised pagination request handed to the repository.
// Limit is already capped and includes the extra look-ahead row.
type PageQuery struct {
	Limit           int
	After           *time.Time
	Sort            string
	SortBy          string
	EmpCode         string
	Name            string
	Email           string
	Phone           string
	Role            shared.Role
	HasRole         bool
	IncludeDisabled bool
}

// Repository defines the persistence methods the directory service needs.
type Repository interface {
	Paginated(ctx context.Context, q PageQuery) ([]User, int64, error)
	ListAll(ctx context.Context) ([]User, error)
	ListByIDs(ctx context.Context, ids []string) ([]User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByField(ctx context.Context, field, value string) ([]User, error)
	ProfileByUserID(ctx context.Context, userID string) (*Profile, error)
	Update(ctx context.Context, in EditUserInput, adminEdit bool, editor string) (*User, error)
	Delete(ctx context.Context, id string) (bool, error)
	SetDisabled(ctx context.Context, id string, disabled bool, editor string) (bool, error)
}

// PGRepository provides PostgreSQL backed persistence for the directory.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository over the pool.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, emp_code, name, email, role, phone,
	is_verified, is_disabled, force_password_change, last_login_at,
	created_at, updated_at, created_by, updated_by`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.EmpCode, &u.Name, &u.Email, &u.Role, &u.Phone,
		&u.IsVerified, &u.IsDisabled, &u.ForcePasswordChange, &u.LastLoginAt,
		&u.CreatedAt, &u.UpdatedAt, &u.CreatedBy, &u.UpdatedBy)
	return u, err
}

func collectUsers(rows pgx.Rows) ([]User, error) {
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Paginated fetches a page of users plus the filtered total. Callers pass a
// limit one larger than the page size to detect a next page.
func (r *PGRepository) Paginated(ctx context.Context, q PageQuery) ([]User, int64, error) {
	where := []string{"is_disabled = $1"}
	args := []any{q.IncludeDisabled}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sortCol := "updated_at"
	if q.SortBy == SortByCreatedAt {
		sortCol = "created_at"
	}
	if q.After != nil {
		op := "<"
		if q.Sort == SortAsc {
			op = ">"
		}
		where = append(where, fmt.Sprintf("%s %s %s", sortCol, op, arg(*q.After)))
	}
	if q.EmpCode != "" {
		where = append(where, "emp_code = "+arg(q.EmpCode))
	}
	if q.Name != "" {
		where = append(where, "name ILIKE "+arg("%"+q.Name+"%"))
	}
	if q.Email != "" {
		where = append(where, "email = "+arg(q.Email))
	}
	if q.Phone != "" {
		where = append(where, "phone = "+arg(q.Phone))
	}
	if q.HasRole {
		where = append(where, "role = "+arg(string(q.Role)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("users: count: %w", err)
	}

	dir := "DESC"
	if q.Sort == SortAsc {
		dir = "ASC"
	}
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY %s %s LIMIT %s`,
		userColumns, cond, sortCol, dir, arg(q.Limit))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("users: paginated: %w", err)
	}
	list, err := collectUsers(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("users: paginated scan: %w", err)
	}
	return list, total, nil
}

// ListAll returns every user in the directory.
func (r *PGRepository) ListAll(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("users: list all: %w", err)
	}
	list, err := collectUsers(rows)
	if err != nil {
		return nil, fmt.Errorf("users: list all scan: %w", err)
	}
	return list, nil
}

// ListByIDs fetches the given users, skipping ids that do not exist.
func (r *PGRepository) ListByIDs(ctx context.Context, ids []string) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("users: list by ids: %w", err)
	}
	list, err := collectUsers(rows)
	if err != nil {
		return nil, fmt.Errorf("users: list by ids scan: %w", err)
	}
	return list, nil
}

// FindByID fetches a single user.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NewError(shared.CodeNotFound, "user not found")
		}
		return nil, fmt.Errorf("users: find by id: %w", err)
	}
	return &u, nil
}

// FindByEmail fetches a single user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NewError(shared.CodeNotFound, "user not found")
		}
		return nil, fmt.Errorf("users: find by email: %w", err)
	}
	return &u, nil
}

// columnFor whitelists lookup columns; anything else is rejected before it
// reaches SQL.
func columnFor(field string) (string, bool) {
	switch field {
	case FieldID, FieldEmail, FieldName, FieldPhone, FieldRole, FieldEmpCode:
		return field, true
	default:
		return "", false
	}
}

// FindByField looks users up by one column. Name lookups treat the value as a
// LIKE pattern; everything else matches exactly.
func (r *PGRepository) FindByField(ctx context.Context, field, value string) ([]User, error) {
	col, ok := columnFor(field)
	if !ok {
		return nil, shared.NewError(shared.CodeBadUserInput, "unknown lookup field")
	}
	op := "="
	if col == FieldName {
		op = "ILIKE"
	}
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE %s %s $1`, userColumns, col, op), value)
	if err != nil {
		return nil, fmt.Errorf("users: find by %s: %w", field, err)
	}
	list, err := collectUsers(rows)
	if err != nil {
		return nil, fmt.Errorf("users: find by %s scan: %w", field, err)
	}
	return list, nil
}

// ProfileByUserID fetches the employment profile for a user, if present.
func (r *PGRepository) ProfileByUserID(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, department_id, designation_id, employment_type, work_location,
			date_of_joining, date_of_leaving, address, city, state, country, zipcode
		FROM user_profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.DepartmentID, &p.DesignationID, &p.EmploymentType, &p.WorkLocation,
			&p.DateOfJoining, &p.DateOfLeaving, &p.Address, &p.City, &p.State, &p.Country, &p.Zipcode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("users: profile by user id: %w", err)
	}
	return &p, nil
}

// Update applies an edit to the users row and the profile row in one
// transaction. Email, role and employment columns are only written when
// adminEdit is set.
func (r *PGRepository) Update(ctx context.Context, in EditUserInput, adminEdit bool, editor string) (*User, error) {
	var updated *User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		set := []string{"updated_at = NOW()"}
		args := []any{in.ID}
		arg := func(v any) string {
			args = append(args, v)
			return fmt.Sprintf("$%d", len(args))
		}
		set = append(set, "updated_by = "+arg(editor))

		if in.Name != "" {
			set = append(set, "name = "+arg(in.Name))
		}
		if in.Phone != "" {
			set = append(set, "phone = "+arg(in.Phone))
		}
		if adminEdit && in.Email != "" {
			set = append(set, "email = "+arg(in.Email))
		}
		if adminEdit && in.Role != "" {
			set = append(set, "role = "+arg(string(shared.ParseRole(in.Role))))
		}
		if in.IsVerified != nil {
			set = append(set, "is_verified = "+arg(*in.IsVerified))
		}
		if in.IsDisabled != nil {
			set = append(set, "is_disabled = "+arg(*in.IsDisabled))
		}
		if in.ForcePasswordChange != nil {
			set = append(set, "force_password_change = "+arg(*in.ForcePasswordChange))
		}

		query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $1 RETURNING %s`,
			strings.Join(set, ", "), userColumns)
		u, err := scanUser(tx.QueryRow(ctx, query, args...))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.NewError(shared.CodeNotFound, "user not found")
			}
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return shared.WrapError(shared.CodeDuplicate, "email or phone already registered", err)
			}
			return fmt.Errorf("users: update: %w", err)
		}

		if err := r.updateProfile(ctx, tx, in, adminEdit); err != nil {
			return err
		}
		updated = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *PGRepository) updateProfile(ctx context.Context, tx pgx.Tx, in EditUserInput, adminEdit bool) error {
	set := []string{}
	args := []any{in.ID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if in.Address != nil {
		set = append(set, "address = "+arg(*in.Address))
	}
	if in.City != nil {
		set = append(set, "city = "+arg(*in.City))
	}
	if in.State != nil {
		set = append(set, "state = "+arg(*in.State))
	}
	if in.Country != nil {
		set = append(set, "country = "+arg(*in.Country))
	}
	if in.Zipcode != nil {
		set = append(set, "zipcode = "+arg(*in.Zipcode))
	}
	// Employment details stay admin-only.
	if adminEdit {
		if in.DepartmentID != nil {
			set = append(set, "department_id = "+arg(*in.DepartmentID))
		}
		if in.DesignationID != nil {
			set = append(set, "designation_id = "+arg(*in.DesignationID))
		}
		if in.EmploymentType != nil {
			set = append(set, "employment_type = "+arg(*in.EmploymentType))
		}
		if in.WorkLocation != nil {
			set = append(set, "work_location = "+arg(*in.WorkLocation))
		}
	}
	if len(set) == 0 {
		return nil
	}

	query := fmt.Sprintf(`UPDATE user_profiles SET %s WHERE user_id = $1`, strings.Join(set, ", "))
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("users: update profile: %w", err)
	}
	return nil
}

// Delete removes a user, reporting whether a row existed.
func (r *PGRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("users: delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetDisabled flips the disabled flag, reporting whether a row existed.
func (r *PGRepository) SetDisabled(ctx context.Context, id string, disabled bool, editor string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET is_disabled = $2, updated_at = NOW(), updated_by = $3
		WHERE id = $1`, id, disabled, editor)
	if err != nil {
		return false, fmt.Errorf("users: set disabled: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
