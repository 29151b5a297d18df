package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/incroft/staffdir/internal/shared"
)

// Repository defines the persistence methods the taxonomy service needs.
type Repository interface {
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, categoryType, id string) (bool, error)
	List(ctx context.Context, categoryType string, f Filter) ([]Category, error)
	FindByIDs(ctx context.Context, categoryType string, ids []string) ([]Category, error)
}

// PGRepository provides PostgreSQL backed persistence for the taxonomy.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository over the pool.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const categoryColumns = `id, category_type, name, description, is_disabled,
	created_at, updated_at, created_by, updated_by`

func collectCategories(rows pgx.Rows) ([]Category, error) {
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Type, &c.Name, &c.Description, &c.IsDisabled,
			&c.CreatedAt, &c.UpdatedAt, &c.CreatedBy, &c.UpdatedBy); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts a taxonomy entry. Duplicate names within a type map to a
// DUPLICATE error.
func (r *PGRepository) Create(ctx context.Context, c *Category) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (id, category_type, name, description, is_disabled,
			created_at, updated_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Type, c.Name, c.Description, c.IsDisabled,
		c.CreatedAt, c.UpdatedAt, c.CreatedBy, c.UpdatedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.WrapError(shared.CodeDuplicate, fmt.Sprintf("%s %q already exists", c.Type, c.Name), err)
		}
		return fmt.Errorf("category: create: %w", err)
	}
	return nil
}

// Update renames or disables a taxonomy entry.
func (r *PGRepository) Update(ctx context.Context, c *Category) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE categories SET name = $3, description = $4, is_disabled = $5,
			updated_at = $6, updated_by = $7
		WHERE id = $1 AND category_type = $2`,
		c.ID, c.Type, c.Name, c.Description, c.IsDisabled, c.UpdatedAt, c.UpdatedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.WrapError(shared.CodeDuplicate, fmt.Sprintf("%s %q already exists", c.Type, c.Name), err)
		}
		return fmt.Errorf("category: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewError(shared.CodeNotFound, "category not found")
	}
	return nil
}

// Delete removes a taxonomy entry, reporting whether a row existed.
func (r *PGRepository) Delete(ctx context.Context, categoryType, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM categories WHERE id = $1 AND category_type = $2`, id, categoryType)
	if err != nil {
		return false, fmt.Errorf("category: delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// List returns entries of one type, optionally narrowed by id or a name
// search.
func (r *PGRepository) List(ctx context.Context, categoryType string, f Filter) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE category_type = $1`
	args := []any{categoryType}
	if f.ID != "" {
		args = append(args, f.ID)
		query += fmt.Sprintf(" AND id = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	query += " ORDER BY name"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category: list: %w", err)
	}
	list, err := collectCategories(rows)
	if err != nil {
		return nil, fmt.Errorf("category: list scan: %w", err)
	}
	return list, nil
}

// FindByIDs batch-fetches entries of one type, skipping missing ids.
func (r *PGRepository) FindByIDs(ctx context.Context, categoryType string, ids []string) ([]Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE category_type = $1 AND id = ANY($2)`,
		categoryType, ids)
	if err != nil {
		return nil, fmt.Errorf("category: find by ids: %w", err)
	}
	list, err := collectCategories(rows)
	if err != nil {
		return nil, fmt.Errorf("category: find by ids scan: %w", err)
	}
	return list, nil
}
