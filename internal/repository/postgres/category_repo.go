package postgres

import (
	"context"
	"errors"

	"github.com/fortuna/ledger-engine/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CategoryRepository implements domain.CategoryRepository using
// PostgreSQL. Category CRUD beyond existence/reference checks is an
// external collaborator.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func (r *CategoryRepository) Exists(categoryID int32) (bool, error) {
	ctx := context.Background()
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, categoryID).Scan(&exists)
	if err != nil {
		return false, domain.NewStorageFault(err)
	}
	return exists, nil
}

func (r *CategoryRepository) GetByID(categoryID int32) (*domain.Category, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `SELECT id, name, description, icon FROM categories WHERE id = $1`, categoryID)

	var c domain.Category
	var description, icon pgtype.Text
	if err := row.Scan(&c.ID, &c.Name, &description, &icon); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, domain.NewStorageFault(err)
	}
	c.Description = nilableText(description)
	c.Icon = nilableText(icon)
	return &c, nil
}

// HasTransactions is the precondition the RESTRICT delete policy checks
// before a category can be removed.
func (r *CategoryRepository) HasTransactions(categoryID int32) (bool, error) {
	ctx := context.Background()
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE category_id = $1)`, categoryID).Scan(&exists)
	if err != nil {
		return false, domain.NewStorageFault(err)
	}
	return exists, nil
}
