package postgres

import (
	"context"
	"errors"

	"github.com/fortuna/ledger-engine/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GroupRepository implements domain.GroupRepository using PostgreSQL.
// Group CRUD beyond existence/reference/delete is an external
// collaborator.
type GroupRepository struct {
	pool *pgxpool.Pool
}

func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

func (r *GroupRepository) Exists(groupID int32) (bool, error) {
	ctx := context.Background()
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM transaction_groups WHERE id = $1)`, groupID).Scan(&exists)
	if err != nil {
		return false, domain.NewStorageFault(err)
	}
	return exists, nil
}

func (r *GroupRepository) GetByID(groupID int32) (*domain.TransactionGroup, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, description, created_at
		FROM transaction_groups WHERE id = $1`, groupID)

	var g domain.TransactionGroup
	var description pgtype.Text
	if err := row.Scan(&g.ID, &g.OwnerID, &g.Name, &description, &g.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, domain.NewStorageFault(err)
	}
	g.Description = nilableText(description)
	return &g, nil
}

// Delete removes the group and nulls group_id on every referencing
// transaction in one database transaction, without touching cumulative_delta — the
// SET-NULL policy of §3.
func (r *GroupRepository) Delete(groupID int32) error {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.NewStorageFault(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM transaction_groups WHERE id = $1`, groupID)
	if err != nil {
		return domain.NewStorageFault(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGroupNotFound
	}

	if _, err := tx.Exec(ctx, `UPDATE transactions SET group_id = NULL, updated_at = now() WHERE group_id = $1`, groupID); err != nil {
		return domain.NewStorageFault(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.NewStorageFault(err)
	}
	return nil
}
