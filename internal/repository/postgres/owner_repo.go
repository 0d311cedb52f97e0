package postgres

import (
	"context"
	"errors"

	"github.com/fortuna/ledger-engine/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// OwnerRepository implements domain.OwnerRepository using PostgreSQL. It
// exposes only the existence/read contract the ledger core needs; owner
// profile CRUD is an external collaborator.
type OwnerRepository struct {
	pool *pgxpool.Pool
}

func NewOwnerRepository(pool *pgxpool.Pool) *OwnerRepository {
	return &OwnerRepository{pool: pool}
}

func (r *OwnerRepository) Exists(ownerID int32) (bool, error) {
	ctx := context.Background()
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM owners WHERE id = $1)`, ownerID).Scan(&exists)
	if err != nil {
		return false, domain.NewStorageFault(err)
	}
	return exists, nil
}

func (r *OwnerRepository) GetByID(ownerID int32) (*domain.Owner, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, initial_balance, created_at, updated_at
		FROM owners WHERE id = $1`, ownerID)

	return scanOwner(row)
}

func (r *OwnerRepository) SetInitialBalance(ownerID int32, value decimal.Decimal) (*domain.Owner, error) {
	ctx := context.Background()
	amount, err := decimalToPgNumeric(value)
	if err != nil {
		return nil, domain.NewStorageFault(err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE owners SET initial_balance = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, name, email, password_hash, initial_balance, created_at, updated_at`,
		ownerID, amount)

	return scanOwner(row)
}

func scanOwner(row pgx.Row) (*domain.Owner, error) {
	var o domain.Owner
	var balance pgtype.Numeric
	err := row.Scan(&o.ID, &o.Name, &o.Email, &o.PasswordHash, &balance, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOwnerNotFound
		}
		return nil, domain.NewStorageFault(err)
	}
	o.InitialBalance = pgNumericToDecimal(balance)
	return &o, nil
}
