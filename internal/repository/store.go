// Package repository defines the store-level contracts the ledger service
// (C5) depends on. Implementations live in repository/postgres; the
// interfaces here are what keeps the service layer free of any SQL or pgx
// detail.
package repository

import (
	"context"
	"time"

	"github.com/fortuna/ledger-engine/internal/domain"
)

// Store is the transactional persistence contract for ledger rows (C2):
// insert, update, and delete each run inside one serializable unit-of-work
// and atomically repair cumulative_delta on every affected row.
type Store interface {
	Insert(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	Update(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	Delete(ctx context.Context, id int32) error
	GetByID(ctx context.Context, id int32) (*domain.Transaction, error)

	Query
}

// Query is the read side of the store (C3): filtered and sorted retrieval
// over transactions, plus the aggregate used by C4. Listings are returned
// whole; no method takes a page size or offset.
type Query interface {
	ListAll(ctx context.Context) ([]*domain.Transaction, error)
	ListByOwner(ctx context.Context, ownerID int32) ([]*domain.Transaction, error)
	ListByOwnerFiltered(ctx context.Context, ownerID int32, q domain.QueryOptions) ([]*domain.Transaction, error)
	ListByOwnerAndKind(ctx context.Context, ownerID int32, kind domain.TransactionKind) ([]*domain.Transaction, error)
	ListByOwnerAndDateRange(ctx context.Context, ownerID int32, from, to time.Time) ([]*domain.Transaction, error)
	ListByOwnerAndGroup(ctx context.Context, ownerID, groupID int32) ([]*domain.Transaction, error)
	CountByOwner(ctx context.Context, ownerID int32) (int64, error)
	LastRow(ctx context.Context, ownerID int32) (*domain.Transaction, error)
}
