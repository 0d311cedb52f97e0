// Package balance implements the balance service (C4): deriving
// (initial_balance, cumulative_delta, current_balance) for an owner.
package balance

import (
	"context"

	"github.com/fortuna/ledger-engine/internal/domain"
	"github.com/fortuna/ledger-engine/internal/repository"
	"github.com/shopspring/decimal"
)

// Service composes one read of the owner plus one read of the owner's
// last ledger row.
type Service struct {
	owners domain.OwnerRepository
	ledger repository.Query
}

func NewService(owners domain.OwnerRepository, ledger repository.Query) *Service {
	return &Service{owners: owners, ledger: ledger}
}

// GetBalance fails with domain.ErrOwnerNotFound if the owner does not
// exist.
func (s *Service) GetBalance(ctx context.Context, ownerID int32) (domain.Balance, error) {
	owner, err := s.owners.GetByID(ownerID)
	if err != nil {
		return domain.Balance{}, err
	}

	last, err := s.ledger.LastRow(ctx, ownerID)
	if err != nil {
		return domain.Balance{}, err
	}

	cumulativeDelta := decimal.Zero
	if last != nil {
		cumulativeDelta = last.CumulativeDelta
	}

	return domain.Balance{
		InitialBalance:  owner.InitialBalance,
		CumulativeDelta: cumulativeDelta,
		CurrentBalance:  owner.InitialBalance.Add(cumulativeDelta),
	}, nil
}

// SetInitialBalance updates the owner's initial_balance. The ledger's
// cumulative_delta values are untouched; current_balance shifts uniformly
// because it is derived, never stored.
func (s *Service) SetInitialBalance(ctx context.Context, ownerID int32, value decimal.Decimal) (*domain.Owner, error) {
	return s.owners.SetInitialBalance(ownerID, value.Round(2))
}
