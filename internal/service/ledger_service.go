// Package service implements the ledger service (C5): a thin orchestrator
// over validation, existence checks, and the store.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/fortuna/ledger-engine/internal/domain"
	"github.com/fortuna/ledger-engine/internal/repository"
	"github.com/fortuna/ledger-engine/internal/retry"
	"github.com/rs/zerolog/log"
)

// LedgerService orchestrates writes and reads over the transaction store.
// It never touches SQL directly; every mutating call runs through retry.Do
// so conflicts are retried per the documented policy.
type LedgerService struct {
	store      repository.Store
	owners     domain.OwnerRepository
	categories domain.CategoryRepository
	groups     domain.GroupRepository
	retryPolicy retry.Policy
	clock      func() time.Time
}

func NewLedgerService(store repository.Store, owners domain.OwnerRepository, categories domain.CategoryRepository, groups domain.GroupRepository) *LedgerService {
	return &LedgerService{
		store:       store,
		owners:      owners,
		categories:  categories,
		groups:      groups,
		retryPolicy: retry.DefaultPolicy,
		clock:       time.Now,
	}
}

// WithRetryPolicy overrides the default retry tuning, e.g. from
// configuration loaded at startup.
func (s *LedgerService) WithRetryPolicy(p retry.Policy) *LedgerService {
	s.retryPolicy = p
	return s
}

// logWriteFailure logs a failed unit-of-work at the level the failure
// warrants: Warn for a conflict that survived every retry, Error for a
// domain.StorageFault. Any other failure (lookups, timeouts, cancellation)
// is returned without being logged here.
func logWriteFailure(op string, err error) {
	if errors.Is(err, domain.ErrConflict) {
		log.Warn().Err(err).Str("op", op).Msg("ledger service: unit-of-work failed after exhausting retries")
		return
	}
	var fault *domain.StorageFault
	if errors.As(err, &fault) {
		log.Error().Err(err).Str("op", op).Msg("ledger service: storage fault")
	}
}

// CreateTransaction validates in, confirms the owner exists, derives
// signed_amount, and invokes the store inside one serializable
// unit-of-work.
func (s *LedgerService) CreateTransaction(ctx context.Context, in domain.NewTransactionInput) (*domain.Transaction, error) {
	candidate, err := domain.NewTransaction(in, s.clock)
	if err != nil {
		return nil, err
	}

	if exists, err := s.owners.Exists(in.OwnerID); err != nil {
		return nil, err
	} else if !exists {
		return nil, domain.ErrOwnerNotFound
	}

	if in.CategoryID != nil {
		if exists, err := s.categories.Exists(*in.CategoryID); err != nil {
			return nil, err
		} else if !exists {
			return nil, domain.ErrCategoryNotFound
		}
	}
	if in.GroupID != nil {
		if exists, err := s.groups.Exists(*in.GroupID); err != nil {
			return nil, err
		} else if !exists {
			return nil, domain.ErrGroupNotFound
		}
	}

	var result *domain.Transaction
	err = retry.Do(ctx, s.retryPolicy, func(ctx context.Context) error {
		persisted, err := s.store.Insert(ctx, candidate)
		if err != nil {
			return err
		}
		result = persisted
		return nil
	})
	if err != nil {
		logWriteFailure("CreateTransaction", err)
		return nil, err
	}
	return result, nil
}

// UpdateTransaction validates the new field set and applies it over the
// row identified by id. owner_id and created_at are preserved by the store
// regardless of what in carries.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id int32, in domain.NewTransactionInput) (*domain.Transaction, error) {
	candidate, err := domain.NewTransaction(in, s.clock)
	if err != nil {
		return nil, err
	}
	candidate.ID = id

	if in.CategoryID != nil {
		if exists, err := s.categories.Exists(*in.CategoryID); err != nil {
			return nil, err
		} else if !exists {
			return nil, domain.ErrCategoryNotFound
		}
	}
	if in.GroupID != nil {
		if exists, err := s.groups.Exists(*in.GroupID); err != nil {
			return nil, err
		} else if !exists {
			return nil, domain.ErrGroupNotFound
		}
	}

	var result *domain.Transaction
	err = retry.Do(ctx, s.retryPolicy, func(ctx context.Context) error {
		persisted, err := s.store.Update(ctx, candidate)
		if err != nil {
			return err
		}
		result = persisted
		return nil
	})
	if err != nil {
		logWriteFailure("UpdateTransaction", err)
		return nil, err
	}
	return result, nil
}

// DeleteTransaction removes the row identified by id. Authorization
// (ownership by the current principal) is expected from the calling
// layer; the store performs no authorization itself.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int32) error {
	err := retry.Do(ctx, s.retryPolicy, func(ctx context.Context) error {
		return s.store.Delete(ctx, id)
	})
	if err != nil {
		logWriteFailure("DeleteTransaction", err)
	}
	return err
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int32) (*domain.Transaction, error) {
	return s.store.GetByID(ctx, id)
}

func (s *LedgerService) ListAll(ctx context.Context) ([]*domain.Transaction, error) {
	return s.store.ListAll(ctx)
}

func (s *LedgerService) ListByOwner(ctx context.Context, ownerID int32) ([]*domain.Transaction, domain.Summary, error) {
	rows, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.Summary{}, err
	}
	return rows, domain.Summarize(rows), nil
}

func (s *LedgerService) ListByOwnerFiltered(ctx context.Context, ownerID int32, q domain.QueryOptions) ([]*domain.Transaction, domain.Summary, error) {
	rows, err := s.store.ListByOwnerFiltered(ctx, ownerID, q)
	if err != nil {
		return nil, domain.Summary{}, err
	}
	return rows, domain.Summarize(rows), nil
}

func (s *LedgerService) ListByOwnerAndKind(ctx context.Context, ownerID int32, kind domain.TransactionKind) ([]*domain.Transaction, domain.Summary, error) {
	rows, err := s.store.ListByOwnerAndKind(ctx, ownerID, kind)
	if err != nil {
		return nil, domain.Summary{}, err
	}
	return rows, domain.Summarize(rows), nil
}

func (s *LedgerService) ListByOwnerAndDateRange(ctx context.Context, ownerID int32, from, to time.Time) ([]*domain.Transaction, domain.Summary, error) {
	rows, err := s.store.ListByOwnerAndDateRange(ctx, ownerID, from, to)
	if err != nil {
		return nil, domain.Summary{}, err
	}
	return rows, domain.Summarize(rows), nil
}

func (s *LedgerService) ListByOwnerAndGroup(ctx context.Context, ownerID, groupID int32) ([]*domain.Transaction, domain.Summary, error) {
	rows, err := s.store.ListByOwnerAndGroup(ctx, ownerID, groupID)
	if err != nil {
		return nil, domain.Summary{}, err
	}
	return rows, domain.Summarize(rows), nil
}

func (s *LedgerService) CountByOwner(ctx context.Context, ownerID int32) (int64, error) {
	return s.store.CountByOwner(ctx, ownerID)
}

// DeleteGroup enforces the SET-NULL policy on a group deletion.
func (s *LedgerService) DeleteGroup(groupID int32) error {
	return s.groups.Delete(groupID)
}

// CheckCategoryDeletable enforces the RESTRICT policy: it fails with
// domain.ErrCategoryInUse while any transaction still references the
// category. Category deletion itself is an external collaborator's
// responsibility once this check passes.
func (s *LedgerService) CheckCategoryDeletable(categoryID int32) error {
	inUse, err := s.categories.HasTransactions(categoryID)
	if err != nil {
		return err
	}
	if inUse {
		return domain.ErrCategoryInUse
	}
	return nil
}
