package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/fortuna/ledger-engine/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository implements the ledger store (C2) and query engine
// (C3) against PostgreSQL. It is the hard core: every mutating method runs
// its repair inside one serializable transaction, issuing the bulk repair
// as a single parameterized statement per phase rather than row-by-row.
//
// The teacher drives its SQL through sqlc-generated Queries; no generated
// package ships with this component, so the statements below are issued
// directly against pool/tx, by hand.
type TransactionRepository struct {
	pool  *pgxpool.Pool
	clock func() time.Time
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool, clock: time.Now}
}

// Insert persists tx with an assigned id, created_at, updated_at, and the
// correct cumulative_delta, then repairs every existing row of the same
// owner whose ordering key is strictly greater.
func (r *TransactionRepository) Insert(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	dbTx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, storageFault(err)
	}
	defer dbTx.Rollback(ctx)

	now := r.clock().UTC()

	var previousCumulative pgtype.Numeric
	err = dbTx.QueryRow(ctx, `
		SELECT cumulative_delta FROM transactions
		WHERE owner_id = $1 AND (date, created_at) < ($2, $3)
		ORDER BY date DESC, created_at DESC
		LIMIT 1`,
		t.OwnerID, t.Date, now,
	).Scan(&previousCumulative)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, classifyWriteError(err)
	}
	prev := pgNumericToDecimal(previousCumulative)

	amount, err := decimalToPgNumeric(t.Amount)
	if err != nil {
		return nil, storageFault(err)
	}
	signedAmount, err := decimalToPgNumeric(t.SignedAmount)
	if err != nil {
		return nil, storageFault(err)
	}
	cumulativeDelta, err := decimalToPgNumeric(prev.Add(t.SignedAmount))
	if err != nil {
		return nil, storageFault(err)
	}

	var id int32
	err = dbTx.QueryRow(ctx, `
		INSERT INTO transactions (
			owner_id, kind, amount, signed_amount, cumulative_delta, date,
			subject, notes, payment_method, category_id, group_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING id`,
		t.OwnerID, string(t.Kind), amount, signedAmount, cumulativeDelta, t.Date,
		t.Subject, textOrNil(t.Notes), string(t.PaymentMethod), int32OrNil(t.CategoryID), int32OrNil(t.GroupID),
		now,
	).Scan(&id)
	if err != nil {
		return nil, classifyWriteError(err)
	}

	if _, err := dbTx.Exec(ctx, `
		UPDATE transactions
		SET cumulative_delta = cumulative_delta + $3, updated_at = $4
		WHERE owner_id = $1 AND id <> $2 AND (date, created_at) > ($5, $6)`,
		t.OwnerID, id, signedAmount, now, t.Date, now,
	); err != nil {
		return nil, classifyWriteError(err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, classifyWriteError(err)
	}

	result := *t
	result.ID = id
	result.CumulativeDelta = prev.Add(t.SignedAmount)
	result.CreatedAt = now
	result.UpdatedAt = now
	return &result, nil
}

// Update applies new over the row identified by new.ID, preserving
// owner_id and created_at from the existing row, and repairs
// cumulative_delta on every affected row per the date-move algorithm.
func (r *TransactionRepository) Update(ctx context.Context, new *domain.Transaction) (*domain.Transaction, error) {
	dbTx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, storageFault(err)
	}
	defer dbTx.Rollback(ctx)

	old, err := scanTransactionRow(dbTx.QueryRow(ctx, selectByIDForUpdateSQL, new.ID))
	if err != nil {
		return nil, err
	}

	now := r.clock().UTC()
	delta := new.SignedAmount.Sub(old.SignedAmount)
	dateChanged := !sameDate(new.Date, old.Date)
	amountChanged := !delta.IsZero()

	var newCumulative = old.CumulativeDelta
	switch {
	case !dateChanged && !amountChanged:
		// row updated in place, cumulative_delta untouched
	case !dateChanged && amountChanged:
		newCumulative = old.CumulativeDelta.Add(delta)
		signedAmount, err := decimalToPgNumeric(delta)
		if err != nil {
			return nil, storageFault(err)
		}
		if _, err := dbTx.Exec(ctx, `
			UPDATE transactions
			SET cumulative_delta = cumulative_delta + $3, updated_at = $4
			WHERE owner_id = $1 AND id <> $2 AND (date, created_at) > ($5, $6)`,
			old.OwnerID, old.ID, signedAmount, now, old.Date, old.CreatedAt,
		); err != nil {
			return nil, classifyWriteError(err)
		}
	default:
		minDate, maxDate := old.Date, new.Date
		if old.Date.After(new.Date) {
			minDate, maxDate = new.Date, old.Date
		}

		var previousCumulative pgtype.Numeric
		if new.Date.After(old.Date) {
			// forward move: no query needed
			prev := old.CumulativeDelta.Sub(old.SignedAmount)
			previousCumulative, err = decimalToPgNumeric(prev)
			if err != nil {
				return nil, storageFault(err)
			}
		} else {
			err = dbTx.QueryRow(ctx, `
				SELECT cumulative_delta FROM transactions
				WHERE owner_id = $1 AND id <> $2 AND (date, created_at) < ($3, $4)
				ORDER BY date DESC, created_at DESC
				LIMIT 1`,
				old.OwnerID, old.ID, new.Date, old.CreatedAt,
			).Scan(&previousCumulative)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, classifyWriteError(err)
			}
		}
		prev := pgNumericToDecimal(previousCumulative)
		newCumulative = prev.Add(new.SignedAmount)

		newSignedAmount, err := decimalToPgNumeric(new.SignedAmount)
		if err != nil {
			return nil, storageFault(err)
		}
		if _, err := dbTx.Exec(ctx, `
			UPDATE transactions
			SET cumulative_delta = cumulative_delta + $3, updated_at = $4
			WHERE owner_id = $1 AND id <> $2 AND date BETWEEN $5 AND $6`,
			old.OwnerID, old.ID, newSignedAmount, now, minDate, maxDate,
		); err != nil {
			return nil, classifyWriteError(err)
		}

		if !delta.IsZero() {
			deltaNum, err := decimalToPgNumeric(delta)
			if err != nil {
				return nil, storageFault(err)
			}
			if _, err := dbTx.Exec(ctx, `
				UPDATE transactions
				SET cumulative_delta = cumulative_delta + $3, updated_at = $4
				WHERE owner_id = $1 AND id <> $2 AND date > $5`,
				old.OwnerID, old.ID, deltaNum, now, maxDate,
			); err != nil {
				return nil, classifyWriteError(err)
			}
		}
	}

	amount, err := decimalToPgNumeric(new.Amount)
	if err != nil {
		return nil, storageFault(err)
	}
	signedAmount, err := decimalToPgNumeric(new.SignedAmount)
	if err != nil {
		return nil, storageFault(err)
	}
	cumulativeDelta, err := decimalToPgNumeric(newCumulative)
	if err != nil {
		return nil, storageFault(err)
	}

	_, err = dbTx.Exec(ctx, `
		UPDATE transactions SET
			kind = $2, amount = $3, signed_amount = $4, cumulative_delta = $5,
			date = $6, subject = $7, notes = $8, payment_method = $9,
			category_id = $10, group_id = $11, updated_at = $12
		WHERE id = $1`,
		old.ID, string(new.Kind), amount, signedAmount, cumulativeDelta,
		new.Date, new.Subject, textOrNil(new.Notes), string(new.PaymentMethod),
		int32OrNil(new.CategoryID), int32OrNil(new.GroupID), now,
	)
	if err != nil {
		return nil, classifyWriteError(err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, classifyWriteError(err)
	}

	result := *new
	result.OwnerID = old.OwnerID
	result.CreatedAt = old.CreatedAt
	result.UpdatedAt = now
	result.CumulativeDelta = newCumulative
	return &result, nil
}

// Delete removes the row and decrements cumulative_delta on every row
// strictly after it, in one CTE-based statement.
func (r *TransactionRepository) Delete(ctx context.Context, id int32) error {
	dbTx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return storageFault(err)
	}
	defer dbTx.Rollback(ctx)

	var deletedCount int
	err = dbTx.QueryRow(ctx, `
		WITH deleted AS (
			DELETE FROM transactions WHERE id = $1
			RETURNING owner_id, date, created_at, signed_amount
		), repaired AS (
			UPDATE transactions t
			SET cumulative_delta = t.cumulative_delta - d.signed_amount, updated_at = now()
			FROM deleted d
			WHERE t.owner_id = d.owner_id AND (t.date, t.created_at) > (d.date, d.created_at)
			RETURNING t.id
		)
		SELECT (SELECT count(*) FROM deleted)::int`,
		id,
	).Scan(&deletedCount)
	if err != nil {
		return classifyWriteError(err)
	}
	if deletedCount == 0 {
		return domain.ErrNotFound
	}

	if err := dbTx.Commit(ctx); err != nil {
		return classifyWriteError(err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int32) (*domain.Transaction, error) {
	t, err := scanTransactionRow(r.pool.QueryRow(ctx, selectByIDSQL, id))
	if err != nil {
		return nil, err
	}
	return t, nil
}

const transactionColumns = `
	id, owner_id, kind, amount, signed_amount, cumulative_delta, date,
	subject, notes, payment_method, category_id, group_id, created_at, updated_at`

const selectByIDSQL = `SELECT` + transactionColumns + ` FROM transactions WHERE id = $1`

// selectByIDForUpdateSQL locks the row within the running serializable
// transaction; under SSI the lock is advisory for readability, conflicts
// are still detected by the engine at commit time.
const selectByIDForUpdateSQL = `SELECT` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`

func scanTransactionRow(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var amount, signedAmount, cumulativeDelta pgtype.Numeric
	var notes pgtype.Text
	var categoryID, groupID pgtype.Int4
	var kind, paymentMethod string

	err := row.Scan(
		&t.ID, &t.OwnerID, &kind, &amount, &signedAmount, &cumulativeDelta, &t.Date,
		&t.Subject, &notes, &paymentMethod, &categoryID, &groupID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageFault(err)
	}

	t.Kind = domain.TransactionKind(kind)
	t.PaymentMethod = domain.PaymentMethod(paymentMethod)
	t.Amount = pgNumericToDecimal(amount)
	t.SignedAmount = pgNumericToDecimal(signedAmount)
	t.CumulativeDelta = pgNumericToDecimal(cumulativeDelta)
	t.Notes = nilableText(notes)
	t.CategoryID = nilableInt32(categoryID)
	t.GroupID = nilableInt32(groupID)
	return &t, nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
