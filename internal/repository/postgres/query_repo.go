package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fortuna/ledger-engine/internal/domain"
)

// ListAll is an administrative fetch over every owner's rows, ordered
// date desc, created_at desc.
func (r *TransactionRepository) ListAll(ctx context.Context) ([]*domain.Transaction, error) {
	return r.queryRows(ctx, `SELECT`+transactionColumns+` FROM transactions ORDER BY date DESC, created_at DESC`)
}

func (r *TransactionRepository) ListByOwner(ctx context.Context, ownerID int32) ([]*domain.Transaction, error) {
	return r.queryRows(ctx, `SELECT`+transactionColumns+` FROM transactions WHERE owner_id = $1 ORDER BY date DESC, created_at DESC`, ownerID)
}

func (r *TransactionRepository) ListByOwnerAndKind(ctx context.Context, ownerID int32, kind domain.TransactionKind) ([]*domain.Transaction, error) {
	return r.queryRows(ctx, `SELECT`+transactionColumns+` FROM transactions WHERE owner_id = $1 AND kind = $2 ORDER BY date DESC, created_at DESC`, ownerID, string(kind))
}

func (r *TransactionRepository) ListByOwnerAndDateRange(ctx context.Context, ownerID int32, from, to time.Time) ([]*domain.Transaction, error) {
	if from.After(to) {
		return nil, domain.ErrInvalidDateRange
	}
	return r.queryRows(ctx, `SELECT`+transactionColumns+` FROM transactions WHERE owner_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date DESC, created_at DESC`, ownerID, from, to)
}

// ListByOwnerAndGroup is a supplemented convenience read derived from the
// same filtered-query path as the rest of C3.
func (r *TransactionRepository) ListByOwnerAndGroup(ctx context.Context, ownerID, groupID int32) ([]*domain.Transaction, error) {
	return r.queryRows(ctx, `SELECT`+transactionColumns+` FROM transactions WHERE owner_id = $1 AND group_id = $2 ORDER BY date DESC, created_at DESC`, ownerID, groupID)
}

// CountByOwner returns the owner's row count without materializing rows.
func (r *TransactionRepository) CountByOwner(ctx context.Context, ownerID int32) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM transactions WHERE owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, domain.NewStorageFault(err)
	}
	return count, nil
}

// LastRow returns the owner's rightmost row under the ordering key, or nil
// if the owner has no transactions. It is C4's second read.
func (r *TransactionRepository) LastRow(ctx context.Context, ownerID int32) (*domain.Transaction, error) {
	t, err := scanTransactionRow(r.pool.QueryRow(ctx, `
		SELECT`+transactionColumns+`
		FROM transactions WHERE owner_id = $1
		ORDER BY date DESC, created_at DESC, id DESC
		LIMIT 1`, ownerID))
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// ListByOwnerFiltered applies the query options: substring subject match,
// category/payment-method sets, kind, date bounds, and the documented
// sort contract (primary date, secondary sort_by, final tie-break
// created_at, all sharing one direction).
func (r *TransactionRepository) ListByOwnerFiltered(ctx context.Context, ownerID int32, q domain.QueryOptions) ([]*domain.Transaction, error) {
	if q.DateFrom != nil && q.DateTo != nil && q.DateFrom.After(*q.DateTo) {
		return nil, domain.ErrInvalidDateRange
	}

	var b strings.Builder
	b.WriteString(`SELECT`)
	b.WriteString(transactionColumns)
	b.WriteString(` FROM transactions WHERE owner_id = $1`)
	args := []interface{}{ownerID}

	if q.Subject != nil && *q.Subject != "" {
		args = append(args, "%"+*q.Subject+"%")
		fmt.Fprintf(&b, " AND subject ILIKE $%d", len(args))
	}
	if len(q.CategoryIDs) > 0 {
		args = append(args, q.CategoryIDs)
		fmt.Fprintf(&b, " AND category_id = ANY($%d)", len(args))
	}
	if len(q.PaymentMethods) > 0 {
		methods := make([]string, len(q.PaymentMethods))
		for i, m := range q.PaymentMethods {
			methods[i] = string(m)
		}
		args = append(args, methods)
		fmt.Fprintf(&b, " AND payment_method = ANY($%d)", len(args))
	}
	if q.Kind != nil {
		args = append(args, string(*q.Kind))
		fmt.Fprintf(&b, " AND kind = $%d", len(args))
	}
	if q.DateFrom != nil {
		args = append(args, *q.DateFrom)
		fmt.Fprintf(&b, " AND date >= $%d", len(args))
	}
	if q.DateTo != nil {
		args = append(args, *q.DateTo)
		fmt.Fprintf(&b, " AND date <= $%d", len(args))
	}

	direction := "DESC"
	if q.SortAscending {
		direction = "ASC"
	}

	b.WriteString(" ORDER BY date " + direction)
	if col := sortColumn(q.SortBy); col != "" {
		b.WriteString(", " + col + " " + direction)
	}
	b.WriteString(", created_at " + direction)

	return r.queryRows(ctx, b.String(), args...)
}

func sortColumn(f domain.SortField) string {
	switch f {
	case domain.SortBySubject:
		return "subject"
	case domain.SortByPaymentMethod:
		return "payment_method"
	case domain.SortByCategory:
		return "category_id"
	case domain.SortByAmount:
		return "amount"
	default:
		return ""
	}
}

func (r *TransactionRepository) queryRows(ctx context.Context, sql string, args ...interface{}) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, domain.NewStorageFault(err)
	}
	defer rows.Close()

	var result []*domain.Transaction
	for rows.Next() {
		t, err := scanTransactionRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageFault(err)
	}
	return result, nil
}
