package postgres

import (
	"errors"
	"strings"

	"github.com/fortuna/ledger-engine/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// Postgres SQLSTATE codes the store classifies per the failure semantics.
const (
	sqlstateForeignKeyViolation = "23503"
	sqlstateUniqueViolation     = "23505"
	sqlstateSerializationFail   = "40001"
)

// classifyWriteError maps an error coming out of a ledger mutation into
// the documented taxonomy. Foreign-key violations are resolved to a
// ReferenceKind by inspecting the violated constraint's name, since pgx
// surfaces the constraint but not the referenced table directly.
func classifyWriteError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return storageFault(err)
	}

	switch pgErr.Code {
	case sqlstateForeignKeyViolation:
		return &domain.ReferenceNotFoundError{Kind: referenceKindFromConstraint(pgErr.ConstraintName)}
	case sqlstateUniqueViolation:
		return domain.ErrDuplicateName
	case sqlstateSerializationFail:
		log.Debug().Str("constraint", pgErr.ConstraintName).Msg("ledger store: serialization conflict, eligible for retry")
		return domain.ErrConflict
	default:
		return storageFault(pgErr)
	}
}

// storageFault logs the underlying engine error at Error level (faults are
// not retried and not part of the documented §7 taxonomy beyond this
// catch-all) and wraps it in domain.StorageFault.
func storageFault(err error) error {
	log.Error().Err(err).Msg("ledger store: storage fault")
	return domain.NewStorageFault(err)
}

func referenceKindFromConstraint(constraint string) domain.ReferenceKind {
	lower := strings.ToLower(constraint)
	switch {
	case strings.Contains(lower, "owner"):
		return domain.ReferenceOwner
	case strings.Contains(lower, "category"):
		return domain.ReferenceCategory
	case strings.Contains(lower, "group"):
		return domain.ReferenceGroup
	default:
		return domain.ReferenceOwner
	}
}
