package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Owner is the principal a ledger belongs to. It is created exactly once,
// mutated by profile updates, and destroyed on account deletion, which
// cascades to every transaction and group it owns.
type Owner struct {
	ID             int32           `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	PasswordHash   string          `json:"-"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// NewOwner validates and constructs an Owner ready for insertion. CreatedAt
// and UpdatedAt are left zero; the store assigns them.
func NewOwner(name, email, passwordHash string, initialBalance decimal.Decimal) (*Owner, error) {
	var errs []error

	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" || len(trimmedName) > MaxOwnerNameLength {
		errs = append(errs, ErrInvalidName)
	}

	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	if normalizedEmail == "" || len(normalizedEmail) > MaxOwnerEmailLength {
		errs = append(errs, ErrInvalidEmail)
	} else if _, err := mail.ParseAddress(normalizedEmail); err != nil {
		errs = append(errs, ErrInvalidEmail)
	}

	if strings.TrimSpace(passwordHash) == "" {
		errs = append(errs, ErrInvalidPasswordHash)
	}

	if len(errs) > 0 {
		return nil, &ValidationErrors{Errs: errs}
	}

	return &Owner{
		Name:           trimmedName,
		Email:          normalizedEmail,
		PasswordHash:   passwordHash,
		InitialBalance: initialBalance.Round(2),
	}, nil
}

// OwnerRepository is the minimal read/existence contract the ledger core
// needs of its owners; profile CRUD beyond this is an external collaborator
// (see Non-goals).
type OwnerRepository interface {
	Exists(ownerID int32) (bool, error)
	GetByID(ownerID int32) (*Owner, error)
	SetInitialBalance(ownerID int32, value decimal.Decimal) (*Owner, error)
}
