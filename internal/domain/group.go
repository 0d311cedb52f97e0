package domain

import (
	"strings"
	"time"
)

// TransactionGroup is owned by exactly one owner. Deleting a group nulls
// the group_id of every transaction that referenced it; it does not
// cascade-delete those rows.
type TransactionGroup struct {
	ID          int32     `json:"id"`
	OwnerID     int32     `json:"ownerId"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewTransactionGroup validates and constructs a TransactionGroup ready for
// insertion.
func NewTransactionGroup(ownerID int32, name string, description *string) (*TransactionGroup, error) {
	var errs []error

	if ownerID <= 0 {
		errs = append(errs, ErrInvalidOwnerID)
	}

	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" || len(trimmedName) > MaxGroupNameLength {
		errs = append(errs, ErrInvalidName)
	}

	if len(errs) > 0 {
		return nil, &ValidationErrors{Errs: errs}
	}

	g := &TransactionGroup{OwnerID: ownerID, Name: trimmedName}
	if description != nil {
		if d := strings.TrimSpace(*description); d != "" {
			g.Description = &d
		}
	}
	return g, nil
}

// GroupRepository is the minimal read/existence/delete contract the ledger
// core needs of its groups; group CRUD beyond this is an external
// collaborator (see Non-goals).
type GroupRepository interface {
	Exists(groupID int32) (bool, error)
	GetByID(groupID int32) (*TransactionGroup, error)
	// Delete removes the group and nulls group_id on every referencing
	// transaction, without touching cumulative_delta.
	Delete(groupID int32) error
}
