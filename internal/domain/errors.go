package domain

import (
	"errors"
	"fmt"
)

// Validation errors (C1/C5): a construction or orchestration call rejected
// its input before any storage call was made.
var (
	ErrInvalidName          = errors.New("name is invalid")
	ErrInvalidEmail         = errors.New("email is invalid")
	ErrInvalidSubject       = errors.New("subject is invalid")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidDate          = errors.New("date is out of the supported range")
	ErrInvalidDateRange     = errors.New("date range start is after its end")
	ErrInvalidKind          = errors.New("kind is not a recognized transaction kind")
	ErrInvalidPaymentMethod = errors.New("payment method is not recognized")
	ErrInvalidCategoryID    = errors.New("category id must be positive")
	ErrInvalidGroupID       = errors.New("group id must be positive")
	ErrInvalidOwnerID       = errors.New("owner id must be positive")
	ErrInvalidPageSize      = errors.New("page size is out of range")
	ErrInvalidPasswordHash  = errors.New("password hash must not be empty")
)

// Lookup errors (C2/C5): the operation addressed an entity that does not
// exist.
var (
	ErrNotFound         = errors.New("transaction not found")
	ErrOwnerNotFound    = errors.New("owner not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrGroupNotFound    = errors.New("transaction group not found")
)

// Conflict errors (C2, and the C6 retry loop).
var (
	ErrDuplicateEmail = errors.New("email is already registered")
	ErrDuplicateName  = errors.New("name is already in use")
	ErrConflict       = errors.New("operation conflicted with a concurrent write")
	ErrCategoryInUse  = errors.New("category is referenced by existing transactions")
)

// Resource errors (C6): the unit-of-work did not reach a conflict or a
// storage fault, but also did not complete.
var (
	ErrTimeout   = errors.New("storage call exceeded its deadline")
	ErrCancelled = errors.New("storage call was cancelled")
)

// ReferenceKind names the foreign entity a ReferenceNotFoundError points at.
type ReferenceKind string

const (
	ReferenceOwner    ReferenceKind = "owner"
	ReferenceCategory ReferenceKind = "category"
	ReferenceGroup    ReferenceKind = "group"
)

// ReferenceNotFoundError reports that a create or update referenced an
// owner, category, or group that the store could not find, classified from
// the underlying engine's foreign-key violation.
type ReferenceNotFoundError struct {
	Kind ReferenceKind
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("referenced %s not found", e.Kind)
}

// StorageFault wraps any engine-level error that §7 does not otherwise
// classify. It is the only fault kind that carries a free-form message.
type StorageFault struct {
	Message string
	cause   error
}

func NewStorageFault(cause error) *StorageFault {
	msg := "storage fault"
	if cause != nil {
		msg = cause.Error()
	}
	return &StorageFault{Message: msg, cause: cause}
}

func (e *StorageFault) Error() string {
	return fmt.Sprintf("storage fault: %s", e.Message)
}

func (e *StorageFault) Unwrap() error {
	return e.cause
}

// ValidationErrors reports every invariant a single construction call
// violated, per the taxonomy's "non-empty list of validation kinds"
// requirement.
type ValidationErrors struct {
	Errs []error
}

func (e *ValidationErrors) Error() string {
	if len(e.Errs) == 1 {
		return e.Errs[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors: ", len(e.Errs))
	for i, err := range e.Errs {
		if i > 0 {
			msg += "; "
		}
		msg += err.Error()
	}
	return msg
}

func (e *ValidationErrors) Unwrap() []error {
	return e.Errs
}

// Validation constants shared by C1's constructors.
const (
	MaxOwnerNameLength       = 100
	MaxOwnerEmailLength      = 254
	MaxGroupNameLength       = 255
	MaxTransactionSubjectLen = 255
)
