package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferenceNotFoundError(t *testing.T) {
	err := &ReferenceNotFoundError{Kind: ReferenceCategory}
	assert.Contains(t, err.Error(), "category")
}

func TestStorageFault_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	fault := NewStorageFault(cause)
	assert.ErrorIs(t, fault, cause)
	assert.Contains(t, fault.Error(), "connection reset")
}

func TestValidationErrors_UnwrapsAll(t *testing.T) {
	verrs := &ValidationErrors{Errs: []error{ErrInvalidName, ErrInvalidEmail}}
	assert.ErrorIs(t, verrs, ErrInvalidName)
	assert.ErrorIs(t, verrs, ErrInvalidEmail)
	assert.NotErrorIs(t, verrs, ErrInvalidAmount)
}
