package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransactionGroup_Success(t *testing.T) {
	g, err := NewTransactionGroup(7, "  Vacation  ", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(7), g.OwnerID)
	assert.Equal(t, "Vacation", g.Name)
	assert.Nil(t, g.Description)
}

func TestNewTransactionGroup_InvalidOwner(t *testing.T) {
	_, err := NewTransactionGroup(0, "Vacation", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOwnerID)
}

func TestNewTransactionGroup_EmptyName(t *testing.T) {
	_, err := NewTransactionGroup(1, "  ", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidName)
}
