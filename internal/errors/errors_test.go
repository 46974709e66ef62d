package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthError(t *testing.T) {
	err := NewAuthError("sign in", ErrInvalidCredentials)

	var ae *AuthError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &ae))
	assert.Equal(t, "invalid email or password", ae.Message)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "invalid email or password", Message(err))
}

func TestStoreError(t *testing.T) {
	err := NewStoreError("update", ErrRecordNotFound)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	// wrapping twice keeps the first op
	again := NewStoreError("sync", err)
	var se *StoreError
	assert.True(t, errors.As(again, &se))
	assert.Equal(t, "update", se.Op)

	assert.Nil(t, NewStoreError("noop", nil))
	assert.Equal(t, "That entry no longer exists.", Message(err))
	assert.Contains(t, Message(NewStoreError("query", ErrStorageUnavailable)), "last loaded data")
}
