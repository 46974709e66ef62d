package errors

import (
	"errors"
	"fmt"
)

var (
	// Record store errors
	ErrRecordNotFound     = errors.New("record not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrEmailTaken         = errors.New("email already in use")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrQueryExecution     = errors.New("query execution failed")

	// Session provider errors
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrFederatedUnavailable = errors.New("federated sign-in is not configured")
	ErrNotSignedIn          = errors.New("not signed in")
	ErrSessionNotFound      = errors.New("session not found")

	// Dashboard errors
	ErrInvalidDateRange = errors.New("invalid date range")
)

// AuthError is a sign-in, sign-up or sign-out failure. Message is safe to
// show to the user as is.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError builds an AuthError whose message is taken from err.
func NewAuthError(op string, err error) *AuthError {
	return &AuthError{Op: op, Message: err.Error(), Err: err}
}

// StoreError is a recoverable record store failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err unless it already is a StoreError.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// Message returns the text to show a user for err.
func Message(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Message
	}
	var se *StoreError
	if errors.As(err, &se) {
		if errors.Is(se, ErrRecordNotFound) {
			return "That entry no longer exists."
		}
		return "Could not reach the record store, showing the last loaded data."
	}
	return err.Error()
}
