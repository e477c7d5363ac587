package keys

import "fmt"

// MalformedKeyError indicates that an encoded key could not be imported.
type MalformedKeyError struct {
	Reason string
}

func (e *MalformedKeyError) Error() string {
	return fmt.Sprintf("malformed key: %s", e.Reason)
}

// KeyNotFoundError indicates that no key exists for the requested ID.
type KeyNotFoundError struct {
	ID string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("key not found: %s", e.ID)
}

// helper functions for error handling
func IsMalformedKeyError(err error) bool {
	_, ok := err.(*MalformedKeyError)
	return ok
}
func IsKeyNotFoundError(err error) bool {
	_, ok := err.(*KeyNotFoundError)
	return ok
}

// factory functions for key-related errors
func NewMalformedKeyError(reason string) error {
	return &MalformedKeyError{Reason: reason}
}
func NewKeyNotFoundError(id string) error {
	return &KeyNotFoundError{ID: id}
}
