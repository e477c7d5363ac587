package encryption

import "fmt"

// InvalidInputError indicates that a caller passed malformed or missing input.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// InvalidKeyLengthError indicates that a key is not the required 256 bits.
type InvalidKeyLengthError struct {
	Length int
}

func (e *InvalidKeyLengthError) Error() string {
	return fmt.Sprintf("invalid key length: expected %d bytes, got %d", KeyLength, e.Length)
}

// UnsupportedAlgorithmError indicates that a payload declares an algorithm
// this engine does not implement. Treated as payload tampering or version skew.
type UnsupportedAlgorithmError struct {
	Algorithm string
}

func (e *UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("unsupported algorithm: %s", e.Algorithm)
}

// IntegrityFailureError indicates that the authentication tag did not verify.
// This is a security event, not a transient error; the call must not be retried
// with the same inputs.
type IntegrityFailureError struct {
}

func (e *IntegrityFailureError) Error() string {
	return "integrity check failed: authentication tag mismatch"
}

// helper functions for error handling
func IsInvalidInputError(err error) bool {
	_, ok := err.(*InvalidInputError)
	return ok
}
func IsInvalidKeyLengthError(err error) bool {
	_, ok := err.(*InvalidKeyLengthError)
	return ok
}
func IsUnsupportedAlgorithmError(err error) bool {
	_, ok := err.(*UnsupportedAlgorithmError)
	return ok
}
func IsIntegrityFailureError(err error) bool {
	_, ok := err.(*IntegrityFailureError)
	return ok
}

// factory functions for encryption-related errors
func NewInvalidInputError(reason string) error {
	return &InvalidInputError{Reason: reason}
}
func NewInvalidKeyLengthError(length int) error {
	return &InvalidKeyLengthError{Length: length}
}
func NewUnsupportedAlgorithmError(algorithm string) error {
	return &UnsupportedAlgorithmError{Algorithm: algorithm}
}
func NewIntegrityFailureError() error {
	return &IntegrityFailureError{}
}
