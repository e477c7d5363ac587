package access

import "fmt"

// SubjectNotFoundError indicates that no subject is registered for an ID.
type SubjectNotFoundError struct {
	ID string
}

func (e *SubjectNotFoundError) Error() string {
	return fmt.Sprintf("subject not found: %s", e.ID)
}

// SubjectAlreadyExistsError indicates an attempt to register a duplicate subject.
type SubjectAlreadyExistsError struct {
	ID string
}

func (e *SubjectAlreadyExistsError) Error() string {
	return fmt.Sprintf("subject already exists: %s", e.ID)
}

// helper functions for error handling
func IsSubjectNotFoundError(err error) bool {
	_, ok := err.(*SubjectNotFoundError)
	return ok
}
func IsSubjectAlreadyExistsError(err error) bool {
	_, ok := err.(*SubjectAlreadyExistsError)
	return ok
}

// factory functions for subject-related errors
func NewSubjectNotFoundError(id string) error {
	return &SubjectNotFoundError{ID: id}
}
func NewSubjectAlreadyExistsError(id string) error {
	return &SubjectAlreadyExistsError{ID: id}
}
