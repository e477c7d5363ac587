package documents

import "fmt"

// AccessDeniedError indicates that the access control engine denied the
// operation. The denial has already been audited by the engine.
type AccessDeniedError struct {
	SubjectID  string
	ResourceID string
	Action     string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: subject %s may not %s %s", e.SubjectID, e.Action, e.ResourceID)
}

// DocumentUnavailableError indicates that the document does not exist, has
// been revoked, or has expired. The three cases are deliberately not
// distinguished to the caller.
type DocumentUnavailableError struct {
	ID string
}

func (e *DocumentUnavailableError) Error() string {
	return fmt.Sprintf("document unavailable: %s", e.ID)
}

// StorageError indicates that the backing store failed. The caller may retry
// with backoff; the vault itself never retries.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// helper functions for error handling
func IsAccessDeniedError(err error) bool {
	_, ok := err.(*AccessDeniedError)
	return ok
}
func IsDocumentUnavailableError(err error) bool {
	_, ok := err.(*DocumentUnavailableError)
	return ok
}
func IsStorageError(err error) bool {
	_, ok := err.(*StorageError)
	return ok
}

// factory functions for document-related errors
func NewAccessDeniedError(subjectID, resourceID, action string) error {
	return &AccessDeniedError{SubjectID: subjectID, ResourceID: resourceID, Action: action}
}
func NewDocumentUnavailableError(id string) error {
	return &DocumentUnavailableError{ID: id}
}
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
