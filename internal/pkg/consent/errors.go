package consent

import (
	"errors"
	"strings"
)

// RequiredFields are the claim fields that must be present and non-empty.
var RequiredFields = []string{"consent_session_id", "consent_version", "accepted_at"}

// ErrDuplicateSubmission means the consent_session_id was already recorded.
// Client retries produce it routinely.
var ErrDuplicateSubmission = errors.New("duplicate consent_session_id")

// ValidationError is returned before any I/O when required fields are missing
// or longer than their columns allow.
type ValidationError struct {
	Missing []string
	TooLong []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) == 0 && len(e.TooLong) > 0 {
		return "fields too long: " + strings.Join(e.TooLong, ", ")
	}
	return "missing required fields: " + strings.Join(RequiredFields, ", ")
}

// StorageFailure wraps a datastore error other than a duplicate key.
type StorageFailure struct {
	Err error
}

func (e *StorageFailure) Error() string {
	return e.Err.Error()
}

func (e *StorageFailure) Unwrap() error {
	return e.Err
}
