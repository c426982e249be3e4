package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by repositories when the requested row does not exist
	ErrNotFound = errors.New("not found")

	// ErrInsufficientData marks a company-period that cannot be scored
	ErrInsufficientData = errors.New("insufficient data")

	// ErrPersistenceUnavailable aborts a batch run: the store stopped answering
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

// MalformedRecordError reports a structurally invalid input record
type MalformedRecordError struct {
	Field   string
	Message string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record: %s: %s", e.Field, e.Message)
}
