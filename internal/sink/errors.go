package sink

import (
	"errors"
	"fmt"
)

var (
	// ErrSpreadsheetNotFound is returned when no spreadsheet matches the configured name
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")

	// ErrNoCredentials is returned when the credentials glob matches no file
	ErrNoCredentials = errors.New("no credentials files found")

	// ErrRowWidth is returned when a row does not have one cell per column
	ErrRowWidth = errors.New("row width does not match columns")
)

// PanicError carries a value recovered from a sink that panicked
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("sink panicked: %v", e.Value)
}
