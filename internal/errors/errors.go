// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	// ErrCompanyNotFound means neither the exact tier nor the model-assisted
	// fallback matched the query. This is a normal, reportable outcome.
	ErrCompanyNotFound = errors.New("company not found")

	// ErrCatalogMissing means the catalog file does not exist.
	ErrCatalogMissing = errors.New("catalog file missing")

	// ErrCatalogMalformed means the catalog file exists but did not parse
	// or failed validation. No partial catalogs are accepted.
	ErrCatalogMalformed = errors.New("catalog file malformed")

	// ErrDataUnavailable means the market data gateway returned an empty,
	// erroring, or too-short series.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrModelUnreachable means a transport-level failure talking to the
	// language model.
	ErrModelUnreachable = errors.New("model unreachable")
)

// CatalogError describes why the company catalog could not be loaded.
// It wraps ErrCatalogMissing or ErrCatalogMalformed so callers can
// distinguish the two for user-facing messaging.
type CatalogError struct {
	Path string
	Kind error // ErrCatalogMissing or ErrCatalogMalformed
	Err  error
}

func (e *CatalogError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog %s: %v: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("catalog %s: %v", e.Path, e.Kind)
}

func (e *CatalogError) Unwrap() error {
	return e.Kind
}

// NewCatalogError creates a new CatalogError.
func NewCatalogError(path string, kind, err error) *CatalogError {
	return &CatalogError{Path: path, Kind: kind, Err: err}
}

// DataError describes a market data failure for one symbol. Matches
// ErrDataUnavailable through errors.Is.
type DataError struct {
	Symbol string
	Reason string
	Err    error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("market data [%s]: %s: %v", e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("market data [%s]: %s", e.Symbol, e.Reason)
}

func (e *DataError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrDataUnavailable
}

func (e *DataError) Is(target error) bool {
	return target == ErrDataUnavailable
}

// NewDataError creates a new DataError.
func NewDataError(symbol, reason string, err error) *DataError {
	return &DataError{Symbol: symbol, Reason: reason, Err: err}
}

// ModelError describes a transport failure talking to the model client.
// Matches ErrModelUnreachable through errors.Is.
type ModelError struct {
	Operation string
	Err       error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model [%s]: %v", e.Operation, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

func (e *ModelError) Is(target error) bool {
	return target == ErrModelUnreachable
}

// NewModelError creates a new ModelError.
func NewModelError(operation string, err error) *ModelError {
	return &ModelError{Operation: operation, Err: err}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
