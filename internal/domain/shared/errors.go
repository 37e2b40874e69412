// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrAlreadyActive   = errors.New("already active")

	// Concurrency errors
	ErrContention     = errors.New("ledger contention")
	ErrOptimisticLock = errors.New("optimistic lock failure")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")

	// Reference data errors
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "progress", "achievement", "battle"
	Op      string // Operation that failed, e.g., "ApplyReward", "Evaluate"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Ledger errors
var (
	// ErrLedgerContention: a transaction could not commit within its bounded
	// retries. Recoverable by caller-level retry; the engine never retries on
	// the caller's behalf to avoid duplicate rewards.
	ErrLedgerContention = NewDomainError("ledger", "Transaction", ErrContention, "transaction could not commit after bounded retries")

	ErrProgressNotFound = NewDomainError("ledger", "Get", ErrNotFound, "progress record not found")
)

// Progression errors
var (
	// ErrInvalidMetric: IncrementCounter was called with an unrecognized
	// metric name. Logged and treated as a no-op; unrelated counters are
	// never touched.
	ErrInvalidMetric = NewDomainError("progress", "IncrementCounter", ErrInvalidInput, "unrecognized counter metric")
)

// Achievement errors
var (
	ErrAchievementCatalogUnavailable = NewDomainError("achievement", "Load", ErrCatalogUnavailable, "achievement catalog failed to load")
	ErrUnknownAchievement            = NewDomainError("achievement", "Find", ErrNotFound, "unknown achievement ID")
)

// Battle errors
var (
	// ErrBattleAlreadyActive: the user already has a battle in progress.
	// Surfaced to the UI; no state mutation occurs.
	ErrBattleAlreadyActive = NewDomainError("battle", "Start", ErrAlreadyActive, "a battle is already in progress for this user")

	ErrOpponentNotFound            = NewDomainError("battle", "Start", ErrNotFound, "unknown opponent ID")
	ErrOpponentCatalogUnavailable  = NewDomainError("battle", "Load", ErrCatalogUnavailable, "opponent catalog failed to load")
	ErrBattleNotInProgress         = NewDomainError("battle", "Resolve", ErrInvalidState, "battle is not in progress")
	ErrBattleAlreadyResolved       = NewDomainError("battle", "Resolve", ErrStateTransition, "battle already resolved")
	ErrBattlesDisabled             = NewDomainError("battle", "Start", ErrServiceUnavailable, "battles are disabled")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsContention checks if the error is a ledger contention error.
func IsContention(err error) bool {
	return errors.Is(err, ErrContention)
}

// IsCatalogUnavailable checks if the error is a soft catalog-load failure.
// The system degrades to disabled achievements/battles rather than crashing.
func IsCatalogUnavailable(err error) bool {
	return errors.Is(err, ErrCatalogUnavailable)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue)
}

// IsRetryable checks if the operation can be retried by the caller.
// Contention is retryable at the caller level only; retrying inside the
// engine would risk duplicate rewards.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrContention)
}
