package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderTransient signals a retryable upstream provider hiccup (e.g. HTTP 502).
	ErrProviderTransient = errors.New("transient provider error")
	// ErrProviderFatal signals a non-retryable provider failure.
	ErrProviderFatal = errors.New("provider error")
	// ErrConfiguration signals missing or invalid configuration (credentials, empty index).
	ErrConfiguration = errors.New("configuration error")
	// ErrResolution signals a reward entry that cannot be mapped to a known document.
	ErrResolution = errors.New("unresolved document")
	// ErrConsistency signals a mutation that would corrupt ledger state.
	ErrConsistency = errors.New("consistency violation")
	// ErrInsufficientBalance signals an account balance below the question fee.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrAccountNotFound signals a missing account.
	ErrAccountNotFound = errors.New("account not found")
	// ErrDocumentNotFound signals a missing registry document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrGenerationTimeout signals an answer generation that exceeded its deadline.
	ErrGenerationTimeout = errors.New("generation timed out")
)

// ConsistencyError wraps ErrConsistency with the rejected invariant.
type ConsistencyError struct {
	Invariant string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConsistency.Error(), e.Invariant)
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistency }

// NewConsistencyViolation creates a consistency violation error for the given invariant.
func NewConsistencyViolation(invariant string) error {
	return &ConsistencyError{Invariant: invariant}
}
