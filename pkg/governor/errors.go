package governor

import (
	"fmt"
	"strings"
	"time"
)

// AdmissionError indicates a call rejected by the admission limiter.
type AdmissionError struct {
	// Key is the limited caller key.
	Key string

	// ResetIn is how long until a slot frees.
	ResetIn time.Duration
}

// Error implements the error interface.
func (e *AdmissionError) Error() string {
	return fmt.Sprintf("call for %q rejected by admission limiter, slot frees in %s",
		e.Key, e.ResetIn)
}

// BudgetError indicates a call rejected by one or more budget limits.
type BudgetError struct {
	// Scopes are the exceeded budget scopes.
	Scopes []string
}

// Error implements the error interface.
func (e *BudgetError) Error() string {
	return fmt.Sprintf("call rejected by budget limits: %s", strings.Join(e.Scopes, ", "))
}
