package budget

import "time"

// Status is the state of one budget scope at check time.
type Status struct {
	// Scope identifies the budget: "daily", "weekly", "monthly",
	// "owner:<id>", or "project:<id>".
	Scope string `json:"scope"`

	// Limit is the configured budget limit in USD.
	Limit float64 `json:"limit"`

	// Used is the spend counted against this scope in USD.
	Used float64 `json:"used"`

	// Remaining is the budget remaining in USD. Never negative.
	Remaining float64 `json:"remaining"`

	// PercentUsed is Used/Limit (0.0-1.0, may exceed 1.0).
	PercentUsed float64 `json:"percent_used"`

	// Exceeded indicates Used has reached or passed Limit.
	Exceeded bool `json:"exceeded"`
}

// Decision is the outcome of a budget check across all configured scopes.
type Decision struct {
	// Allowed is false when any configured budget is exceeded.
	Allowed bool `json:"allowed"`

	// Statuses holds one status per configured scope, in check order.
	Statuses []Status `json:"statuses"`

	// Exceeded lists the scopes whose limits were exceeded.
	Exceeded []string `json:"exceeded,omitempty"`
}

// Alert is a single threshold crossing notification.
type Alert struct {
	// Scope identifies the budget that crossed the threshold.
	Scope string `json:"scope"`

	// Threshold is the crossed fraction of the limit (0.0-1.0).
	Threshold float64 `json:"threshold"`

	// CurrentUsage is the spend at alert time in USD.
	CurrentUsage float64 `json:"current_usage"`

	// Limit is the budget limit in USD.
	Limit float64 `json:"limit"`

	// Timestamp is when the crossing was detected.
	Timestamp time.Time `json:"timestamp"`
}

// AlertFunc receives budget alerts. It runs outside the guard's lock and
// may be slow; a panic is recovered and logged.
type AlertFunc func(Alert)
