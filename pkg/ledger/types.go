package ledger

import (
	"context"
	"time"
)

// Record is a single immutable usage record for one metered call.
type Record struct {
	// ID is a unique record identifier (UUID v4).
	ID string `json:"id"`

	// Timestamp is when the call was recorded.
	Timestamp time.Time `json:"timestamp"`

	// Model is the model identifier the call was billed against.
	Model string `json:"model"`

	// Provider is derived from the model identifier prefix.
	Provider string `json:"provider"`

	// InputTokens is the prompt token count.
	InputTokens int `json:"input_tokens"`

	// OutputTokens is the completion token count.
	OutputTokens int `json:"output_tokens"`

	// Cost is the computed cost in USD.
	Cost float64 `json:"cost"`

	// OwnerID attributes the call to an owner. Optional.
	OwnerID string `json:"owner_id,omitempty"`

	// ProjectID attributes the call to a project. Optional.
	ProjectID string `json:"project_id,omitempty"`

	// TraceID links the record to a distributed trace. Optional.
	TraceID string `json:"trace_id,omitempty"`

	// Metadata is arbitrary caller-supplied annotation.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Usage describes one metered call to be recorded.
type Usage struct {
	// Model is the model identifier. Required.
	Model string

	// InputTokens is the prompt token count.
	InputTokens int

	// OutputTokens is the completion token count.
	OutputTokens int

	// OwnerID attributes the call to an owner. Optional.
	OwnerID string

	// ProjectID attributes the call to a project. Optional.
	ProjectID string

	// TraceID links the record to a distributed trace. Optional.
	TraceID string

	// Timestamp overrides the record timestamp. Zero means now.
	Timestamp time.Time

	// Metadata is arbitrary caller-supplied annotation.
	Metadata map[string]string
}

// Filter narrows queries and aggregations. Zero-valued fields match
// everything.
type Filter struct {
	// Start excludes records before this instant (inclusive).
	Start time.Time

	// End excludes records at or after this instant (exclusive).
	End time.Time

	// Model matches records for exactly this model.
	Model string

	// Provider matches records for exactly this provider.
	Provider string

	// OwnerID matches records attributed to this owner.
	OwnerID string

	// ProjectID matches records attributed to this project.
	ProjectID string
}

// Matches reports whether a record passes the filter.
func (f Filter) Matches(r *Record) bool {
	if !f.Start.IsZero() && r.Timestamp.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && !r.Timestamp.Before(f.End) {
		return false
	}
	if f.Model != "" && r.Model != f.Model {
		return false
	}
	if f.Provider != "" && r.Provider != f.Provider {
		return false
	}
	if f.OwnerID != "" && r.OwnerID != f.OwnerID {
		return false
	}
	if f.ProjectID != "" && r.ProjectID != f.ProjectID {
		return false
	}
	return true
}

// Breakdown aggregates matched records along every attribution dimension.
type Breakdown struct {
	// TotalCost is the summed cost in USD of all matched records.
	TotalCost float64 `json:"total_cost"`

	// Records is the number of matched records.
	Records int `json:"records"`

	// InputTokens is the summed prompt token count.
	InputTokens int `json:"input_tokens"`

	// OutputTokens is the summed completion token count.
	OutputTokens int `json:"output_tokens"`

	// ByModel maps model identifier to summed cost.
	ByModel map[string]float64 `json:"by_model"`

	// ByProvider maps provider name to summed cost.
	ByProvider map[string]float64 `json:"by_provider"`

	// ByOwner maps owner identifier to summed cost. Records without an
	// owner are omitted.
	ByOwner map[string]float64 `json:"by_owner"`

	// ByProject maps project identifier to summed cost. Records without a
	// project are omitted.
	ByProject map[string]float64 `json:"by_project"`
}

// Period is a calendar-aligned accounting period.
type Period string

// Accounting periods. Boundaries are local time: days start at midnight,
// weeks on Sunday, months on day 1.
const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Store persists usage records. Implementations must be safe for
// concurrent use.
type Store interface {
	// Append persists one record. Records are immutable once appended.
	Append(ctx context.Context, record *Record) error

	// Query returns all records matching the filter, ordered by timestamp
	// ascending.
	Query(ctx context.Context, filter Filter) ([]*Record, error)

	// SumCost returns the total cost of records matching the filter.
	SumCost(ctx context.Context, filter Filter) (float64, error)

	// DeleteBefore removes records with timestamps strictly before cutoff
	// and returns the number removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases store resources.
	Close() error
}
