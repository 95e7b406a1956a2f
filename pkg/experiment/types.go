package experiment

import "time"

// State is the lifecycle state of an experiment.
type State string

// Experiment lifecycle states.
const (
	// StateActive routes traffic across variants by weight.
	StateActive State = "active"

	// StateStopped routes all traffic to control; metrics are kept.
	StateStopped State = "stopped"

	// StateGraduated permanently routes all traffic to the graduated
	// version. Final.
	StateGraduated State = "graduated"
)

// Variant is a weighted competitor within an experiment.
type Variant struct {
	// Version is the prompt version identifier.
	Version string `json:"version"`

	// Weight is the fraction of traffic (0.0-1.0) routed to the variant.
	Weight float64 `json:"weight"`
}

// Prompt is a resolved and rendered prompt for one caller.
type Prompt struct {
	// Version is the assigned prompt version.
	Version string `json:"version"`

	// Content is the rendered prompt text, or the raw template when no
	// variables were supplied.
	Content string `json:"content"`
}

// Sample carries one call's observed performance for the caller's
// assigned version.
type Sample struct {
	// LatencyMs is the call latency in milliseconds.
	LatencyMs float64 `json:"latency_ms"`

	// Tokens is the call's total token count.
	Tokens int64 `json:"tokens"`

	// Cost is the call's cost in USD.
	Cost float64 `json:"cost"`
}

// VariantMetrics is a snapshot of one version's collected performance.
type VariantMetrics struct {
	// Version is the prompt version identifier.
	Version string `json:"version"`

	// Impressions is the number of times the version was served.
	Impressions int64 `json:"impressions"`

	// Conversions is the number of successful outcomes recorded.
	Conversions int64 `json:"conversions"`

	// ConversionRate is Conversions/Impressions, 0 with no impressions.
	ConversionRate float64 `json:"conversion_rate"`

	// AvgLatencyMs is the running mean call latency in milliseconds.
	AvgLatencyMs float64 `json:"avg_latency_ms"`

	// AvgTokens is the running mean token count per call.
	AvgTokens float64 `json:"avg_tokens"`

	// TotalCost is the summed cost in USD of the version's calls.
	TotalCost float64 `json:"total_cost"`
}

// Snapshot is the externally visible state of an experiment.
type Snapshot struct {
	// Name is the experiment name, which is also the prompt name.
	Name string `json:"name"`

	// State is the lifecycle state.
	State State `json:"state"`

	// Control is the control version identifier. After graduation it is
	// the graduated version.
	Control string `json:"control"`

	// Variants are the weighted competitors in declaration order, empty
	// after graduation.
	Variants []Variant `json:"variants"`

	// GraduatedTo is the pinned version after graduation, empty before.
	GraduatedTo string `json:"graduated_to,omitempty"`

	// CreatedAt is when the experiment was created.
	CreatedAt time.Time `json:"created_at"`

	// Metrics holds per-version performance in declaration order,
	// control first. Versions removed by graduation keep their history.
	Metrics []VariantMetrics `json:"metrics"`

	// Metadata is arbitrary caller-supplied annotation.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Comparison is the result of a significance test between a variant and
// control.
type Comparison struct {
	// Variant is the compared version.
	Variant string `json:"variant"`

	// Control is the control version.
	Control string `json:"control"`

	// ZScore is the two-proportion pooled z statistic. Positive means
	// the variant converts better than control.
	ZScore float64 `json:"z_score"`

	// Significant indicates |ZScore| > 1.96.
	Significant bool `json:"significant"`
}
