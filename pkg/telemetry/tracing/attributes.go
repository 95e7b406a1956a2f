package tracing

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys for metered calls.
const (
	AttrModel        = "saturn.model"
	AttrProvider     = "saturn.provider"
	AttrExperiment   = "saturn.experiment"
	AttrVersion      = "saturn.version"
	AttrCallerID     = "saturn.caller_id"
	AttrOwnerID      = "saturn.owner_id"
	AttrProjectID    = "saturn.project_id"
	AttrInputTokens  = "saturn.input_tokens"
	AttrOutputTokens = "saturn.output_tokens"
	AttrCostUSD      = "saturn.cost_usd"
	AttrPricingGap   = "saturn.pricing_gap"
)

// CallAttributes builds the span attributes for one metered call.
func CallAttributes(model, provider string, inputTokens, outputTokens int, cost float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrModel, model),
		attribute.String(AttrProvider, provider),
		attribute.Int(AttrInputTokens, inputTokens),
		attribute.Int(AttrOutputTokens, outputTokens),
		attribute.Float64(AttrCostUSD, cost),
	}
}

// AssignmentAttributes builds the span attributes for one variant
// assignment.
func AssignmentAttributes(experiment, version, callerID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrExperiment, experiment),
		attribute.String(AttrVersion, version),
		attribute.String(AttrCallerID, callerID),
	}
}
