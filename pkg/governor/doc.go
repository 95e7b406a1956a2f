// Package governor orchestrates the governance pipeline for metered
// generation calls.
//
// # Pipeline
//
// Execute runs one governed call end to end:
//
//  1. Admission: the caller's sliding window limit is checked.
//  2. Budget: configured spending limits are checked; threshold alerts
//     fire as a side effect.
//  3. Assignment: when the request names an experiment, the caller is
//     assigned a prompt version, the impression is counted, and the
//     template is rendered.
//  4. The wrapped model call runs with the rendered prompt.
//  5. Metering: the call's cost is computed and appended to the ledger,
//     metrics are recorded, and the call's latency, tokens, and cost
//     are folded into the assigned variant's running averages.
//
// Rejections surface as typed errors (AdmissionError, BudgetError) so
// callers can distinguish backpressure from failures of the model call
// itself.
//
// The admission check and the budget check observe different clocks on
// purpose: admission is a short sliding window over call counts, budget
// is calendar-period spend. Neither reserves capacity for the other.
package governor
