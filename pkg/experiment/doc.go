// Package experiment assigns callers to prompt variants and tracks
// variant performance.
//
// # Assignment
//
// Assignment is deterministic: a caller's bucket is derived from a hash
// of the caller identifier and the experiment name, mapped to [0, 1).
// Variants claim cumulative weight ranges in declaration order and the
// remainder of the range belongs to control. The first resolution is
// cached per caller and the cached value is authoritative from then on,
// so later weight changes never move an already-bucketed caller. The
// cache is cleared when an experiment is stopped or reset.
//
// # Lifecycle
//
// An experiment is created Active. Stopping routes all traffic to
// control while keeping collected metrics; a stopped experiment can be
// restarted. Graduating an experiment permanently pins all traffic to
// the chosen version; no transition leaves the graduated state.
//
// # Significance
//
// Variant performance is compared against control with a two-proportion
// pooled z-test on conversion rates. A difference is reported
// significant when |z| exceeds 1.96 (95% confidence, two-tailed).
package experiment
