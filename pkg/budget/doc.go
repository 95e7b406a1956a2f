// Package budget enforces spending limits over the usage ledger.
//
// # Overview
//
// The Guard checks calendar-period spend (daily, weekly, monthly) and
// attributed spend (per owner, per project) against configured limits.
// Only non-zero limits are enforced. A check that finds any limit
// exceeded reports the call as not allowed; the caller decides whether
// that is advisory or blocking.
//
// # Alerts
//
// Crossing a configured threshold fraction of a limit fires an alert
// through the registered callback. Each (scope, threshold) pair fires at
// most once until its markers are reset with ResetAlerts; calendar
// rollovers are expected to reset period scopes so alerts re-fire in the
// new period. The sent marker is recorded before the callback runs, so a
// panicking callback cannot cause duplicate alerts.
package budget
