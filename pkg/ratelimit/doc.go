// Package ratelimit provides the per-key sliding window admission
// limiter for metered calls.
//
// # Algorithm
//
// Each key holds the timestamps of its admitted calls. A check evicts
// timestamps older than the window, then compares the survivors against
// the configured limit. Eviction is lazy: it happens on the next check
// or record for that key, and keys whose timestamps have all expired are
// dropped from the table.
//
// # Check and Record
//
// Check and Record are separate operations and deliberately not atomic
// as a pair. Admission control here is best-effort backpressure, not a
// strict token allocation: two callers may both pass Check on the last
// slot and both Record. WaitForSlot performs the check-then-record
// sequence under one lock acquisition per attempt and is the preferred
// entry point for blocking callers.
package ratelimit
