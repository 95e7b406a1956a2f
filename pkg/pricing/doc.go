// Package pricing provides the model price table used for cost computation.
//
// # Overview
//
// The price table maps model identifiers to per-1K-token input/output
// prices in USD. Cost computation never fails: when a model is missing
// from the table, the designated default model's pricing is used and a
// non-fatal pricing gap is signaled so callers can monitor table coverage
// without halting metering.
//
// Lookup order for a model:
//
//  1. Exact match
//  2. Longest registered prefix match (e.g. "gpt-4o" covers "gpt-4o-2024-11-20")
//  3. Default model pricing, signaling a gap
//
// # Hot reload
//
// An optional Watcher reloads the price table from a YAML file when the
// file changes, so pricing updates do not require a restart.
//
// # Thread Safety
//
// Table is safe for concurrent use; reads take a shared lock.
package pricing
