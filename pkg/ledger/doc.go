// Package ledger provides the append-only usage ledger for metered
// generation calls.
//
// # Overview
//
// Every metered call is recorded once: the ledger computes its cost from
// the price table, derives the provider from the model identifier, and
// appends an immutable UsageRecord to the configured store. Aggregate
// queries (breakdown by model/provider/owner/project, calendar-period
// spend, monthly forecast) are derived on demand and never mutate the
// record set.
//
// # Storage
//
// Records live behind the Store interface. MemoryStore is the reference
// in-process backend; SQLiteStore persists the same interface to disk.
// Durability is a property of the chosen store, not of the ledger logic.
//
// # Periods
//
// Period arithmetic is calendar-aligned in local time: days start at
// midnight, weeks on Sunday, months on day 1.
//
// # Thread Safety
//
// The ledger and both stores are safe for concurrent use. Appends are
// atomic per record: a record is either fully visible to subsequent
// aggregate reads or not at all.
package ledger
