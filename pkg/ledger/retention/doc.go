// Package retention prunes old usage records from the ledger on a cron
// schedule. Pruning is age-based: records older than the configured
// retention window are deleted. A retention of 0 days disables pruning.
package retention
