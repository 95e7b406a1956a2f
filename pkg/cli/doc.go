// Package cli provides shared helpers for the saturn command line:
// output formatting and typed command errors.
package cli
