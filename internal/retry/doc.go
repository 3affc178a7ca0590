// Package retry provides backoff-based retry for establishing database
// connections. It is deliberately not used for load runs: a failed run is
// rolled back, logged, and surfaced to the operator, never replayed.
package retry
