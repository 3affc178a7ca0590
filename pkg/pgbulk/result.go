package pgbulk

import (
	"time"

	"github.com/google/uuid"
)

// TableResult records what happened to one table during a load run.
type TableResult struct {
	// Table is the destination table name.
	Table string

	// Rows is the number of rows actually inserted.
	Rows int64

	// Rejected is the number of malformed rows skipped within the
	// configured tolerance.
	Rejected int

	// TruncateElapsed is how long emptying the table took.
	TruncateElapsed time.Duration

	// CopyElapsed is how long the bulk import took.
	CopyElapsed time.Duration

	// SourceChecksum is the hex SHA-256 of the source file, computed while
	// streaming. Recorded for load provenance.
	SourceChecksum string
}

// RunResult is the explicit accumulator for one load run. It replaces the
// running script-local counters of ad hoc load scripts: callers get the
// per-table breakdown and totals alongside the run outcome.
type RunResult struct {
	// ID uniquely identifies this run. Error log entries for a failed run
	// carry the same ID.
	ID uuid.UUID

	// StartedAt is when the run began.
	StartedAt time.Time

	// Elapsed is the total wall-clock duration of the run.
	Elapsed time.Duration

	// Tables holds one entry per completed table, in load order. On
	// failure it contains the tables finished before the failing stage;
	// their effects were rolled back.
	Tables []TableResult

	// TotalRows is the sum of rows inserted across all tables.
	TotalRows int64

	// TotalRejected is the sum of tolerated malformed rows.
	TotalRejected int
}

// NewRunResult creates a RunResult stamped with a fresh ID and start time.
func NewRunResult() *RunResult {
	return &RunResult{
		ID:        uuid.New(),
		StartedAt: time.Now(),
	}
}

// Add appends a table result and folds its counts into the run totals.
func (r *RunResult) Add(t TableResult) {
	r.Tables = append(r.Tables, t)
	r.TotalRows += t.Rows
	r.TotalRejected += t.Rejected
}
