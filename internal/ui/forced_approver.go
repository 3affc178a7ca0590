package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vvka-141/pgbulk/pkg/pgbulk"
)

// ForcedApprover implements the Approver interface for non-interactive
// approval. It displays the truncate set, counts down, and approves
// automatically. Used when the --force flag is provided.
type ForcedApprover struct {
	output  io.Writer
	sleepFn func(time.Duration)
}

// NewForcedApprover creates a new ForcedApprover writing to stderr.
func NewForcedApprover() pgbulk.Approver {
	return &ForcedApprover{
		output:  os.Stderr,
		sleepFn: time.Sleep,
	}
}

// RequestApproval displays a countdown and approves when it completes.
func (a *ForcedApprover) RequestApproval(ctx context.Context, dbName string, tables []string) (bool, error) {
	fmt.Fprintln(a.output)
	printTruncateWarning(a.output, dbName, tables)

	countdownSeconds := int(pgbulk.DefaultForceApprovalCountdown.Seconds())
	for i := countdownSeconds; i > 0; i-- {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
			fmt.Fprintf(a.output, "\rTruncating in: %d seconds... (Press Ctrl+C to cancel)", i)
			a.sleepFn(1 * time.Second)
		}
	}

	fmt.Fprintf(a.output, "\r✓ Proceeding with full refresh...                              \n")
	return true, nil
}

func printTruncateWarning(w io.Writer, dbName string, tables []string) {
	fmt.Fprintf(w, "⚠️  DANGER: about to TRUNCATE %d table(s) in database '%s':\n", len(tables), dbName)
	for _, table := range tables {
		fmt.Fprintf(w, "    - %s\n", table)
	}
	fmt.Fprintln(w, "Existing rows in these tables will be permanently replaced by the configured source files.")
}

var _ pgbulk.Approver = (*ForcedApprover)(nil)
