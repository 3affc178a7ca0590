package pgbulk

import "context"

// Approver handles user interaction for approval workflows. The loader
// truncates every configured target table before reloading it, so a run
// against the wrong database is destructive; approval gates that.
//
// Implementations:
//   - ForcedApprover: shows a countdown and automatically approves
//   - InteractiveApprover: prompts the user to type the database name
type Approver interface {
	// RequestApproval prompts for confirmation before truncating the
	// configured tables in dbName. Returns true if approved.
	RequestApproval(ctx context.Context, dbName string, tables []string) (bool, error)
}
