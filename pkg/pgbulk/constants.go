package pgbulk

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Load completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to database
	ExitApprovalDenied  = 12 // User denied truncate approval
	ExitLoadFailed      = 13 // Load failed and was rolled back
	ExitConfigMissing   = 14 // pgbulk.yaml not found
)

const (
	// DefaultDelimiter is the field delimiter used when a table spec does
	// not configure one.
	DefaultDelimiter = ","

	// DefaultSkipRows skips the single header row of each source file.
	DefaultSkipRows = 1

	// DefaultBatchSize is the number of rows sent per COPY batch.
	DefaultBatchSize = 10000

	// DefaultMaxErrors is the malformed-row tolerance per table. Zero means
	// strict: the first malformed row fails the whole run. Operators opt
	// into a higher tolerance per source in pgbulk.yaml.
	DefaultMaxErrors = 0

	// DefaultErrorLogTable is where failed runs are recorded.
	DefaultErrorLogTable = "load_error_log"

	// DefaultForceApprovalCountdown is the countdown duration before forced
	// approval proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// DefaultRetryInitialDelay is the default initial delay before the
	// first connection retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between connection
	// retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of connection
	// retry attempts. Retries apply only to establishing the connection
	// pool; a failed load run is never retried.
	DefaultRetryMaxAttempts = 3
)
