package pgbulk

import (
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"
)

// TableSpec describes one (source file, target table) pair in a load run.
// Zero values for Delimiter, SkipRows, BatchSize and MaxErrors are filled in
// by Normalize before validation.
type TableSpec struct {
	// Source is the path to the delimited source file, absolute or relative
	// to the project directory.
	Source string

	// Target is the destination table name, optionally schema-qualified
	// ("bronze.customers"). The table must already exist.
	Target string

	// Columns optionally overrides the column names derived from the source
	// file header. Required when SkipRows is 0 (no header to read).
	Columns []string

	// Delimiter is the field delimiter. Must be a single rune. Default ",".
	Delimiter string

	// SkipRows is the number of leading rows to skip before data starts.
	// The first skipped row is treated as the header. Default 1.
	SkipRows *int

	// BatchSize is the number of rows sent per COPY batch. Default 10000.
	BatchSize int

	// MaxErrors is the number of malformed rows tolerated before the load
	// is treated as a failure. Default 0: the first malformed row aborts
	// the run. Rows rejected within the tolerance are skipped and counted.
	MaxErrors int

	// KeepNulls preserves empty source fields as SQL NULL instead of
	// coercing them to empty strings.
	KeepNulls bool

	// RejectFile is an optional companion file that collects rejected rows
	// verbatim. Truncated before each run.
	RejectFile string
}

// identPattern matches an unquoted PostgreSQL identifier, optionally
// schema-qualified for table names.
var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_$]{0,62}$`)

// Normalize fills in defaulted fields. Call before Validate.
func (t *TableSpec) Normalize() {
	if t.Delimiter == "" {
		t.Delimiter = DefaultDelimiter
	}
	if t.SkipRows == nil {
		n := DefaultSkipRows
		t.SkipRows = &n
	}
	if t.BatchSize == 0 {
		t.BatchSize = DefaultBatchSize
	}
}

// Validate checks the spec for structural problems. It returns a multi-error
// if multiple validation failures occur.
func (t *TableSpec) Validate() error {
	var errs []error

	if t.Source == "" {
		errs = append(errs, fmt.Errorf("table %q: source is required: %w", t.Target, ErrInvalidConfig))
	}
	if t.Target == "" {
		errs = append(errs, fmt.Errorf("source %q: target is required: %w", t.Source, ErrInvalidConfig))
	} else if !validTableName(t.Target) {
		errs = append(errs, fmt.Errorf("invalid target table name %q: %w", t.Target, ErrInvalidConfig))
	}

	for _, col := range t.Columns {
		if !identPattern.MatchString(col) {
			errs = append(errs, fmt.Errorf("table %q: invalid column name %q: %w", t.Target, col, ErrInvalidConfig))
		}
	}

	if utf8.RuneCountInString(t.Delimiter) != 1 {
		errs = append(errs, fmt.Errorf("table %q: delimiter must be a single character, got %q: %w", t.Target, t.Delimiter, ErrInvalidConfig))
	}
	if t.SkipRows != nil && *t.SkipRows < 0 {
		errs = append(errs, fmt.Errorf("table %q: skip_rows cannot be negative: %w", t.Target, ErrInvalidConfig))
	}
	if t.SkipRows != nil && *t.SkipRows == 0 && len(t.Columns) == 0 {
		errs = append(errs, fmt.Errorf("table %q: columns are required when skip_rows is 0: %w", t.Target, ErrInvalidConfig))
	}
	if t.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("table %q: batch_size cannot be negative: %w", t.Target, ErrInvalidConfig))
	}
	if t.MaxErrors < 0 {
		errs = append(errs, fmt.Errorf("table %q: max_errors cannot be negative: %w", t.Target, ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// validTableName accepts "table" or "schema.table" with unquoted identifiers.
func validTableName(name string) bool {
	parts := splitQualified(name)
	if len(parts) == 0 || len(parts) > 2 {
		return false
	}
	for _, p := range parts {
		if !identPattern.MatchString(p) {
			return false
		}
	}
	return true
}

func splitQualified(name string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			parts = append(parts, name[start:i])
			start = i + 1
		}
	}
	parts = append(parts, name[start:])
	return parts
}

// LoadConfig contains all parameters needed for one load run.
type LoadConfig struct {
	// SourcePath is the project directory. Relative source and reject file
	// paths resolve against it.
	SourcePath string

	// ConnectionString is the PostgreSQL connection string (URI or
	// keyword/value format) for the target database.
	ConnectionString string

	// Tables is the ordered list of loads to perform. Order is significant:
	// tables are truncated and reloaded in exactly this order inside one
	// transaction.
	Tables []TableSpec

	// ErrorLogTable is the table failures are logged to. The log insert
	// runs outside the load transaction so it survives the rollback.
	// Default "load_error_log".
	ErrorLogTable string

	// RejectDir, when set, gives tables without an explicit RejectFile a
	// companion "<target>.rejected" file in this directory.
	RejectDir string

	// Force skips the interactive truncate approval prompt.
	Force bool

	// Timeout is catastrophic failure protection for the whole run.
	Timeout time.Duration

	// Verbose enables detailed logging.
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// Cloud provider authentication parameters.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
	AWSRegion         string
	GoogleInstance    string
}

// Normalize fills in defaulted fields on the config and all table specs.
func (c *LoadConfig) Normalize() {
	if c.ErrorLogTable == "" {
		c.ErrorLogTable = DefaultErrorLogTable
	}
	for i := range c.Tables {
		c.Tables[i].Normalize()
	}
}

// Validate checks if the LoadConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *LoadConfig) Validate() error {
	var errs []error

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}
	if len(c.Tables) == 0 {
		errs = append(errs, fmt.Errorf("at least one table must be configured: %w", ErrInvalidConfig))
	}
	if c.ErrorLogTable != "" && !validTableName(c.ErrorLogTable) {
		errs = append(errs, fmt.Errorf("invalid error log table name %q: %w", c.ErrorLogTable, ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	seen := make(map[string]bool, len(c.Tables))
	for i := range c.Tables {
		if err := c.Tables[i].Validate(); err != nil {
			errs = append(errs, err)
		}
		target := c.Tables[i].Target
		if target != "" && seen[target] {
			errs = append(errs, fmt.Errorf("target table %q configured more than once: %w", target, ErrInvalidConfig))
		}
		seen[target] = true
	}

	return errors.Join(errs...)
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// Additional connection parameters.
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Cloud provider authentication parameters.
	AWSRegion         string
	GoogleInstance    string
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}
