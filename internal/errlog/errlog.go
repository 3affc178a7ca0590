// Package errlog records load failures in a database table. The insert runs
// on its own pooled connection, never inside the load transaction, so the
// record survives the rollback that discards the partial load.
package errlog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one failure record.
type Entry struct {
	ID       uuid.UUID
	LoggedAt time.Time
	Stage    string // what the run was doing, e.g. "copy bronze.customers"
	Message  string
	Origin   string // server-side routine that raised the error, if any
	Position int    // statement text position, 0 when unknown
	Severity string // ERROR, FATAL, ...
	State    string // SQLSTATE code
	Username string // OS user running the load
	Host     string // machine the load ran from
}

// FromError builds an Entry for a failure at the given stage. PostgreSQL
// server errors contribute their severity, SQLSTATE, routine and position;
// other errors record just the message.
func FromError(stage string, err error) Entry {
	e := Entry{
		ID:       uuid.New(),
		LoggedAt: time.Now(),
		Stage:    stage,
		Message:  err.Error(),
		Username: currentUsername(),
		Host:     currentHostname(),
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		e.Severity = pgErr.Severity
		e.State = pgErr.Code
		e.Origin = pgErr.Routine
		e.Position = int(pgErr.Position)
	}

	return e
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return os.Getenv("USERNAME")
}

func currentHostname() string {
	host, err := os.Hostname()
	if err != nil {
		return ""
	}
	return host
}

// Writer inserts entries into the error log table.
type Writer struct {
	pool  *pgxpool.Pool
	table string
}

// NewWriter creates a writer for the given table, which may be
// schema-qualified. Panics if pool is nil.
func NewWriter(pool *pgxpool.Pool, table string) *Writer {
	if pool == nil {
		panic("pool cannot be nil")
	}
	return &Writer{pool: pool, table: table}
}

// sanitizedTable renders the table name as a quoted identifier.
func (w *Writer) sanitizedTable() string {
	return pgx.Identifier(strings.Split(w.table, ".")).Sanitize()
}

// EnsureTable creates the error log table if it does not exist.
func (w *Writer) EnsureTable(ctx context.Context) error {
	sql := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id uuid PRIMARY KEY,
	logged_at timestamptz NOT NULL DEFAULT now(),
	stage text NOT NULL,
	message text NOT NULL,
	origin text,
	"position" integer,
	severity text,
	state text,
	username text,
	host text
)`, w.sanitizedTable())

	if _, err := w.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to create error log table %s: %w", w.table, err)
	}
	return nil
}

// Write inserts one entry. It uses the pool directly so the insert commits
// independently of any open load transaction.
func (w *Writer) Write(ctx context.Context, e Entry) error {
	sql := fmt.Sprintf(`INSERT INTO %s
	(id, logged_at, stage, message, origin, "position", severity, state, username, host)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, w.sanitizedTable())

	_, err := w.pool.Exec(ctx, sql,
		e.ID, e.LoggedAt, e.Stage, e.Message,
		nullable(e.Origin), nullableInt(e.Position),
		nullable(e.Severity), nullable(e.State),
		nullable(e.Username), nullable(e.Host),
	)
	if err != nil {
		return fmt.Errorf("failed to write error log entry to %s: %w", w.table, err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
