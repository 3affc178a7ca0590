package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/pgbulk/internal/errlog"
)

// database is the loader's view of the target database. The load transaction
// and failure logging run on separate connections: loadTx pins one pooled
// connection for the transaction, LogFailure uses the pool directly so its
// insert commits regardless of the transaction's fate.
type database interface {
	// EnsureErrorLog creates the error log table if missing.
	EnsureErrorLog(ctx context.Context) error

	// BeginLoad acquires a dedicated connection and opens the transaction
	// that spans the whole run.
	BeginLoad(ctx context.Context) (loadTx, error)

	// LogFailure writes one error log entry outside the load transaction.
	LogFailure(ctx context.Context, entry errlog.Entry) error

	// Close releases the underlying pool.
	Close()
}

// loadTx is the single transaction a run executes in.
type loadTx interface {
	// Truncate empties one target table, resetting identity sequences.
	Truncate(ctx context.Context, table string) error

	// Copy bulk-inserts one batch of rows and reports how many were written.
	Copy(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// pgDatabase implements database on a pgx connection pool.
type pgDatabase struct {
	pool   *pgxpool.Pool
	errlog *errlog.Writer
}

func newPgDatabase(pool *pgxpool.Pool, errorLogTable string) *pgDatabase {
	return &pgDatabase{
		pool:   pool,
		errlog: errlog.NewWriter(pool, errorLogTable),
	}
}

func (d *pgDatabase) EnsureErrorLog(ctx context.Context) error {
	return d.errlog.EnsureTable(ctx)
}

func (d *pgDatabase) BeginLoad(ctx context.Context) (loadTx, error) {
	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for load transaction: %w", err)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to begin load transaction: %w", err)
	}

	return &pgLoadTx{conn: conn, tx: tx}, nil
}

func (d *pgDatabase) LogFailure(ctx context.Context, entry errlog.Entry) error {
	return d.errlog.Write(ctx, entry)
}

func (d *pgDatabase) Close() {
	d.pool.Close()
}

// pgLoadTx pins one pooled connection for the duration of the transaction.
type pgLoadTx struct {
	conn     *pgxpool.Conn
	tx       pgx.Tx
	released bool
}

func tableIdentifier(table string) pgx.Identifier {
	return pgx.Identifier(strings.Split(table, "."))
}

func (t *pgLoadTx) Truncate(ctx context.Context, table string) error {
	sql := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY", tableIdentifier(table).Sanitize())
	if _, err := t.tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", table, err)
	}
	return nil
}

func (t *pgLoadTx) Copy(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	n, err := t.tx.CopyFrom(ctx, tableIdentifier(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy into %s: %w", table, err)
	}
	return n, nil
}

func (t *pgLoadTx) Commit(ctx context.Context) error {
	defer t.release()
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit load transaction: %w", err)
	}
	return nil
}

func (t *pgLoadTx) Rollback(ctx context.Context) error {
	defer t.release()
	if err := t.tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to roll back load transaction: %w", err)
	}
	return nil
}

func (t *pgLoadTx) release() {
	if !t.released {
		t.conn.Release()
		t.released = true
	}
}
