package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/pgbulk/internal/errlog"
	"github.com/vvka-141/pgbulk/pkg/pgbulk"
)

type mockConnector struct {
	pool *pgxpool.Pool
	err  error
}

func (m *mockConnector) Connect(_ context.Context) (*pgxpool.Pool, error) {
	return m.pool, m.err
}

type mockApprover struct {
	approved   bool
	err        error
	gotDBName  string
	gotTables  []string
	callCount  int
}

func (m *mockApprover) RequestApproval(_ context.Context, dbName string, tables []string) (bool, error) {
	m.callCount++
	m.gotDBName = dbName
	m.gotTables = tables
	return m.approved, m.err
}

type mockLogger struct {
	mu       sync.Mutex
	verbose  []string
	infos    []string
	errors   []string
}

func (m *mockLogger) Verbose(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verbose = append(m.verbose, fmt.Sprintf(format, args...))
}

func (m *mockLogger) Info(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, fmt.Sprintf(format, args...))
}

func (m *mockLogger) Error(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, fmt.Sprintf(format, args...))
}

// mockDatabase records error log activity and hands out a shared mockTx.
type mockDatabase struct {
	tx        *mockTx
	ensureErr error
	beginErr  error
	logErr    error

	ensured bool
	entries []errlog.Entry
	closed  bool
}

func (m *mockDatabase) EnsureErrorLog(_ context.Context) error {
	m.ensured = true
	return m.ensureErr
}

func (m *mockDatabase) BeginLoad(_ context.Context) (loadTx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return m.tx, nil
}

func (m *mockDatabase) LogFailure(_ context.Context, entry errlog.Entry) error {
	if m.logErr != nil {
		return m.logErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockDatabase) Close() {
	m.closed = true
}

// mockTx records the operation sequence so tests can assert ordering.
type mockTx struct {
	ops         []string // "truncate <t>", "copy <t> <rows>", "commit", "rollback"
	copied      map[string][][]any
	truncateErr map[string]error
	copyErr     map[string]error
	commitErr   error

	committed  bool
	rolledBack bool
}

func newMockTx() *mockTx {
	return &mockTx{copied: make(map[string][][]any)}
}

func (m *mockTx) Truncate(_ context.Context, table string) error {
	m.ops = append(m.ops, "truncate "+table)
	if err := m.truncateErr[table]; err != nil {
		return err
	}
	return nil
}

func (m *mockTx) Copy(_ context.Context, table string, _ []string, rows [][]any) (int64, error) {
	m.ops = append(m.ops, fmt.Sprintf("copy %s %d", table, len(rows)))
	if err := m.copyErr[table]; err != nil {
		return 0, err
	}
	m.copied[table] = append(m.copied[table], rows...)
	return int64(len(rows)), nil
}

func (m *mockTx) Commit(_ context.Context) error {
	m.ops = append(m.ops, "commit")
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(_ context.Context) error {
	m.ops = append(m.ops, "rollback")
	m.rolledBack = true
	return nil
}

// mockRowSource serves canned rows in ReadBatch-sized chunks.
type mockRowSource struct {
	columns  []string
	rows     [][]any
	readErr  error // returned after rows are exhausted, instead of EOF
	rejected int64
	checksum string

	pos    int
	closed bool
}

func (m *mockRowSource) Columns() []string { return m.columns }

func (m *mockRowSource) ReadBatch(n int) ([][]any, error) {
	if m.pos >= len(m.rows) {
		if m.readErr != nil {
			return nil, m.readErr
		}
		return nil, io.EOF
	}
	end := m.pos + n
	if end > len(m.rows) {
		end = len(m.rows)
	}
	batch := m.rows[m.pos:end]
	m.pos = end
	return batch, nil
}

func (m *mockRowSource) RowsRead() int64  { return int64(m.pos) }
func (m *mockRowSource) Rejected() int64  { return m.rejected }
func (m *mockRowSource) Checksum() string { return m.checksum }
func (m *mockRowSource) Close() error {
	m.closed = true
	return nil
}

// testService wires a LoadService whose seams point at the given mocks.
func testService(dbase *mockDatabase, approver *mockApprover, logger *mockLogger, sources map[string]*mockRowSource) *LoadService {
	svc := NewLoadService(
		func(_ *pgbulk.ConnectionConfig, _ pgbulk.Logger) (pgbulk.Connector, error) {
			return &mockConnector{}, nil
		},
		approver,
		logger,
	)
	svc.newDatabase = func(_ *pgxpool.Pool, _ string) database {
		return dbase
	}
	svc.openSource = func(spec pgbulk.TableSpec, _ string) (rowSource, error) {
		src, ok := sources[spec.Source]
		if !ok {
			return nil, fmt.Errorf("source file %s: %w", spec.Source, pgbulk.ErrSourceNotFound)
		}
		return src, nil
	}
	return svc
}
