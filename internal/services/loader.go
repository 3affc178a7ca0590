package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/pgbulk/internal/db"
	"github.com/vvka-141/pgbulk/internal/errlog"
	"github.com/vvka-141/pgbulk/internal/source"
	"github.com/vvka-141/pgbulk/pkg/pgbulk"
)

// errlogTimeout bounds the failure-logging insert. The write runs on a
// context detached from the run's, so it still happens when the run was
// cancelled or timed out.
const errlogTimeout = 10 * time.Second

// rowSource abstracts one open source file.
type rowSource interface {
	Columns() []string
	ReadBatch(n int) ([][]any, error)
	RowsRead() int64
	Rejected() int64
	Checksum() string
	Close() error
}

// LoadService performs full-refresh bulk loads: every configured table is
// truncated and reloaded from its source file inside a single transaction.
//
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
// Create separate instances for concurrent runs.
type LoadService struct {
	connectorFactory func(*pgbulk.ConnectionConfig, pgbulk.Logger) (pgbulk.Connector, error)
	approver         pgbulk.Approver
	logger           pgbulk.Logger

	// Seams for unit tests; production instances keep the defaults.
	openSource  func(spec pgbulk.TableSpec, baseDir string) (rowSource, error)
	newDatabase func(pool *pgxpool.Pool, errorLogTable string) database
}

// NewLoadService creates a LoadService with all dependencies injected.
// Panics on nil dependencies: those are programmer errors that should fail
// loudly at startup rather than surface as nil dereferences mid-run.
func NewLoadService(
	connectorFactory func(*pgbulk.ConnectionConfig, pgbulk.Logger) (pgbulk.Connector, error),
	approver pgbulk.Approver,
	logger pgbulk.Logger,
) *LoadService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &LoadService{
		connectorFactory: connectorFactory,
		approver:         approver,
		logger:           logger,
		openSource: func(spec pgbulk.TableSpec, baseDir string) (rowSource, error) {
			return source.Open(spec, baseDir)
		},
		newDatabase: func(pool *pgxpool.Pool, errorLogTable string) database {
			return newPgDatabase(pool, errorLogTable)
		},
	}
}

// Run executes one load run. All truncates and copies happen in a single
// transaction: either every table ends up fully refreshed or none changes.
// On failure the transaction is rolled back and one entry is written to the
// error log table on a separate connection, so the entry survives.
func (s *LoadService) Run(ctx context.Context, cfg pgbulk.LoadConfig) (*pgbulk.RunResult, error) {
	cfg.Normalize()
	applyRejectDir(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	// Remove leftovers before the run so a reject file's presence always
	// reflects the latest run.
	for _, t := range cfg.Tables {
		if t.RejectFile == "" {
			continue
		}
		if err := source.RemoveStale(resolvePath(t.RejectFile, cfg.SourcePath)); err != nil {
			return nil, err
		}
	}

	connCfg, err := s.resolveConnection(cfg)
	if err != nil {
		return nil, err
	}

	connector, err := s.connectorFactory(connCfg, s.logger)
	if err != nil {
		return nil, err
	}

	s.logger.Verbose("Connecting to %s:%d/%s (%s auth)",
		connCfg.Host, connCfg.Port, connCfg.Database, connCfg.AuthMethod)

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot start load run: %w", errors.Join(pgbulk.ErrConnectionFailed, err))
	}
	if closer, ok := connector.(io.Closer); ok {
		defer closer.Close()
	}

	dbase := s.newDatabase(pool, cfg.ErrorLogTable)
	defer dbase.Close()

	targets := make([]string, len(cfg.Tables))
	for i, t := range cfg.Tables {
		targets[i] = t.Target
	}

	approved, err := s.approver.RequestApproval(ctx, connCfg.Database, targets)
	if err != nil {
		return nil, fmt.Errorf("approval failed: %w", err)
	}
	if !approved {
		return nil, fmt.Errorf("truncate of %d table(s) in %q not approved: %w",
			len(targets), connCfg.Database, pgbulk.ErrApprovalDenied)
	}

	if err := dbase.EnsureErrorLog(ctx); err != nil {
		return nil, err
	}

	result := pgbulk.NewRunResult()
	s.logger.Info("Starting load run %s: %d table(s) into %q", result.ID, len(cfg.Tables), connCfg.Database)

	tx, err := dbase.BeginLoad(ctx)
	if err != nil {
		return nil, s.failRun(dbase, "begin", err)
	}

	for _, spec := range cfg.Tables {
		tableResult, stage, loadErr := s.loadTable(ctx, tx, spec, cfg.SourcePath)
		if loadErr != nil {
			s.rollback(tx)
			return nil, s.failRun(dbase, stage, loadErr)
		}
		result.Add(tableResult)
		s.logger.Info("  %-30s %8d rows  (%d rejected, truncate %v, copy %v)",
			spec.Target, tableResult.Rows, tableResult.Rejected,
			tableResult.TruncateElapsed.Round(time.Millisecond),
			tableResult.CopyElapsed.Round(time.Millisecond))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, s.failRun(dbase, "commit", err)
	}

	result.Elapsed = time.Since(result.StartedAt)
	s.logger.Info("Load run %s complete: %d rows across %d table(s) in %v",
		result.ID, result.TotalRows, len(result.Tables), result.Elapsed.Round(time.Millisecond))

	return result, nil
}

// loadTable refreshes one table. It reports the stage that failed so the
// error log entry can attribute the failure.
func (s *LoadService) loadTable(ctx context.Context, tx loadTx, spec pgbulk.TableSpec, baseDir string) (pgbulk.TableResult, string, error) {
	res := pgbulk.TableResult{Table: spec.Target}

	stage := "read source " + spec.Source
	reader, err := s.openSource(spec, baseDir)
	if err != nil {
		return res, stage, err
	}
	defer reader.Close()

	stage = "truncate " + spec.Target
	s.logger.Verbose("Truncating %s", spec.Target)
	start := time.Now()
	if err := tx.Truncate(ctx, spec.Target); err != nil {
		return res, stage, err
	}
	res.TruncateElapsed = time.Since(start)

	stage = "copy " + spec.Target
	s.logger.Verbose("Copying %s from %s (batch size %d)", spec.Target, spec.Source, spec.BatchSize)
	start = time.Now()
	for {
		batch, err := reader.ReadBatch(spec.BatchSize)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, "read source " + spec.Source, err
		}

		n, err := tx.Copy(ctx, spec.Target, reader.Columns(), batch)
		if err != nil {
			return res, stage, err
		}
		res.Rows += n
	}
	res.CopyElapsed = time.Since(start)
	res.Rejected = int(reader.Rejected())
	res.SourceChecksum = reader.Checksum()

	return res, "", nil
}

// rollback aborts the load transaction on a detached context: the original
// may already be cancelled, and an unreachable server rolls back on
// disconnect anyway.
func (s *LoadService) rollback(tx loadTx) {
	ctx, cancel := context.WithTimeout(context.Background(), errlogTimeout)
	defer cancel()
	if err := tx.Rollback(ctx); err != nil {
		s.logger.Error("Rollback failed: %v", err)
	}
}

// failRun records the failure in the error log table and wraps the error.
// The insert uses a fresh context so it proceeds even when the run's context
// caused the failure.
func (s *LoadService) failRun(dbase database, stage string, cause error) error {
	s.logger.Error("Load failed during %s: %v", stage, cause)

	logCtx, cancel := context.WithTimeout(context.Background(), errlogTimeout)
	defer cancel()

	entry := errlog.FromError(stage, cause)
	if err := dbase.LogFailure(logCtx, entry); err != nil {
		s.logger.Error("Could not write error log entry: %v", err)
	} else {
		s.logger.Verbose("Error log entry %s written for stage %q", entry.ID, stage)
	}

	return fmt.Errorf("%s: %w", stage, errors.Join(pgbulk.ErrLoadFailed, cause))
}

// resolveConnection parses the connection string and applies the config's
// cloud authentication settings.
func (s *LoadService) resolveConnection(cfg pgbulk.LoadConfig) (*pgbulk.ConnectionConfig, error) {
	connCfg, err := db.ParseConnectionString(cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, pgbulk.ErrInvalidConfig)
	}

	if cfg.AuthMethod != pgbulk.AuthMethodStandard {
		connCfg.AuthMethod = cfg.AuthMethod
		connCfg.AzureTenantID = cfg.AzureTenantID
		connCfg.AzureClientID = cfg.AzureClientID
		connCfg.AzureClientSecret = cfg.AzureClientSecret
		connCfg.AWSRegion = cfg.AWSRegion
		connCfg.GoogleInstance = cfg.GoogleInstance
	}

	return connCfg, nil
}

// applyRejectDir gives tables without an explicit reject file a companion
// file under the configured reject directory.
func applyRejectDir(cfg *pgbulk.LoadConfig) {
	if cfg.RejectDir == "" {
		return
	}
	for i := range cfg.Tables {
		if cfg.Tables[i].RejectFile != "" {
			continue
		}
		name := strings.ReplaceAll(cfg.Tables[i].Target, ".", "_") + ".rejected"
		cfg.Tables[i].RejectFile = filepath.Join(cfg.RejectDir, name)
	}
}

func resolvePath(path, baseDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
