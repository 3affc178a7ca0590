// Package testing provides shared helpers for integration tests.
package testing

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/pgbulk/internal/db"
	"github.com/vvka-141/pgbulk/internal/logging"
	"github.com/vvka-141/pgbulk/internal/services"
	"github.com/vvka-141/pgbulk/internal/testinfra"
)

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		ctx := context.Background()
		container, err := testinfra.StartPostgres(ctx)
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test database connection string.
// Priority: PGBULK_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("PGBULK_TEST_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("PGBULK_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// SkipIfShort skips the test when running with -short.
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// GetTestPool opens a pool on the test database and closes it on cleanup.
func GetTestPool(t *testing.T, connString string) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("failed to open test pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// ForceApprover approves every request without interaction.
type ForceApprover struct{}

func (a *ForceApprover) RequestApproval(_ context.Context, _ string, _ []string) (bool, error) {
	return true, nil
}

// DenyingApprover denies every request.
type DenyingApprover struct{}

func (a *DenyingApprover) RequestApproval(_ context.Context, _ string, _ []string) (bool, error) {
	return false, nil
}

// NewTestLoader creates a LoadService wired with the standard connector
// factory, a force approver and a silent logger.
func NewTestLoader(t *testing.T) *services.LoadService {
	t.Helper()

	return services.NewLoadService(
		db.NewConnector,
		&ForceApprover{},
		logging.NewNullLogger(),
	)
}
