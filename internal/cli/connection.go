package cli

import (
	"os"

	"github.com/vvka-141/pgbulk/internal/config"
	"github.com/vvka-141/pgbulk/internal/db"
	"github.com/vvka-141/pgbulk/pkg/pgbulk"
)

// resolveConnection consolidates connection resolution: connection string
// flag, granular flags, cloud auth flags, environment variables, and the
// project config, in PostgreSQL precedence order.
//
// PGBULK_CONNECTION_STRING acts as a fallback for --connection, but unlike
// the flag it yields to granular flags instead of conflicting with them.
// DATABASE_URL is handled inside the resolver with the same yielding
// behavior.
func resolveConnection(
	connStringFlag string,
	granularFlags *db.GranularConnFlags,
	cloudFlags *db.CloudFlags,
	projectConfig *config.ProjectConfig,
) (*pgbulk.ConnectionConfig, error) {
	connString := connStringFlag
	if connString == "" && granularFlags.IsEmpty() {
		connString = os.Getenv("PGBULK_CONNECTION_STRING")
	}

	envVars := db.LoadFromEnvironment()

	return db.ResolveConnectionParams(
		connString,
		granularFlags,
		cloudFlags,
		envVars,
		projectConfig,
	)
}
