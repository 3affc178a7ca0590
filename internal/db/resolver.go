package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/pgbulk/internal/config"
	"github.com/vvka-141/pgbulk/pkg/pgbulk"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Note: Password is NOT included as a CLI flag for security reasons.
// Use $PGPASSWORD or a connection string with an embedded password.
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no connection-related granular flags were provided.
// Database is excluded because it can override the database named in a
// connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// CloudFlags represents cloud authentication CLI flags. Each provider's flags
// override the corresponding environment variables.
// Note: the Azure client secret is NOT a CLI flag for security reasons.
// Use AZURE_CLIENT_SECRET instead.
type CloudFlags struct {
	Azure          bool   // Requests Entra ID auth via the DefaultAzureCredential chain
	AzureTenantID  string // Overrides AZURE_TENANT_ID
	AzureClientID  string // Overrides AZURE_CLIENT_ID
	AWSRegion      string // Requests AWS RDS IAM auth for the given region
	GoogleInstance string // Requests Cloud SQL IAM auth (project:region:instance)
}

// EnvVars represents PostgreSQL standard environment variables plus the cloud
// provider variables the resolver consults.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST       string
	PGPORT       string
	PGUSER       string
	PGPASSWORD   string
	PGDATABASE   string
	PGSSLMODE    string
	DATABASE_URL string // Full connection string (Heroku/Rails convention)

	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
}

// LoadFromEnvironment loads PostgreSQL and cloud provider environment variables.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:              os.Getenv("PGHOST"),
		PGPORT:              os.Getenv("PGPORT"),
		PGUSER:              os.Getenv("PGUSER"),
		PGPASSWORD:          os.Getenv("PGPASSWORD"),
		PGDATABASE:          os.Getenv("PGDATABASE"),
		PGSSLMODE:           os.Getenv("PGSSLMODE"),
		DATABASE_URL:        os.Getenv("DATABASE_URL"),
		AZURE_TENANT_ID:     os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:     os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET: os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// ResolveConnectionParams resolves connection parameters using
// PostgreSQL-standard precedence:
//
//  1. Connection string flag (--connection), parsed directly
//  2. Granular flags (-h, -p, -U, -d)
//  3. Environment variables (PGHOST, PGPORT, ...)
//  4. DATABASE_URL environment variable
//  5. pgbulk.yaml connection section
//  6. Defaults (localhost:5432, prefer SSL)
//
// Cloud authentication is applied afterwards: --google-instance selects Cloud
// SQL IAM, --aws-region selects AWS RDS IAM, and Azure credentials (flags or
// AZURE_* environment) select Entra ID. Requesting more than one provider is
// an error.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*pgbulk.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U)\n" +
				"Choose one approach:\n" +
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/bronze\"\n" +
				"  2. Granular flags: -h localhost -p 5432 -U loader -d bronze\n" +
				"  3. Environment variables: export PGHOST=localhost PGPORT=5432 PGUSER=loader",
		)
	}

	var cfg *pgbulk.ConnectionConfig
	var err error

	switch {
	case connStringFlag != "":
		cfg, err = resolveFromConnectionString(connStringFlag, granularFlags, envVars)
	case granularFlags.IsEmpty() && envVars.DATABASE_URL != "":
		cfg, err = resolveFromConnectionString(envVars.DATABASE_URL, granularFlags, envVars)
	default:
		cfg, err = resolveFromGranularParams(granularFlags, envVars, projectConfig)
	}
	if err != nil {
		return nil, err
	}

	if err := applyCloudAuth(cfg, cloudFlags, envVars, projectConfig); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveFromConnectionString parses a connection string, applying the
// --database flag and environment fallbacks for parameters the string leaves
// unset (matching libpq behavior).
func resolveFromConnectionString(connStr string, flags *GranularConnFlags, envVars *EnvVars) (*pgbulk.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}

	// -d overrides the database named in the connection string.
	if flags.Database != "" {
		cfg.Database = flags.Database
	}

	if cfg.SSLMode == "" && envVars.PGSSLMODE != "" {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}

	return cfg, nil
}

// resolveFromGranularParams builds a ConnectionConfig from granular flags,
// environment variables and the project config, in that precedence order.
func resolveFromGranularParams(
	flags *GranularConnFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*pgbulk.ConnectionConfig, error) {
	cfg := &pgbulk.ConnectionConfig{
		AuthMethod:       pgbulk.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	// Host: flag > PGHOST > pgbulk.yaml > default
	cfg.Host = firstNonEmpty(flags.Host, envVars.PGHOST, pc.Host, "localhost")

	// Port: flag > PGPORT > pgbulk.yaml > default
	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer", envVars.PGPORT)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = 5432
	}

	// Username: flag > PGUSER > pgbulk.yaml > current OS user
	cfg.Username = firstNonEmpty(flags.Username, envVars.PGUSER, pc.Username,
		os.Getenv("USER"), os.Getenv("USERNAME"))

	cfg.Password = envVars.PGPASSWORD

	// Database: flag > PGDATABASE > pgbulk.yaml
	cfg.Database = firstNonEmpty(flags.Database, envVars.PGDATABASE, pc.Database)

	// SSLMode: flag > PGSSLMODE > pgbulk.yaml > default
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, pc.SSLMode, "prefer")

	return cfg, nil
}

// applyCloudAuth selects the authentication method from cloud flags,
// environment variables and the project config. Flags win over environment,
// environment over config.
func applyCloudAuth(
	cfg *pgbulk.ConnectionConfig,
	flags *CloudFlags,
	env *EnvVars,
	projectConfig *config.ProjectConfig,
) error {
	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	googleInstance := firstNonEmpty(flags.GoogleInstance, pc.GoogleInstance)
	awsRegion := firstNonEmpty(flags.AWSRegion, pc.AWSRegion)
	azureTenantID := firstNonEmpty(flags.AzureTenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
	azureClientID := firstNonEmpty(flags.AzureClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)
	// --azure alone selects the DefaultAzureCredential chain; explicit
	// credentials select Service Principal auth in the connector.
	// pgbulk.yaml requests the same with auth_method: azure.
	azureRequested := flags.Azure || azureTenantID != "" || azureClientID != "" ||
		pc.AuthMethod == "azure"

	requested := 0
	if googleInstance != "" {
		requested++
	}
	if awsRegion != "" {
		requested++
	}
	if azureRequested {
		requested++
	}
	if requested > 1 {
		return fmt.Errorf("conflicting cloud auth settings: choose one of --google-instance, --aws-region, or Azure credentials")
	}

	switch {
	case googleInstance != "":
		cfg.AuthMethod = pgbulk.AuthMethodGoogleIAM
		cfg.GoogleInstance = googleInstance
	case awsRegion != "":
		cfg.AuthMethod = pgbulk.AuthMethodAWSIAM
		cfg.AWSRegion = awsRegion
	case azureRequested:
		cfg.AuthMethod = pgbulk.AuthMethodAzureEntraID
		cfg.AzureTenantID = azureTenantID
		cfg.AzureClientID = azureClientID
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
