package db

import (
	"strings"
	"testing"

	"github.com/vvka-141/pgbulk/internal/config"
	"github.com/vvka-141/pgbulk/pkg/pgbulk"
)

func TestResolveConnectionParams_ConnectionStringFlag(t *testing.T) {
	cfg, err := ResolveConnectionParams(
		"postgresql://loader:pw@db.example.com:5433/bronze?sslmode=require",
		nil, nil, nil, nil,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host != "db.example.com" || cfg.Port != 5433 || cfg.Database != "bronze" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.SSLMode != "require" {
		t.Errorf("expected sslmode require, got %q", cfg.SSLMode)
	}
}

func TestResolveConnectionParams_ConflictingFlags(t *testing.T) {
	_, err := ResolveConnectionParams(
		"postgresql://loader@localhost/bronze",
		&GranularConnFlags{Host: "otherhost"},
		nil, nil, nil,
	)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if !strings.Contains(err.Error(), "--connection") {
		t.Errorf("error should mention the conflicting flag, got: %v", err)
	}
}

func TestResolveConnectionParams_DatabaseFlagOverridesConnString(t *testing.T) {
	cfg, err := ResolveConnectionParams(
		"postgresql://loader@localhost/bronze",
		&GranularConnFlags{Database: "staging"},
		nil, nil, nil,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database != "staging" {
		t.Errorf("expected -d to override connection string database, got %q", cfg.Database)
	}
}

func TestResolveConnectionParams_DatabaseURLFallback(t *testing.T) {
	env := &EnvVars{DATABASE_URL: "postgresql://app:pw@heroku.example.com:5432/appdb"}

	cfg, err := ResolveConnectionParams("", nil, nil, env, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host != "heroku.example.com" || cfg.Database != "appdb" {
		t.Errorf("expected DATABASE_URL to be used, got %+v", cfg)
	}
}

func TestResolveConnectionParams_GranularFlagsSkipDatabaseURL(t *testing.T) {
	env := &EnvVars{DATABASE_URL: "postgresql://app@heroku.example.com/appdb"}
	flags := &GranularConnFlags{Host: "localhost", Username: "loader"}

	cfg, err := ResolveConnectionParams("", flags, nil, env, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host != "localhost" {
		t.Errorf("granular flags should win over DATABASE_URL, got host %q", cfg.Host)
	}
}

func TestResolveConnectionParams_Precedence(t *testing.T) {
	project := &config.ProjectConfig{
		Connection: config.ConnectionConfig{
			Host:     "yaml-host",
			Port:     6000,
			Username: "yaml-user",
			Database: "yaml-db",
			SSLMode:  "verify-full",
		},
	}
	env := &EnvVars{
		PGHOST:     "env-host",
		PGPORT:     "5999",
		PGPASSWORD: "env-pass",
	}
	flags := &GranularConnFlags{Host: "flag-host"}

	cfg, err := ResolveConnectionParams("", flags, nil, env, project)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Host != "flag-host" {
		t.Errorf("flag should beat env and yaml for host, got %q", cfg.Host)
	}
	if cfg.Port != 5999 {
		t.Errorf("env should beat yaml for port, got %d", cfg.Port)
	}
	if cfg.Username != "yaml-user" {
		t.Errorf("yaml should fill unset username, got %q", cfg.Username)
	}
	if cfg.Database != "yaml-db" {
		t.Errorf("yaml should fill unset database, got %q", cfg.Database)
	}
	if cfg.Password != "env-pass" {
		t.Errorf("password should come from PGPASSWORD, got %q", cfg.Password)
	}
	if cfg.SSLMode != "verify-full" {
		t.Errorf("yaml should fill unset sslmode, got %q", cfg.SSLMode)
	}
}

func TestResolveConnectionParams_InvalidPGPORT(t *testing.T) {
	env := &EnvVars{PGPORT: "not-a-number"}
	_, err := ResolveConnectionParams("", nil, nil, env, nil)
	if err == nil {
		t.Fatal("expected error for invalid $PGPORT")
	}
}

func TestResolveConnectionParams_Defaults(t *testing.T) {
	cfg, err := ResolveConnectionParams("", nil, nil, &EnvVars{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host != "localhost" || cfg.Port != 5432 || cfg.SSLMode != "prefer" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.AuthMethod != pgbulk.AuthMethodStandard {
		t.Errorf("expected standard auth, got %v", cfg.AuthMethod)
	}
}

func TestResolveConnectionParams_AzureAuth(t *testing.T) {
	env := &EnvVars{
		AZURE_TENANT_ID:     "env-tenant",
		AZURE_CLIENT_ID:     "env-client",
		AZURE_CLIENT_SECRET: "env-secret",
	}
	flags := &CloudFlags{AzureTenantID: "flag-tenant"}

	cfg, err := ResolveConnectionParams("", nil, flags, env, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AuthMethod != pgbulk.AuthMethodAzureEntraID {
		t.Fatalf("expected Azure auth, got %v", cfg.AuthMethod)
	}
	if cfg.AzureTenantID != "flag-tenant" {
		t.Errorf("flag should override env tenant, got %q", cfg.AzureTenantID)
	}
	if cfg.AzureClientID != "env-client" {
		t.Errorf("env client should fill unset flag, got %q", cfg.AzureClientID)
	}
	if cfg.AzureClientSecret != "env-secret" {
		t.Errorf("secret should come from env, got %q", cfg.AzureClientSecret)
	}
}

func TestResolveConnectionParams_AzureDefaultCredentialChain(t *testing.T) {
	flags := &CloudFlags{Azure: true}

	cfg, err := ResolveConnectionParams("", nil, flags, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AuthMethod != pgbulk.AuthMethodAzureEntraID {
		t.Fatalf("expected Azure auth from bare --azure, got %v", cfg.AuthMethod)
	}
	if cfg.AzureTenantID != "" || cfg.AzureClientID != "" {
		t.Errorf("expected no explicit credentials, got tenant %q client %q",
			cfg.AzureTenantID, cfg.AzureClientID)
	}
}

func TestResolveConnectionParams_AzureAuthMethodFromYAML(t *testing.T) {
	project := &config.ProjectConfig{
		Connection: config.ConnectionConfig{AuthMethod: "azure"},
	}

	cfg, err := ResolveConnectionParams("", nil, nil, nil, project)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AuthMethod != pgbulk.AuthMethodAzureEntraID {
		t.Fatalf("expected Azure auth from pgbulk.yaml, got %v", cfg.AuthMethod)
	}
}

func TestResolveConnectionParams_AWSAuth(t *testing.T) {
	flags := &CloudFlags{AWSRegion: "eu-west-1"}

	cfg, err := ResolveConnectionParams("", nil, flags, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AuthMethod != pgbulk.AuthMethodAWSIAM {
		t.Fatalf("expected AWS IAM auth, got %v", cfg.AuthMethod)
	}
	if cfg.AWSRegion != "eu-west-1" {
		t.Errorf("expected region eu-west-1, got %q", cfg.AWSRegion)
	}
}

func TestResolveConnectionParams_GoogleAuth(t *testing.T) {
	project := &config.ProjectConfig{
		Connection: config.ConnectionConfig{GoogleInstance: "proj:region:inst"},
	}

	cfg, err := ResolveConnectionParams("", nil, nil, nil, project)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AuthMethod != pgbulk.AuthMethodGoogleIAM {
		t.Fatalf("expected Google IAM auth, got %v", cfg.AuthMethod)
	}
	if cfg.GoogleInstance != "proj:region:inst" {
		t.Errorf("expected yaml instance, got %q", cfg.GoogleInstance)
	}
}

func TestResolveConnectionParams_ConflictingCloudAuth(t *testing.T) {
	flags := &CloudFlags{AWSRegion: "us-east-1", GoogleInstance: "p:r:i"}

	_, err := ResolveConnectionParams("", nil, flags, nil, nil)
	if err == nil {
		t.Fatal("expected error for conflicting cloud auth flags")
	}
}
