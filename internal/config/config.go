// Package config loads the pgbulk.yaml project file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vvka-141/pgbulk/pkg/pgbulk"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the project file pgbulk looks for in the project directory.
const ConfigFileName = "pgbulk.yaml"

// ConnectionConfig holds the connection section of pgbulk.yaml.
// CLI flags and PostgreSQL environment variables take precedence over it.
type ConnectionConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
}

// TableDefaults holds load settings applied to every table that does not
// override them.
type TableDefaults struct {
	Delimiter string `yaml:"delimiter,omitempty"`
	SkipRows  *int   `yaml:"skip_rows,omitempty"`
	BatchSize int    `yaml:"batch_size,omitempty"`
	MaxErrors int    `yaml:"max_errors,omitempty"`
	KeepNulls bool   `yaml:"keep_nulls,omitempty"`
}

// TableConfig is one entry of the tables list. Pointer fields distinguish
// "not set, use the default" from explicit zero values.
type TableConfig struct {
	Source     string   `yaml:"source"`
	Target     string   `yaml:"target"`
	Columns    []string `yaml:"columns,omitempty"`
	Delimiter  string   `yaml:"delimiter,omitempty"`
	SkipRows   *int     `yaml:"skip_rows,omitempty"`
	BatchSize  *int     `yaml:"batch_size,omitempty"`
	MaxErrors  *int     `yaml:"max_errors,omitempty"`
	KeepNulls  *bool    `yaml:"keep_nulls,omitempty"`
	RejectFile string   `yaml:"reject_file,omitempty"`
}

// ProjectConfig is the parsed pgbulk.yaml.
type ProjectConfig struct {
	Connection    ConnectionConfig `yaml:"connection"`
	Defaults      TableDefaults    `yaml:"defaults"`
	Tables        []TableConfig    `yaml:"tables"`
	ErrorLogTable string           `yaml:"error_log_table,omitempty"`
	RejectDir     string           `yaml:"reject_dir,omitempty"`
	Timeout       string           `yaml:"timeout,omitempty"`
}

// Load reads and parses pgbulk.yaml from the project directory.
// Returns an error wrapping pgbulk.ErrConfigNotFound if the file is absent.
func Load(sourcePath string) (*ProjectConfig, error) {
	configPath := filepath.Join(sourcePath, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", configPath, pgbulk.ErrConfigNotFound)
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}
	return &cfg, nil
}

// TableSpecs converts the tables list into pgbulk.TableSpec values with the
// defaults section merged in. Per-table settings win over defaults; anything
// still unset is filled by TableSpec.Normalize.
func (c *ProjectConfig) TableSpecs() []pgbulk.TableSpec {
	specs := make([]pgbulk.TableSpec, 0, len(c.Tables))
	for _, t := range c.Tables {
		spec := pgbulk.TableSpec{
			Source:     t.Source,
			Target:     t.Target,
			Columns:    t.Columns,
			Delimiter:  t.Delimiter,
			SkipRows:   t.SkipRows,
			KeepNulls:  c.Defaults.KeepNulls,
			MaxErrors:  c.Defaults.MaxErrors,
			RejectFile: t.RejectFile,
		}
		if spec.Delimiter == "" {
			spec.Delimiter = c.Defaults.Delimiter
		}
		if spec.SkipRows == nil {
			spec.SkipRows = c.Defaults.SkipRows
		}
		if t.BatchSize != nil {
			spec.BatchSize = *t.BatchSize
		} else {
			spec.BatchSize = c.Defaults.BatchSize
		}
		if t.MaxErrors != nil {
			spec.MaxErrors = *t.MaxErrors
		}
		if t.KeepNulls != nil {
			spec.KeepNulls = *t.KeepNulls
		}
		spec.Normalize()
		specs = append(specs, spec)
	}
	return specs
}
