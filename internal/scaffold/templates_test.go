package scaffold

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/pgbulk/internal/config"
)

// Every template must ship a parseable pgbulk.yaml whose table sources
// point at files inside the template.
func TestTemplates_ConfigParsesAndSourcesExist(t *testing.T) {
	templates, err := ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates failed: %v", err)
	}
	if len(templates) == 0 {
		t.Fatal("no embedded templates found")
	}

	for _, name := range templates {
		t.Run(name, func(t *testing.T) {
			root := path.Join("templates", name)

			data, err := templatesFS.ReadFile(path.Join(root, "pgbulk.yaml"))
			if err != nil {
				t.Fatalf("template %q missing pgbulk.yaml: %v", name, err)
			}

			rendered := strings.ReplaceAll(string(data), "{{PROJECT_NAME}}", "sample")

			var cfg config.ProjectConfig
			if err := yaml.Unmarshal([]byte(rendered), &cfg); err != nil {
				t.Fatalf("pgbulk.yaml does not parse: %v", err)
			}

			for _, table := range cfg.Tables {
				if table.Source == "" || table.Target == "" {
					t.Errorf("table entry missing source or target: %+v", table)
					continue
				}
				if _, err := fs.Stat(templatesFS, path.Join(root, table.Source)); err != nil {
					t.Errorf("source %q not present in template: %v", table.Source, err)
				}
			}
		})
	}
}

func TestTemplates_SpecsNormalize(t *testing.T) {
	data, err := templatesFS.ReadFile("templates/standard/pgbulk.yaml")
	if err != nil {
		t.Fatalf("read standard template: %v", err)
	}

	var cfg config.ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("parse standard template: %v", err)
	}

	specs := cfg.TableSpecs()
	if len(specs) == 0 {
		t.Fatal("standard template has no tables")
	}
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			t.Errorf("spec for %s does not validate: %v", spec.Target, err)
		}
	}
}

func TestTemplates_NoUnknownPlaceholders(t *testing.T) {
	err := fs.WalkDir(templatesFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := templatesFS.ReadFile(p)
		if err != nil {
			return err
		}
		rendered := strings.ReplaceAll(string(content), "{{PROJECT_NAME}}", "x")
		if idx := strings.Index(rendered, "{{"); idx >= 0 {
			return fmt.Errorf("%s contains unreplaced placeholder near %q", p, rendered[idx:min(idx+30, len(rendered))])
		}
		return nil
	})
	if err != nil {
		t.Error(err)
	}
}
