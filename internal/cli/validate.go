package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgbulk/internal/config"
	"github.com/vvka-141/pgbulk/pkg/pgbulk"
)

var validateCmd = &cobra.Command{
	Use:   "validate <project_path>",
	Short: "Check a project without touching the database",
	Long: `Validate checks pgbulk.yaml and the source files it references without
connecting to PostgreSQL.

Checks performed:
- pgbulk.yaml parses and every table entry has a source and a valid target
- every referenced source file exists and is readable
- delimiters, batch sizes, and tolerances are well-formed

Examples:
  pgbulk validate ./bronze
  pgbulk validate .`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	sourcePath := args[0]

	projectCfg, err := config.Load(sourcePath)
	if err != nil {
		return err
	}

	tables := projectCfg.TableSpecs()
	if len(tables) == 0 {
		return fmt.Errorf("no tables configured in %s: %w",
			config.ConfigFileName, pgbulk.ErrInvalidConfig)
	}

	var problems []error
	for _, spec := range tables {
		if err := spec.Validate(); err != nil {
			problems = append(problems, err)
			continue
		}

		src := spec.Source
		if !filepath.IsAbs(src) {
			src = filepath.Join(sourcePath, src)
		}
		if _, err := os.Stat(src); err != nil {
			if os.IsNotExist(err) {
				problems = append(problems,
					fmt.Errorf("table %s: source file %s does not exist", spec.Target, spec.Source))
			} else {
				problems = append(problems,
					fmt.Errorf("table %s: cannot read source file %s: %v", spec.Target, spec.Source, err))
			}
			continue
		}

		fmt.Fprintf(os.Stderr, "  ✓ %s <- %s\n", spec.Target, spec.Source)
	}

	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "  ✗ %v\n", p)
		}
		joined := errors.Join(append([]error{pgbulk.ErrInvalidConfig}, problems...)...)
		return fmt.Errorf("%d problem(s) found: %w", len(problems), joined)
	}

	fmt.Fprintf(os.Stderr, "\n✓ %d table(s) configured, all source files present\n", len(tables))
	return nil
}
