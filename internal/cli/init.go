package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgbulk/internal/scaffold"
)

var initCmd = &cobra.Command{
	Use:   "init <target_path>",
	Short: "Initialize a new pgbulk project",
	Long: `Initialize a pgbulk project into the specified directory.

The init command creates:
- pgbulk.yaml with connection settings and a table list
- Sample delimited source files (standard template)
- README with usage instructions

Target directory must be empty or non-existent.

Examples:
  pgbulk init .                    # Initialize in current directory
  pgbulk init ./bronze             # Initialize in ./bronze
  pgbulk init /absolute/path       # Initialize at absolute path

Available templates:
  standard - Sample sources and target DDL for a first load
  minimal  - Just pgbulk.yaml, ready for your own files

Use 'pgbulk init --list' to see available templates.`,
	Args: cobra.MinimumNArgs(0),
	RunE: runInit,
}

var (
	initTemplate string
	initList     bool
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initTemplate, "template", "t", "standard", "Template to use (standard, minimal)")
	initCmd.Flags().BoolVar(&initList, "list", false, "List available templates")
}

func runInit(cmd *cobra.Command, args []string) error {
	if initList {
		templates, err := scaffold.ListTemplates()
		if err != nil {
			return fmt.Errorf("failed to list templates: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Available templates:")
		for _, t := range templates {
			fmt.Fprintf(os.Stderr, "  %s\n", t)
		}
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("target path required\n\nUsage: pgbulk init <target_path> [flags]\n\nExamples:\n  pgbulk init .        # Current directory\n  pgbulk init ./bronze # Subdirectory\n\nUse 'pgbulk init --list' to see available templates")
	}

	targetPath := args[0]

	// Determine project name from target path
	projectName := filepath.Base(targetPath)
	if projectName == "." || projectName == ".." {
		cwd, err := os.Getwd()
		if err == nil {
			projectName = filepath.Base(cwd)
		} else {
			projectName = "project"
		}
	}
	verbose := getVerboseFlag(cmd)

	templates, err := scaffold.ListTemplates()
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	validTemplate := false
	for _, t := range templates {
		if t == initTemplate {
			validTemplate = true
			break
		}
	}
	if !validTemplate {
		return fmt.Errorf("invalid template '%s'. Available templates: %v", initTemplate, templates)
	}

	scaffolder := scaffold.NewScaffolder(verbose)
	if err := scaffolder.CreateProject(projectName, initTemplate, targetPath); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	// Display file tree
	tree, err := scaffold.BuildFileTree(targetPath)
	if err != nil {
		// Non-fatal, just skip tree display
		fmt.Fprintf(os.Stderr, "\n✓ Project initialized successfully in '%s' using template '%s'\n\n", targetPath, initTemplate)
	} else {
		fmt.Fprintf(os.Stderr, "\n✓ Project initialized successfully using template '%s'\n\n", initTemplate)
		fmt.Fprintln(os.Stderr, "Created structure:")
		fmt.Fprint(os.Stderr, tree)
	}

	fmt.Fprintln(os.Stderr, "\nNext steps:")
	if targetPath != "." {
		fmt.Fprintf(os.Stderr, "  cd %s\n", targetPath)
	}
	fmt.Fprintln(os.Stderr, "  pgbulk validate .")
	fmt.Fprintln(os.Stderr, "  pgbulk load . -d mydb")

	return nil
}
