package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const asciiLogo = `             _           _ _
 _ __   __ _| |__  _   _| | | __
| '_ \ / _' | '_ \| | | | | |/ /
| |_) | (_| | |_) | |_| | |   <
| .__/ \__, |_.__/ \__,_|_|_|\_\
|_|    |___/`

var rootCmd = &cobra.Command{
	Use:   "pgbulk",
	Short: "Transactional bulk loader for PostgreSQL",
	Long: asciiLogo + `

pgbulk refreshes PostgreSQL tables from delimited files: each target is
truncated and reloaded via the COPY protocol, and all tables of a run share
one transaction. A failed run rolls back completely and leaves a diagnostic
row in the error log table.

Sources, targets, and per-table settings live in pgbulk.yaml next to the
data files. Connections follow PostgreSQL conventions: flags, PG*
environment variables, then the project file.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  12 - User denied truncate approval
  13 - Load failed and was rolled back
  14 - pgbulk.yaml not found`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for pgbulk")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
