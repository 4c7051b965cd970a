// =============================================================================
// Expense to Invoice Converter - Root Command
// =============================================================================
//
// The root command for the Cobra CLI. All other commands attach here.
//
// COBRA CLI STRUCTURE:
//   rootCmd (invoicer)
//   ├── processCmd  (invoicer process)  - transform exports to invoice CSV
//   ├── receiptsCmd (invoicer receipts) - locate and place receipt files
//   ├── verifyCmd   (invoicer verify)   - check receipt resolution state
//   └── versionCmd  (invoicer version)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/blm-finops/expense-invoice-converter/internal/config"
	"github.com/blm-finops/expense-invoice-converter/internal/logging"
)

// cfgFile holds the path to the configuration file.
// Overridden with the --config flag.
var cfgFile string

// verbose enables debug logging when set.
var verbose bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "invoicer",
	Short: "Expense to Invoice Converter - Transform card expense exports into invoice upload CSVs",
	Long: `Expense to Invoice Converter is a CLI tool that transforms expense-report
CSV/XLSX exports into the invoice CSV format the accounting system ingests,
and manages the matching receipt files.

Workflow:
  invoicer process    # transform exports in the input folder to invoice CSVs
  (download receipts via the generated URL list / opener script)
  invoicer receipts   # find downloaded receipts, rename and convert to PDF
  invoicer verify     # check which invoices still lack a receipt file

Key behavior:
  - Credits (non-positive amounts) are filtered out, never invoiced
  - Invoice numbers are deterministic checksums of the transaction reference
  - Receipt matching is by filename token, tolerant of download order`,

	Run: func(cmd *cobra.Command, args []string) {
		// No subcommand: print the help message.
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and runs it.
// Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// setup loads the configuration and builds the process logger. Every
// subcommand starts here.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}

	return cfg, logging.New(level), nil
}
