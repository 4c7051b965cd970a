// =============================================================================
// Expense to Invoice Converter - Receipts Command
// =============================================================================
//
// The 'receipts' command runs the receipt file locator over a previously
// written invoice CSV: it searches the configured download directories for
// files matching each record's token, moves and renames matches into the
// output directory (converting images to PDF), and rewrites the CSV with
// the resolved image references.
//
// COMMAND USAGE:
//   invoicer receipts [flags]
//
// FLAGS:
//   --invoice-file : Operate on a specific invoice CSV (default: latest)
//
// The pass is idempotent: records whose files were placed by an earlier
// run are detected and skipped, so it is safe to run after every download
// batch until everything resolves.
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blm-finops/expense-invoice-converter/internal/invoice"
	"github.com/blm-finops/expense-invoice-converter/internal/receipts"
)

// invoiceFile is the invoice CSV to operate on (empty = latest in output).
var invoiceFile string

// receiptsCmd represents the 'receipts' command.
var receiptsCmd = &cobra.Command{
	Use:   "receipts",
	Short: "Locate downloaded receipt files and attach them to invoices",
	Long: `The receipts command scans the configured search directories (download
folder, desktop, any registered extras) for files whose names contain each
invoice's token, then moves matches into the output directory under the
standard name and converts them to PDF.

Unmatched invoices keep their placeholder and are reported in the summary;
run the command again after downloading more files. Matched files that fail
conversion are reported per file and left untouched at the source.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runReceipts()
	},
}

func init() {
	rootCmd.AddCommand(receiptsCmd)

	receiptsCmd.Flags().StringVar(
		&invoiceFile,
		"invoice-file",
		"",
		"Invoice CSV to operate on (default: most recent in the output directory)",
	)
}

// runReceipts executes one locator pass and persists the results.
func runReceipts() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	csvPath := invoiceFile
	if csvPath == "" {
		csvPath, err = invoice.FindLatest(cfg.OutputDir)
		if err != nil {
			return err
		}
	}
	log.Info().Str("file", filepath.Base(csvPath)).Msg("running receipt locator")

	records, err := invoice.ReadFile(csvPath)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		log.Info().Msg("invoice file has no records")
		return nil
	}

	locator := receipts.NewLocator(cfg, log)
	summary := locator.Run(records)

	// Persist the resolved references. Only the image file spec column
	// changes; everything else round-trips untouched.
	if summary.Resolved > 0 || summary.AlreadyPlaced > 0 {
		if err := invoice.WriteFile(csvPath, records); err != nil {
			return fmt.Errorf("failed to rewrite invoice CSV: %w", err)
		}
	}

	for _, failure := range summary.Failures {
		log.Warn().Err(failure).Msg("conversion failure")
	}
	if summary.Missing > 0 {
		log.Warn().Strs("tokens", summary.MissingTokens).
			Msg("no receipt file found for some invoices; download them and run again")
	}

	return nil
}
