// =============================================================================
// Expense to Invoice Converter - Verify Command
// =============================================================================
//
// The 'verify' command runs the read-only verification pass: it partitions
// an invoice CSV's records into resolved (receipt file present on disk)
// and unresolved, and prints the counts and outstanding tokens. Nothing is
// mutated; run it as the final sanity check before uploading.
//
// COMMAND USAGE:
//   invoicer verify [--invoice-file <path>]
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

// verifyFile is the invoice CSV to verify (empty = latest in output).
var verifyFile string

// verifyCmd represents the 'verify' command.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check which invoices have a receipt file on disk",
	Long: `The verify command checks every record of an invoice CSV against the
output directory: a record counts as resolved only when its image reference
is a real file name and that file exists. Counts and the unresolved tokens
are printed; nothing is modified.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runVerify()
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(
		&verifyFile,
		"invoice-file",
		"",
		"Invoice CSV to verify (default: most recent in the output directory)",
	)
}

// runVerify executes the verification pass and prints the report.
func runVerify() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	csvPath := verifyFile
	if csvPath == "" {
		csvPath, err = invoice.FindLatest(cfg.OutputDir)
		if err != nil {
			return err
		}
	}

	records, err := invoice.ReadFile(csvPath)
	if err != nil {
		return err
	}

	report := receipts.Verify(records, cfg.OutputDir)

	log.Info().
		Str("file", filepath.Base(csvPath)).
		Int("total", report.Total).
		Int("resolved", report.Resolved).
		Int("unresolved", report.Unresolved).
		Msg("verification complete")

	fmt.Printf("Invoices:   %d\n", report.Total)
	fmt.Printf("Resolved:   %d\n", report.Resolved)
	fmt.Printf("Unresolved: %d\n", report.Unresolved)
	if !report.Complete() {
		fmt.Println("\nInvoices still missing a receipt file:")
		for _, token := range report.UnresolvedTokens {
			fmt.Printf("  - %s\n", token)
		}
	}

	return nil
}
