// =============================================================================
// Expense to Invoice Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Expense to Invoice Converter CLI.
// It initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   invoicer process    - Transform expense exports into invoice CSVs
//   invoicer receipts   - Locate and attach downloaded receipt files
//   invoicer verify     - Check receipt resolution state before upload
//   invoicer version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Core business logic (not for external import)
//   - pkg/       : Shared utilities
//
// =============================================================================

package main

import (
	"github.com/blm-finops/expense-invoice-converter/cmd"
)

func main() {
	cmd.Execute()
}
