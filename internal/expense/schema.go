// =============================================================================
// Expense to Invoice Converter - Input Schema
// =============================================================================
//
// Column names of the expense-report export, and the schema presence check.
// The header strings are matched exactly as the exporter writes them; the
// long description header in particular is verbatim from the export.
//
// =============================================================================

package expense

import (
	"github.com/blm-finops/expense-invoice-converter/internal/types"
)

// Column headers of the expense export.
const (
	ColAmount      = "Billing Total Gross Amount"
	ColDate        = "Transaction Date"
	ColVendor      = "Vendor Name"
	ColDescription = "Description 1 (what the user types - typically purpose of expense)"
	ColGLAccountBA = "Field 1 value code"
	ColGLAccountBB = "Field 2 value code"
	ColGLAccountBC = "Field 3 value code"

	// Optional columns.
	ColReferenceID = "Transaction Ref. ID"
	ColImageURL    = "Image URL"
)

// RequiredColumns returns the headers that must be present, in schema order.
func RequiredColumns() []string {
	return []string{
		ColAmount,
		ColDate,
		ColVendor,
		ColDescription,
		ColGLAccountBA,
		ColGLAccountBB,
		ColGLAccountBC,
	}
}

// validateSchema checks that every required column is present. All missing
// columns are collected and reported together rather than one at a time.
func validateSchema(headers []string, sourceFile string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	var missing []string
	for _, col := range RequiredColumns() {
		if !present[col] {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return &types.SchemaError{Missing: missing, SourceFile: sourceFile}
	}
	return nil
}
