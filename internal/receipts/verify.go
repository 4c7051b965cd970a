// =============================================================================
// Expense to Invoice Converter - Verification Pass
// =============================================================================
//
// Read-only sanity check over an invoice record set: partitions records
// into resolved (image reference set and the file actually on disk) and
// unresolved, and reports the counts. Run before uploading to catch files
// that were deleted or never matched.
//
// =============================================================================

package receipts

import (
	"path/filepath"

	"github.com/blm-finops/expense-invoice-converter/internal/types"
	"github.com/blm-finops/expense-invoice-converter/pkg/utils"
)

// Report is the result of a verification pass.
type Report struct {
	// Total is the number of records examined.
	Total int

	// Resolved counts records whose image file exists in the output dir.
	Resolved int

	// Unresolved counts the rest: placeholder references, or references
	// to files no longer on disk.
	Unresolved int

	// UnresolvedTokens lists the tokens still needing a receipt file.
	UnresolvedTokens []string
}

// Complete reports whether every record has a receipt on disk.
func (r Report) Complete() bool {
	return r.Unresolved == 0
}

// Verify partitions the record set without mutating anything. A record is
// resolved only when its reference is a real file name and that file is
// present in the output directory; a dangling reference counts as
// unresolved.
func Verify(records []types.InvoiceRecord, outputDir string) Report {
	report := Report{Total: len(records)}

	for i := range records {
		rec := &records[i]
		if rec.Resolved() && utils.FileExists(filepath.Join(outputDir, rec.ImageFileSpec)) {
			report.Resolved++
			continue
		}
		report.Unresolved++
		report.UnresolvedTokens = append(report.UnresolvedTokens, rec.Token())
	}

	return report
}
