// =============================================================================
// Expense to Invoice Converter - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - expense (input parsing)
//   - transform (invoice derivation)
//   - invoice (output serialization)
//   - receipts (file location and verification)
//
// =============================================================================

package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// ImagePlaceholder is the sentinel written to an invoice record's image file
// spec until a receipt file has actually been resolved on disk. The angle
// brackets are illegal in filenames on every supported platform, so the
// sentinel can never collide with a real file spec.
const ImagePlaceholder = "<<UNRESOLVED>>"

// CanonicalDateFormat is the textual date form used inside the invoice
// number hash input.
const CanonicalDateFormat = "2006-01-02"

// OutputDateFormat is the MM/DD/YY form used for invoice and due dates.
const OutputDateFormat = "01/02/06"

// =============================================================================
// EXPENSE RECORD
// =============================================================================

// ExpenseRecord is a single row from the expense-report export. Records are
// immutable once parsed; the transform engine reads them and discards them.
type ExpenseRecord struct {
	// Amount is the billed gross amount. Credits are negative.
	Amount decimal.Decimal

	// TransactionDate is the parsed transaction date.
	TransactionDate time.Time

	// Vendor is the merchant name as exported.
	Vendor string

	// Description is the free-text purpose the cardholder typed.
	Description string

	// GLAccountBA, GLAccountBB and GLAccountBC are the hierarchical ledger
	// codes (parent, child 1, child 2). Carried through unchanged.
	GLAccountBA string
	GLAccountBB string
	GLAccountBC string

	// ReferenceID is the export's transaction reference id. Optional.
	ReferenceID string

	// ReceiptURL is the hosted receipt image URL. Optional.
	ReceiptURL string

	// RowNumber is the 1-based row number in the source file, for error
	// reporting.
	RowNumber int
}

// =============================================================================
// INVOICE RECORD
// =============================================================================

// InvoiceRecord is a single row of the target invoice upload format.
// Everything except ImageFileSpec is fixed at transform time; ImageFileSpec
// starts at ImagePlaceholder and is replaced by the receipt locator once a
// matching file has been placed in the output directory.
type InvoiceRecord struct {
	// Sequence is the 1-based position in the filtered batch.
	Sequence int

	// CompanyCode and VendorAccount are fixed per batch, from configuration.
	CompanyCode   string
	VendorAccount string

	// InvoiceAmount equals the expense amount exactly. No re-rounding.
	InvoiceAmount decimal.Decimal

	// HashInput is the string the invoice number checksum was computed from,
	// emitted alongside the number so uploads can be audited. Its form is
	// "<base id>,<date YYYY-MM-DD>".
	HashInput string

	// InvoiceNumber is an 8-character uppercase hex checksum of HashInput.
	// Deterministic for a given (reference id, transaction date) pair.
	InvoiceNumber string

	// InvoiceDate and DueDate are in MM/DD/YY form.
	InvoiceDate string
	DueDate     string

	// Description joins the vendor name and the cardholder's purpose text.
	Description string

	// Ledger codes, passed through positionally.
	GLAccountBA string
	GLAccountBB string
	GLAccountBC string

	// ImageFileSpec is the base name of the resolved receipt PDF, or
	// ImagePlaceholder while unresolved.
	ImageFileSpec string

	// ReceiptURL is carried along for the download helper artifacts. It is
	// not part of the upload column set.
	ReceiptURL string
}

// Resolved reports whether a receipt file has been assigned to this record.
func (r *InvoiceRecord) Resolved() bool {
	return r.ImageFileSpec != "" && r.ImageFileSpec != ImagePlaceholder
}

// Token returns the per-record identifier used to find the matching receipt
// file on disk. It is recovered from the hash input so that a record read
// back from a previously written output file yields the same token as the
// record the transform engine produced: the base id (everything before the
// trailing date component), truncated to eight characters.
func (r *InvoiceRecord) Token() string {
	base := r.HashInput
	if i := strings.LastIndex(base, ","); i >= 0 {
		base = base[:i]
	}
	if base == "" {
		return fmt.Sprintf("txn_%04d", r.Sequence)
	}
	if len(base) > 8 {
		base = base[:8]
	}
	return base
}

// =============================================================================
// ERROR TYPES
// =============================================================================

// SchemaError reports required input columns that are missing from the
// source file. It is fatal: no record is processed when it occurs.
type SchemaError struct {
	// Missing lists the absent column headers, in schema order.
	Missing []string

	// SourceFile is the input file the schema check ran against.
	SourceFile string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("input %s is missing required columns: %s",
		e.SourceFile, strings.Join(e.Missing, ", "))
}

// DateParseError reports a transaction date that could not be parsed. It
// fails the offending record only; the rest of the batch continues.
type DateParseError struct {
	// Value is the raw date text that failed to parse.
	Value string

	// RowNumber is the 1-based source row.
	RowNumber int
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("row %d: unparseable transaction date %q", e.RowNumber, e.Value)
}

// ConversionError reports a receipt file that could not be converted to the
// target document format. The source file is left untouched and the record
// keeps its placeholder.
type ConversionError struct {
	// SourcePath is the matched receipt file.
	SourcePath string

	// Cause is the underlying decode or encode failure.
	Cause error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s: %v", e.SourcePath, e.Cause)
}

func (e *ConversionError) Unwrap() error { return e.Cause }

// ErrNoEligibleRecords is the non-fatal warning reported when filtering
// leaves nothing to invoice. An empty output file is still valid.
var ErrNoEligibleRecords = fmt.Errorf("no eligible records after filtering (all credits or invalid)")

// ParseDate parses a transaction date from the export's textual formats.
// The export is not consistent about its date column: ISO dates and US
// slash dates both occur in the wild, so each known layout is tried in
// order.
func ParseDate(value string) (time.Time, error) {
	layouts := []string{
		"2006-01-02",
		"01/02/2006",
		"1/2/2006",
		"01/02/06",
		"2006-01-02 15:04:05",
	}

	value = strings.TrimSpace(value)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date format: %q", value)
}
