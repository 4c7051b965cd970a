// =============================================================================
// Expense to Invoice Converter - Transform Engine
// =============================================================================
//
// This module converts a parsed expense export into the target invoice
// record set. The pipeline per retained row:
//
//   1. Sequence number (1-based position in the filtered set)
//   2. Invoice-number hash input (base id + canonical date)
//   3. Invoice number (crc32 checksum, 8 uppercase hex chars)
//   4. Invoice date (MM/DD/YY)
//   5. Due date (transaction date + configured offset, MM/DD/YY)
//   6. Description (vendor | purpose)
//   7. Ledger code passthrough
//   8. Image file spec placeholder
//
// FILTERING:
//   Rows with a non-positive or unparseable amount are credits/invalid and
//   are dropped silently; credits are not invoiced. An empty result is
//   valid and reported as a warning, not an error.
//
// ERROR HANDLING:
//   An unparseable transaction date fails that record only. Errors are
//   collected and reported as one summary at the end of the batch; the
//   fail_fast setting switches to aborting on the first occurrence.
//
// =============================================================================

package transform

import (
	"fmt"
	"hash/crc32"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/blm-finops/expense-invoice-converter/internal/config"
	"github.com/blm-finops/expense-invoice-converter/internal/expense"
	"github.com/blm-finops/expense-invoice-converter/internal/types"
)

// hashInputDelimiter joins the base id and the canonical date in the
// invoice-number hash input.
const hashInputDelimiter = ","

// maxBaseIDLen caps the reference id contribution to the hash input.
const maxBaseIDLen = 10

// =============================================================================
// ENGINE
// =============================================================================

// Engine transforms expense rows into invoice records. It holds no state
// between runs; the same engine can process any number of batches.
type Engine struct {
	cfg *config.Config
	log zerolog.Logger
}

// New creates a transform engine.
func New(cfg *config.Config, log zerolog.Logger) *Engine {
	return &Engine{cfg: cfg, log: log}
}

// Result is the outcome of one transform run.
type Result struct {
	// Invoices is the ordered output record set. Order matches the
	// filtered input order; sequence numbers are contiguous from 1.
	Invoices []types.InvoiceRecord

	// TotalRows is the number of data rows read from the export.
	TotalRows int

	// FilteredOut counts rows dropped by the amount filter (credits,
	// blank or unparseable amounts).
	FilteredOut int

	// SkippedDates counts rows dropped because their transaction date
	// failed to parse.
	SkippedDates int

	// DateErrors is the collected per-record date failure summary, nil
	// when every retained row parsed cleanly.
	DateErrors error

	// Warning is types.ErrNoEligibleRecords when filtering left nothing
	// to invoice, nil otherwise. Never fatal.
	Warning error
}

// Run executes the transform over a parsed export. The only fatal outcome
// in collect mode is nothing at all: schema problems are caught upstream at
// parse time, and per-record failures land in the result. With fail_fast
// enabled, the first date failure aborts the batch.
func (e *Engine) Run(data *expense.Data) (*Result, error) {
	result := &Result{TotalRows: len(data.Rows)}

	var dateErrs *multierror.Error

	for _, row := range data.Rows {
		amount, ok := parseAmount(row.Field(expense.ColAmount))
		if !ok || !amount.IsPositive() {
			// Business rule: credits and refunds are not invoiced.
			result.FilteredOut++
			continue
		}

		txnDate, err := types.ParseDate(row.Field(expense.ColDate))
		if err != nil {
			parseErr := &types.DateParseError{
				Value:     row.Field(expense.ColDate),
				RowNumber: row.Number,
			}
			if e.cfg.FailFast {
				return nil, parseErr
			}
			e.log.Warn().Int("row", row.Number).Str("value", parseErr.Value).
				Msg("skipping record with unparseable transaction date")
			dateErrs = multierror.Append(dateErrs, parseErr)
			result.SkippedDates++
			continue
		}

		record := types.ExpenseRecord{
			Amount:          amount,
			TransactionDate: txnDate,
			Vendor:          row.Field(expense.ColVendor),
			Description:     row.Field(expense.ColDescription),
			GLAccountBA:     row.Field(expense.ColGLAccountBA),
			GLAccountBB:     row.Field(expense.ColGLAccountBB),
			GLAccountBC:     row.Field(expense.ColGLAccountBC),
			ReferenceID:     row.Field(expense.ColReferenceID),
			ReceiptURL:      row.Field(expense.ColImageURL),
			RowNumber:       row.Number,
		}

		sequence := len(result.Invoices) + 1
		result.Invoices = append(result.Invoices, e.derive(record, sequence))
	}

	result.DateErrors = dateErrs.ErrorOrNil()

	if len(result.Invoices) == 0 {
		result.Warning = types.ErrNoEligibleRecords
	}

	e.log.Info().
		Int("total", result.TotalRows).
		Int("invoiced", len(result.Invoices)).
		Int("filtered", result.FilteredOut).
		Int("skipped_dates", result.SkippedDates).
		Msg("transform complete")

	return result, nil
}

// derive computes one invoice record from a retained expense record.
func (e *Engine) derive(rec types.ExpenseRecord, sequence int) types.InvoiceRecord {
	hashInput := HashInput(rec.ReferenceID, sequence, rec.TransactionDate)

	glBA := rec.GLAccountBA
	if glBA == "" {
		glBA = e.cfg.DefaultGLAccount
	}

	return types.InvoiceRecord{
		Sequence:      sequence,
		CompanyCode:   e.cfg.CompanyCode,
		VendorAccount: e.cfg.VendorAccount,
		InvoiceAmount: rec.Amount,
		HashInput:     hashInput,
		InvoiceNumber: InvoiceNumber(hashInput),
		InvoiceDate:   rec.TransactionDate.Format(types.OutputDateFormat),
		DueDate:       rec.TransactionDate.AddDate(0, 0, e.cfg.DueDateOffsetDays).Format(types.OutputDateFormat),
		Description:   buildDescription(rec.Vendor, rec.Description),
		GLAccountBA:   glBA,
		GLAccountBB:   rec.GLAccountBB,
		GLAccountBC:   rec.GLAccountBC,
		ImageFileSpec: types.ImagePlaceholder,
		ReceiptURL:    rec.ReceiptURL,
	}
}

// =============================================================================
// DERIVATION HELPERS
// =============================================================================

// HashInput builds the invoice-number hash input: the reference id (or a
// stable sequence-derived fallback), truncated, joined to the canonical
// transaction date. Same inputs always produce the same string.
func HashInput(referenceID string, sequence int, txnDate time.Time) string {
	baseID := strings.TrimSpace(referenceID)
	if baseID == "" {
		baseID = fmt.Sprintf("txn_%04d", sequence)
	}
	if len(baseID) > maxBaseIDLen {
		baseID = baseID[:maxBaseIDLen]
	}
	return baseID + hashInputDelimiter + txnDate.Format(types.CanonicalDateFormat)
}

// InvoiceNumber derives the 8-character uppercase hex invoice number from a
// hash input string. crc32 is not for integrity here, only for a short
// deterministic identifier; collisions across batches are acceptable.
func InvoiceNumber(hashInput string) string {
	return fmt.Sprintf("%08X", crc32.ChecksumIEEE([]byte(hashInput)))
}

// buildDescription joins the vendor name and the cardholder's purpose text.
// A blank purpose yields the vendor alone; a blank vendor gets a marker so
// the invoice line is never empty.
func buildDescription(vendor, description string) string {
	vendor = strings.TrimSpace(vendor)
	description = strings.TrimSpace(description)

	if vendor == "" {
		vendor = "Unknown Vendor"
	}
	if description == "" {
		return vendor
	}
	return vendor + " | " + description
}

// parseAmount parses a decimal amount, tolerating currency formatting.
// Returns false for blank or unparseable values, which the caller treats
// the same as non-positive amounts.
func parseAmount(value string) (decimal.Decimal, bool) {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, "$", "")
	value = strings.ReplaceAll(value, ",", "")
	if value == "" {
		return decimal.Zero, false
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}
