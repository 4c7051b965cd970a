// =============================================================================
// Expense to Invoice Converter - Invoice CSV Writer
// =============================================================================
//
// This module serializes the invoice record set into the upload CSV. The
// column order is fixed by the target system and must not change:
//
//   Sequence, Company Code, Vendor Account, Invoice Amount, GL Amount 1,
//   Invoice Number CRC32 Hash Input String, Invoice Number,
//   Invoice Date MMDDYY, Due Date MMDDYY, Invoice Description,
//   GL Account BA, GL Account BB, GL Account BC, Image File Spec
//
// GL Amount 1 duplicates Invoice Amount; single-line invoices post the full
// amount to the first distribution line.
//
// Output files are timestamp-suffixed so repeated runs never clobber each
// other. The locator rewrites a file in place after resolving receipts, so
// reader.go parses the same format back.
//
// =============================================================================

package invoice

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/blm-finops/expense-invoice-converter/internal/types"
)

// Columns is the fixed upload column order.
var Columns = []string{
	"Sequence",
	"Company Code",
	"Vendor Account",
	"Invoice Amount",
	"GL Amount 1",
	"Invoice Number CRC32 Hash Input String",
	"Invoice Number",
	"Invoice Date MMDDYY",
	"Due Date MMDDYY",
	"Invoice Description",
	"GL Account BA",
	"GL Account BB",
	"GL Account BC",
	"Image File Spec",
}

// =============================================================================
// WRITING
// =============================================================================

// Write serializes records to w in the upload column order.
func Write(w io.Writer, records []types.InvoiceRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range records {
		amount := rec.InvoiceAmount.StringFixed(2)
		row := []string{
			strconv.Itoa(rec.Sequence),
			rec.CompanyCode,
			rec.VendorAccount,
			amount,
			amount, // GL Amount 1 mirrors the invoice amount
			rec.HashInput,
			rec.InvoiceNumber,
			rec.InvoiceDate,
			rec.DueDate,
			rec.Description,
			rec.GLAccountBA,
			rec.GLAccountBB,
			rec.GLAccountBC,
			rec.ImageFileSpec,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", rec.Sequence, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes records to path, creating or truncating it.
func WriteFile(path string, records []types.InvoiceRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := Write(file, records); err != nil {
		return err
	}
	return file.Sync()
}

// =============================================================================
// FILE NAMING
// =============================================================================

// fileMarker tags invoice output files so they can be found again by the
// locator and verification passes.
const fileMarker = "_INVOICES_"

// GenerateFileName builds the timestamp-suffixed output file name for an
// input export, e.g. "expenses_jan_INVOICES_20240115_143022.csv".
func GenerateFileName(inputPath string) string {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return fmt.Sprintf("%s%s%s.csv", stem, fileMarker, time.Now().Format("20060102_150405"))
}

// FindLatest returns the most recently modified invoice CSV in dir, for the
// locator and verification commands to operate on. Returns an error when
// none exists.
func FindLatest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+fileMarker+"*.csv"))
	if err != nil {
		return "", fmt.Errorf("failed to scan output directory: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no invoice files found in %s (run 'process' first)", dir)
	}

	var (
		latest    string
		latestMod time.Time
	)
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest = path
			latestMod = info.ModTime()
		}
	}

	return latest, nil
}
