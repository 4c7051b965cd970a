// =============================================================================
// Expense to Invoice Converter - Invoice CSV Reader
// =============================================================================
//
// Parses a previously written invoice CSV back into records. The receipt
// locator and the verification pass both operate on the file the transform
// engine wrote, possibly in a later run of the program, so the round trip
// must be exact: amounts, hash inputs and image file specs come back
// byte-identical.
//
// =============================================================================

package invoice

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/blm-finops/expense-invoice-converter/internal/types"
)

// Read parses invoice records from r. The header row is matched by name so
// the reader tolerates a reordered file, though the writer never produces
// one.
func Read(r io.Reader) ([]types.InvoiceRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("invoice CSV is empty")
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[h] = i
	}
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("invoice CSV is missing column %q", col)
		}
	}

	field := func(row []string, name string) string {
		i := index[name]
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	records := make([]types.InvoiceRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		sequence, err := strconv.Atoi(field(row, "Sequence"))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad sequence number %q", n+2, field(row, "Sequence"))
		}

		amount, err := decimal.NewFromString(field(row, "Invoice Amount"))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad invoice amount %q", n+2, field(row, "Invoice Amount"))
		}

		records = append(records, types.InvoiceRecord{
			Sequence:      sequence,
			CompanyCode:   field(row, "Company Code"),
			VendorAccount: field(row, "Vendor Account"),
			InvoiceAmount: amount,
			HashInput:     field(row, "Invoice Number CRC32 Hash Input String"),
			InvoiceNumber: field(row, "Invoice Number"),
			InvoiceDate:   field(row, "Invoice Date MMDDYY"),
			DueDate:       field(row, "Due Date MMDDYY"),
			Description:   field(row, "Invoice Description"),
			GLAccountBA:   field(row, "GL Account BA"),
			GLAccountBB:   field(row, "GL Account BB"),
			GLAccountBC:   field(row, "GL Account BC"),
			ImageFileSpec: field(row, "Image File Spec"),
		})
	}

	return records, nil
}

// ReadFile parses invoice records from the file at path.
func ReadFile(path string) ([]types.InvoiceRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open invoice file: %w", err)
	}
	defer file.Close()

	return Read(file)
}
