// =============================================================================
// Expense to Invoice Converter - Expense Export Parser
// =============================================================================
//
// This module parses expense-report exports. Two formats occur in practice:
//   - CSV, the normal export path
//   - XLSX, when someone opens the export in a spreadsheet and re-saves it
//     (see xlsx.go)
//
// Both produce the same Data structure: headers plus rows as header->value
// maps, with 1-based source row numbers preserved for error reporting.
//
// The schema check runs here, before any record is processed: a missing
// required column fails the whole run with a SchemaError naming every
// absent column.
//
// =============================================================================

package expense

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// DATA STRUCTURE
// =============================================================================

// Row is a single data row from the export.
type Row struct {
	// Fields maps column header -> trimmed cell value.
	Fields map[string]string

	// Number is the 1-based row number in the source file, headers included.
	Number int
}

// Field returns the value of the named column, or "" when absent.
func (r Row) Field(name string) string {
	return r.Fields[name]
}

// Data represents a parsed expense export.
type Data struct {
	// Headers contains the column headers, cleaned and in file order.
	Headers []string

	// Rows contains the data rows. Empty rows are skipped.
	Rows []Row

	// SourceFile is the path the data was read from.
	SourceFile string
}

// =============================================================================
// PARSER ENTRY POINT
// =============================================================================

// Parse reads an expense export, dispatching on the file extension, and
// validates the schema before returning.
func Parse(filePath string) (*Data, error) {
	var (
		data *Data
		err  error
	)

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx":
		data, err = parseXLSX(filePath)
	default:
		data, err = parseCSV(filePath)
	}
	if err != nil {
		return nil, err
	}

	if err := validateSchema(data.Headers, filePath); err != nil {
		return nil, err
	}

	return data, nil
}

// =============================================================================
// CSV PARSING
// =============================================================================

// parseCSV reads a CSV export. The reader is configured leniently: exports
// contain quoted vendor names with embedded commas, occasional ragged rows,
// and leading whitespace after delimiters.
func parseCSV(filePath string) (*Data, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(allRows) == 0 {
		return nil, fmt.Errorf("file %s is empty", filePath)
	}

	headers := cleanHeaders(allRows[0])

	data := &Data{
		Headers:    headers,
		SourceFile: filePath,
	}

	for i, raw := range allRows[1:] {
		if isRowEmpty(raw) {
			continue
		}
		data.Rows = append(data.Rows, buildRow(headers, raw, i+2))
	}

	return data, nil
}

// buildRow converts a raw row to a header->value map. Missing trailing
// columns become empty strings.
func buildRow(headers []string, raw []string, number int) Row {
	fields := make(map[string]string, len(headers))
	for i, header := range headers {
		if i < len(raw) {
			fields[header] = strings.TrimSpace(raw[i])
		} else {
			fields[header] = ""
		}
	}
	return Row{Fields: fields, Number: number}
}

// cleanHeaders trims whitespace and names any blank headers by position so
// they remain addressable.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
