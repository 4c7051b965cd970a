// =============================================================================
// Expense to Invoice Converter - XLSX Export Parser
// =============================================================================
//
// Expense exports re-saved through a spreadsheet arrive as .xlsx instead of
// .csv. This parser reads the first sheet into the same Data structure the
// CSV parser produces, so the rest of the pipeline never cares which format
// the export arrived in.
//
// =============================================================================

package expense

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// parseXLSX reads the first sheet of an XLSX expense export.
func parseXLSX(filePath string) (*Data, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("file %s has no sheets", filePath)
	}

	// Exports put everything on the first sheet.
	allRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
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
