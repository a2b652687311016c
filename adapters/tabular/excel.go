package tabular

import (
	"fmt"
	"io"
	"log"
	"time"

	"minidash/internal/errors"
	"minidash/internal/table"

	"github.com/xuri/excelize/v2"
)

// readWorkbook loads the first sheet of an xlsx workbook. The first row is the header.
func readWorkbook(r io.Reader) (*table.Table, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to open Excel workbook: %w", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.EmptyDataset("workbook has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to read sheet %s: %w", sheet, err))
	}
	log.Printf("[DataReader] Sheet %q read in %.2fms (%d rows)",
		sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, errors.EmptyDataset("Excel file must have at least a header row and one data row")
	}
	return table.FromRecords(rows)
}
