package sink

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ExportXLSX converts a results CSV into a single-sheet XLSX workbook.
// Cells are written as strings verbatim so the dataset round-trips exactly.
func ExportXLSX(csvPath, xlsxPath string) (int, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return 0, eris.Wrap(err, "sink: open results csv")
	}
	defer f.Close() //nolint:errcheck

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return 0, eris.Wrap(err, "sink: read results csv")
	}

	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("Results")
	if err != nil {
		return 0, eris.Wrap(err, "sink: add sheet")
	}

	for _, row := range rows {
		xr := sheet.AddRow()
		for _, cell := range row {
			xr.AddCell().SetString(cell)
		}
	}

	if err := wb.Save(xlsxPath); err != nil {
		return 0, eris.Wrap(err, "sink: save xlsx")
	}

	// Exclude the header from the reported record count.
	n := len(rows)
	if n > 0 {
		n--
	}
	return n, nil
}
