package ingest

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/geocluster/internal/model"
)

// readXLSX parses the first sheet of an XLSX workbook. The first row is the
// header; remaining rows are data in sheet order.
func readXLSX(ctx context.Context, path string, cols Columns) ([]model.Record, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: xlsx: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("ingest: xlsx: %s has no sheets", path)
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("ingest: xlsx: empty sheet")
	}

	idx := headerIndex(rowToStrings(sheet.Rows[0]))

	var records []model.Record
	for i, row := range sheet.Rows[1:] {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "ingest: xlsx: context cancelled")
		}

		cells := rowToStrings(row)
		if blankRow(cells) {
			continue
		}

		rec, err := rowRecord(cells, idx, cols, i+1)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

// blankRow reports whether every cell is empty. Trailing blank rows are
// common in exported workbooks.
func blankRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
