package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geocluster/internal/model"
)

// readCSV parses a headered CSV file into records. The first row is the
// header; remaining rows are data in file order.
func readCSV(ctx context.Context, path string, cols Columns) ([]model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer func() { _ = f.Close() }()

	return parseCSV(ctx, f, cols)
}

func parseCSV(ctx context.Context, r io.Reader, cols Columns) ([]model.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("ingest: csv: empty file")
	}
	if err != nil {
		return nil, eris.Wrap(err, "ingest: csv: read header")
	}
	idx := headerIndex(header)

	var records []model.Record
	for rowNum := 1; ; rowNum++ {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "ingest: csv: context cancelled")
		}

		row, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "ingest: csv: read row")
		}

		rec, err := rowRecord(row, idx, cols, rowNum)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}
