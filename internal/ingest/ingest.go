// Package ingest reads geotagged records from CSV, XLSX and shapefile
// sources into the pipeline's input type.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geocluster/internal/model"
)

// Columns names the source columns (or shapefile attributes) holding each
// record field. Matching is case-insensitive. ID may be empty, in which case
// row ordinals are used.
type Columns struct {
	ID          string
	Description string
	Latitude    string
	Longitude   string
}

// DefaultColumns is the mapping used when the caller does not override it.
func DefaultColumns() Columns {
	return Columns{
		ID:          "id",
		Description: "description",
		Latitude:    "latitude",
		Longitude:   "longitude",
	}
}

// Load reads records from path, dispatching on the file extension.
// Supported: .csv, .xlsx, .shp.
func Load(ctx context.Context, path string, cols Columns) ([]model.Record, error) {
	var (
		records []model.Record
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		records, err = readCSV(ctx, path, cols)
	case ".xlsx":
		records, err = readXLSX(ctx, path, cols)
	case ".shp":
		records, err = readShapefile(path, cols)
	default:
		return nil, eris.Errorf("ingest: unsupported input format %q", ext)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Info("ingest: loaded records",
		zap.String("path", path),
		zap.Int("count", len(records)),
	)
	return records, nil
}

// headerIndex maps lower-cased header names to their column position.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

// rowRecord builds a Record from one tabular row using the header mapping.
// Row numbers are 1-based data rows, used in errors and as fallback ids.
func rowRecord(row []string, idx map[string]int, cols Columns, rowNum int) (model.Record, error) {
	cell := func(name string) (string, bool) {
		i, ok := idx[strings.ToLower(name)]
		if !ok || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	latRaw, ok := cell(cols.Latitude)
	if !ok {
		return model.Record{}, eris.Errorf("ingest: row %d: missing latitude column %q", rowNum, cols.Latitude)
	}
	lonRaw, ok := cell(cols.Longitude)
	if !ok {
		return model.Record{}, eris.Errorf("ingest: row %d: missing longitude column %q", rowNum, cols.Longitude)
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return model.Record{}, eris.Wrapf(err, "ingest: row %d: parse latitude %q", rowNum, latRaw)
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		return model.Record{}, eris.Wrapf(err, "ingest: row %d: parse longitude %q", rowNum, lonRaw)
	}

	id := ""
	if cols.ID != "" {
		id, _ = cell(cols.ID)
	}
	if id == "" {
		id = fmt.Sprintf("row-%d", rowNum)
	}

	desc, _ := cell(cols.Description)

	rec := model.Record{ID: id, Description: desc, Latitude: lat, Longitude: lon}
	if err := rec.Validate(); err != nil {
		return model.Record{}, err
	}
	return rec, nil
}
