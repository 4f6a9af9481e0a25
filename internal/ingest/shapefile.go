package ingest

import (
	"fmt"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geocluster/internal/model"
)

// readShapefile reads point geometries from a shapefile. Coordinates come
// from the geometry; id and description come from the attribute table via
// the column mapping. Non-point shapes are skipped.
func readShapefile(path string, cols Columns) ([]model.Record, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	attr := func(name string) string {
		i, ok := fieldIdx[strings.ToLower(name)]
		if !ok {
			return ""
		}
		val := strings.TrimRight(reader.Attribute(i), "\x00")
		return strings.TrimSpace(val)
	}

	var records []model.Record
	var skipped int
	for rowNum := 1; reader.Next(); rowNum++ {
		_, shape := reader.Shape()

		point, ok := shape.(*shp.Point)
		if !ok {
			skipped++
			continue
		}

		id := ""
		if cols.ID != "" {
			id = attr(cols.ID)
		}
		if id == "" {
			id = fmt.Sprintf("row-%d", rowNum)
		}

		rec := model.Record{
			ID:          id,
			Description: attr(cols.Description),
			Latitude:    point.Y,
			Longitude:   point.X,
		}
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		zap.L().Debug("ingest: skipped non-point shapes",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return records, nil
}
