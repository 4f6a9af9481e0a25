package mapview

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/geocluster/internal/model"
	"github.com/sells-group/geocluster/internal/palette"
)

// GeoJSON encodes the clustered points as a FeatureCollection of WGS84
// points. Feature order follows input order. Each feature carries the
// cluster id, its display color, the cluster's top terms and the original
// description as properties.
func GeoJSON(records []model.ClusteredRecord, summaries map[int]model.ClusterSummary, colors map[int]string) ([]byte, error) {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(records))}
	for _, r := range records {
		color, ok := colors[r.ClusterID]
		if !ok {
			color = palette.NoiseColor
		}
		props := map[string]interface{}{
			"cluster":     r.ClusterID,
			"color":       color,
			"description": r.Description,
		}
		if s, ok := summaries[r.ClusterID]; ok {
			props["terms"] = strings.Join(s.TopTerms, ", ")
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         r.ID,
			Geometry:   geom.NewPointFlat(geom.XY, []float64{r.Longitude, r.Latitude}).SetSRID(4326),
			Properties: props,
		})
	}

	data, err := json.Marshal(&fc)
	if err != nil {
		return nil, eris.Wrap(err, "mapview: encode geojson")
	}
	return data, nil
}
