package layer

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/sitetrack/internal/model"
)

// ReadGeoJSON decodes a FeatureCollection file into features. Features
// without a geometry are skipped.
func ReadGeoJSON(path string) ([]model.Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "layer: read geojson %s", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "layer: parse geojson %s", path)
	}

	features := make([]model.Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		props := f.Properties
		if props == nil {
			props = map[string]any{}
		}
		features = append(features, model.Feature{
			Geometry:   f.Geometry,
			Properties: props,
		})
	}
	return features, nil
}
