package layer

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/sitetrack/internal/model"
)

// LoadAll fetches every layer in the manifest concurrently. A layer that
// fails to load is logged and absent from the result; it never aborts
// the others. The returned slice preserves manifest order so downstream
// hit-test tie-breaks are deterministic. An error is returned only when
// no layer loaded at all.
func LoadAll(ctx context.Context, m *Manifest) ([]model.Layer, error) {
	log := zap.L().With(zap.String("component", "layer.loader"))

	loaded := make([]*model.Layer, len(m.Layers))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range m.Layers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "layer: load cancelled")
			}
			features, err := readSource(src)
			if err != nil {
				// Partial-failure policy: this layer stays absent.
				log.Warn("layer failed to load",
					zap.String("layer", src.Name),
					zap.String("path", src.Path),
					zap.Error(err),
				)
				return nil
			}
			loaded[i] = &model.Layer{Name: src.Name, Role: src.Role, Features: features}
			log.Info("layer loaded",
				zap.String("layer", src.Name),
				zap.Int("features", len(features)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var layers []model.Layer
	for _, l := range loaded {
		if l != nil {
			layers = append(layers, *l)
		}
	}
	if len(layers) == 0 {
		return nil, eris.New("layer: no layer could be loaded")
	}
	return layers, nil
}

func readSource(src Source) ([]model.Feature, error) {
	switch strings.ToLower(filepath.Ext(src.Path)) {
	case ".geojson", ".json":
		return ReadGeoJSON(src.Path)
	case ".shp":
		return ReadShapefile(src.Path)
	default:
		return nil, eris.Errorf("layer: unsupported source format %s", src.Path)
	}
}
