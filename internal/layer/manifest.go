// Package layer ingests the named geometry collections the viewer works
// over: a YAML manifest names the sources, GeoJSON and shapefile readers
// decode them, and label derivation produces the hit targets.
package layer

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/sitetrack/internal/model"
)

// Source describes one layer in the manifest.
type Source struct {
	Name string          `yaml:"name"`
	Path string          `yaml:"path"`
	Role model.LayerRole `yaml:"role"`

	// IDProperty names the feature property holding the stable id.
	// Features missing it get a session-scoped UUID (and a warning)
	// rather than a positional index, so ids never alias across reloads.
	IDProperty string `yaml:"id_property"`
	// LabelProperty names the feature property holding display text.
	LabelProperty string `yaml:"label_property"`
}

// Manifest lists the layers to load, in draw and hit-test order.
type Manifest struct {
	Layers []Source `yaml:"layers"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "layer: read manifest %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "layer: parse manifest %s", path)
	}
	if len(m.Layers) == 0 {
		return nil, eris.Errorf("layer: manifest %s names no layers", path)
	}
	for i, src := range m.Layers {
		if src.Name == "" {
			return nil, eris.Errorf("layer: manifest entry %d has no name", i)
		}
		if src.Path == "" {
			return nil, eris.Errorf("layer: %s has no path", src.Name)
		}
		switch src.Role {
		case model.RoleClickable, model.RoleDisplay:
		case "":
			m.Layers[i].Role = model.RoleDisplay
		default:
			return nil, eris.Errorf("layer: %s has unknown role %q", src.Name, src.Role)
		}
	}
	return &m, nil
}
