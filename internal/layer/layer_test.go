package layer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sitetrack/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const invertersGeoJSON = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "properties": {"id": "inv-1", "name": "INV 1"},
		 "geometry": {"type": "Point", "coordinates": [2, 2]}},
		{"type": "Feature", "properties": {"id": "inv-2", "name": "INV 2"},
		 "geometry": {"type": "Polygon", "coordinates": [[[4,4],[6,4],[6,6],[4,6],[4,4]]]}},
		{"type": "Feature", "properties": {"name": "no id"},
		 "geometry": {"type": "Point", "coordinates": [8, 8]}}
	]
}`

// ---------------------------------------------------------------------------
// Manifest
// ---------------------------------------------------------------------------

func TestLoadManifest(t *testing.T) {
	path := writeFile(t, "layers.yaml", `
layers:
  - name: inverters
    path: data/inverters.geojson
    role: clickable
    id_property: id
    label_property: name
  - name: boundary
    path: data/boundary.shp
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, m.Layers, 2)
	assert.Equal(t, model.RoleClickable, m.Layers[0].Role)
	assert.Equal(t, model.RoleDisplay, m.Layers[1].Role, "role defaults to display")
}

func TestLoadManifest_Invalid(t *testing.T) {
	for name, content := range map[string]string{
		"empty":        `layers: []`,
		"missing name": "layers:\n  - path: x.geojson",
		"missing path": "layers:\n  - name: x",
		"bad role":     "layers:\n  - name: x\n    path: x.geojson\n    role: nonsense",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadManifest(writeFile(t, "layers.yaml", content))
			assert.Error(t, err)
		})
	}
}

// ---------------------------------------------------------------------------
// GeoJSON
// ---------------------------------------------------------------------------

func TestReadGeoJSON(t *testing.T) {
	path := writeFile(t, "inverters.geojson", invertersGeoJSON)

	features, err := ReadGeoJSON(path)
	require.NoError(t, err)
	require.Len(t, features, 3)
	assert.Equal(t, "inv-1", features[0].Properties["id"])
	assert.NotNil(t, features[1].Geometry)
}

func TestReadGeoJSON_Malformed(t *testing.T) {
	_, err := ReadGeoJSON(writeFile(t, "bad.geojson", `{"type": "FeatureCollection", "features": [{`))
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Shapefile
// ---------------------------------------------------------------------------

func TestReadShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.shp")

	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)
	w.SetFields([]shp.Field{shp.StringField("UNIT", 16)})
	w.Write(&shp.Point{X: 1, Y: 2})
	require.NoError(t, w.WriteAttribute(0, 0, "LV-01"))
	w.Write(&shp.Point{X: 3, Y: 4})
	require.NoError(t, w.WriteAttribute(1, 0, "LV-02"))
	w.Close()

	// go-shp's writer emits the attribute table without a dot in its
	// extension; move it to the path the reader opens.
	base := strings.TrimSuffix(path, ".shp")
	require.NoError(t, os.Rename(base+"dbf", base+".dbf"))

	features, err := ReadShapefile(path)
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Equal(t, "LV-01", features[0].Properties["UNIT"])
}

// ---------------------------------------------------------------------------
// LoadAll
// ---------------------------------------------------------------------------

func TestLoadAll_PartialFailure(t *testing.T) {
	good := writeFile(t, "inverters.geojson", invertersGeoJSON)
	m := &Manifest{Layers: []Source{
		{Name: "missing", Path: "/nonexistent/void.geojson", Role: model.RoleDisplay},
		{Name: "inverters", Path: good, Role: model.RoleClickable, IDProperty: "id"},
	}}

	layers, err := LoadAll(context.Background(), m)
	require.NoError(t, err, "one failed layer must not abort the rest")
	require.Len(t, layers, 1)
	assert.Equal(t, "inverters", layers[0].Name)
	assert.Len(t, layers[0].Features, 3)
}

func TestLoadAll_AllFailed(t *testing.T) {
	m := &Manifest{Layers: []Source{
		{Name: "a", Path: "/nonexistent/a.geojson"},
		{Name: "b", Path: "/nonexistent/b.unsupported"},
	}}
	_, err := LoadAll(context.Background(), m)
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// Derive
// ---------------------------------------------------------------------------

func TestDerive(t *testing.T) {
	good := writeFile(t, "inverters.geojson", invertersGeoJSON)
	src := Source{Name: "inverters", Path: good, Role: model.RoleClickable, IDProperty: "id", LabelProperty: "name"}
	layers, err := LoadAll(context.Background(), &Manifest{Layers: []Source{src}})
	require.NoError(t, err)

	d := Derive([]Source{src}, layers)
	require.Len(t, d.Labels, 3)

	assert.Equal(t, "inv-1", d.Labels[0].ID)
	assert.Equal(t, "INV 1", d.Labels[0].Text)
	assert.Equal(t, 2.0, d.Labels[0].X)

	// The polygon feature: mean-of-outer-ring center and bbox area.
	assert.Equal(t, "inv-2", d.Labels[1].ID)
	assert.InDelta(t, 4.8, d.Labels[1].X, 1e-9)
	assert.InDelta(t, 4.0, d.Labels[1].Area, 1e-9)
	assert.NotEmpty(t, d.Rings["inv-2"])
	assert.True(t, d.Labels[1].Large, "only nonzero-area feature is above the mean")

	// The id-less feature got a session UUID, not an index.
	assert.NotEmpty(t, d.Labels[2].ID)
	assert.NotEqual(t, "2", d.Labels[2].ID)
	assert.Len(t, d.Summaries, 3)
}

func TestDerive_SkipsDisplayLayers(t *testing.T) {
	layers := []model.Layer{{Name: "boundary", Role: model.RoleDisplay}}
	d := Derive(nil, layers)
	assert.Empty(t, d.Labels)
}
