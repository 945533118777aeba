package layer

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/sitetrack/internal/geomx"
	"github.com/sells-group/sitetrack/internal/model"
)

// Derived is the read-only side table built once after load: the hit
// targets plus per-id polygon rings for containment queries. Features
// themselves stay untouched.
type Derived struct {
	Labels    []model.Label
	Rings     map[string][][2]float64
	Summaries map[string]geomx.Summary
}

// Derive builds labels for every clickable layer, in layer order. Ids
// come from the source's IDProperty; a feature without one gets a
// session-scoped UUID and a warning instead of a positional index, so
// persisted state never aliases across reloads. "Large" classification
// compares each feature's bounding-box area to the mean across its
// layer.
func Derive(sources []Source, layers []model.Layer) *Derived {
	log := zap.L().With(zap.String("component", "layer.derive"))

	srcByName := make(map[string]Source, len(sources))
	for _, s := range sources {
		srcByName[s.Name] = s
	}

	d := &Derived{
		Rings:     make(map[string][][2]float64),
		Summaries: make(map[string]geomx.Summary),
	}

	for _, l := range layers {
		if l.Role != model.RoleClickable {
			continue
		}
		src := srcByName[l.Name]

		start := len(d.Labels)
		var areaSum float64
		for _, f := range l.Features {
			sum, ok := geomx.Summarize(f.Geometry)
			if !ok {
				continue
			}

			id := propString(f.Properties, src.IDProperty)
			if id == "" {
				id = uuid.NewString()
				log.Warn("feature missing id property, assigned session id",
					zap.String("layer", l.Name),
					zap.String("property", src.IDProperty),
					zap.String("id", id),
				)
			}

			d.Labels = append(d.Labels, model.Label{
				ID:    id,
				Layer: l.Name,
				Text:  propString(f.Properties, src.LabelProperty),
				X:     sum.CenterX,
				Y:     sum.CenterY,
				Area:  sum.Area,
			})
			d.Summaries[id] = sum
			if ring := geomx.OuterRing(f.Geometry); ring != nil {
				d.Rings[id] = ring
			}
			areaSum += sum.Area
		}

		if n := len(d.Labels) - start; n > 0 {
			mean := areaSum / float64(n)
			for i := start; i < len(d.Labels); i++ {
				d.Labels[i].Large = d.Labels[i].Area > mean
			}
		}
	}
	return d
}

// propString extracts a property as display text; numbers lose any
// trailing ".0" so ids from JSON numbers stay stable.
func propString(props map[string]any, key string) string {
	if key == "" || props == nil {
		return ""
	}
	switch v := props[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
