package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sitetrack/internal/engine"
	"github.com/sells-group/sitetrack/internal/layer"
	"github.com/sells-group/sitetrack/internal/model"
	"github.com/sells-group/sitetrack/internal/store"
)

// env bundles everything a command needs after startup: the loaded
// layers, derived hit targets, and the persistence backend.
type env struct {
	Layers  []model.Layer
	Derived *layer.Derived
	Store   store.Store
}

func (e *env) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("store close", zap.Error(err))
		}
	}
}

// initEnv loads the layer manifest, derives labels and rings, and opens
// the configured store.
func initEnv(ctx context.Context) (*env, error) {
	manifest, err := layer.LoadManifest(cfg.Layers.Manifest)
	if err != nil {
		return nil, err
	}

	layers, err := layer.LoadAll(ctx, manifest)
	if err != nil {
		return nil, err
	}
	derived := layer.Derive(manifest.Layers, layers)

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	return &env{Layers: layers, Derived: derived, Store: st}, nil
}

func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// newEngine builds the interaction engine from the loaded environment
// and restores any saved state for the configured site.
func newEngine(ctx context.Context, e *env) (*engine.Engine, error) {
	eng, err := engine.New(e.Layers, e.Derived.Labels, e.Derived.Rings, engine.Config{
		Width:         cfg.Viewport.Width,
		Height:        cfg.Viewport.Height,
		Padding:       cfg.Viewport.Padding,
		NoteRadius:    cfg.Interact.NoteRadius,
		LabelRadius:   cfg.Interact.LabelRadius,
		DragThreshold: cfg.Interact.DragThreshold,
		NoteSpacing:   cfg.Interact.NoteSpacing,
		HistoryCap:    cfg.Interact.HistoryCap,
		MaxFPS:        cfg.Interact.MaxFPS,
	})
	if err != nil {
		return nil, err
	}

	snap, err := e.Store.LoadState(ctx, cfg.Site)
	if err != nil {
		return nil, err
	}
	eng.RestoreState(*snap)
	return eng, nil
}
