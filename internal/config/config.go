package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Site     string         `yaml:"site" mapstructure:"site"`
	Layers   LayersConfig   `yaml:"layers" mapstructure:"layers"`
	Viewport ViewportConfig `yaml:"viewport" mapstructure:"viewport"`
	Interact InteractConfig `yaml:"interact" mapstructure:"interact"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// LayersConfig points at the layer manifest.
type LayersConfig struct {
	Manifest string `yaml:"manifest" mapstructure:"manifest"`
}

// ViewportConfig sets the initial drawing surface dimensions.
type ViewportConfig struct {
	Width   float64 `yaml:"width" mapstructure:"width"`
	Height  float64 `yaml:"height" mapstructure:"height"`
	Padding float64 `yaml:"padding" mapstructure:"padding"`
}

// InteractConfig tunes hit radii and interaction thresholds.
type InteractConfig struct {
	NoteRadius    float64 `yaml:"note_radius" mapstructure:"note_radius"`
	LabelRadius   float64 `yaml:"label_radius" mapstructure:"label_radius"`
	DragThreshold float64 `yaml:"drag_threshold" mapstructure:"drag_threshold"`
	NoteSpacing   float64 `yaml:"note_spacing" mapstructure:"note_spacing"`
	HistoryCap    int     `yaml:"history_cap" mapstructure:"history_cap"`
	MaxFPS        int     `yaml:"max_fps" mapstructure:"max_fps"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ExportConfig configures the progress workbook.
type ExportConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the viewer API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SITETRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("site", "default")
	v.SetDefault("layers.manifest", "layers.yaml")
	v.SetDefault("viewport.width", 1280)
	v.SetDefault("viewport.height", 800)
	v.SetDefault("viewport.padding", 50)
	v.SetDefault("interact.note_radius", 15)
	v.SetDefault("interact.label_radius", 30)
	v.SetDefault("interact.drag_threshold", 5)
	v.SetDefault("interact.note_spacing", 0.5)
	v.SetDefault("interact.history_cap", 50)
	v.SetDefault("interact.max_fps", 60)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "sitetrack.db")
	v.SetDefault("export.path", "progress.xlsx")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
