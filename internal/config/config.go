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
	Portal    PortalConfig    `yaml:"portal" mapstructure:"portal"`
	Selector  SelectorConfig  `yaml:"selector" mapstructure:"selector"`
	Elevation ElevationConfig `yaml:"elevation" mapstructure:"elevation"`
	Analyze   AnalyzeConfig   `yaml:"analyze" mapstructure:"analyze"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// PortalConfig configures the Anatel licensing portal downloads.
type PortalConfig struct {
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	State    string `yaml:"state" mapstructure:"state"`
	DataDir  string `yaml:"data_dir" mapstructure:"data_dir"`
	Encoding string `yaml:"encoding" mapstructure:"encoding"`
	Aliases  string `yaml:"aliases" mapstructure:"aliases"`
}

// SelectorConfig configures the nearest-antenna selection.
type SelectorConfig struct {
	MinDistanceBuckets int `yaml:"min_distance_buckets" mapstructure:"min_distance_buckets"`
	MinOperators       int `yaml:"min_operators" mapstructure:"min_operators"`
}

// ElevationConfig configures elevation profile retrieval.
type ElevationConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	APIKey        string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	Samples       int    `yaml:"samples" mapstructure:"samples"`
	CacheTTLHours int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// AnalyzeConfig configures the per-point analysis run.
type AnalyzeConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// StoreConfig configures the embedded SQLite store.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// OutputConfig configures where analysis results are written.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the HTTP API server.
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
	v.SetEnvPrefix("ANTENNA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("portal.base_url", "https://sistemas.anatel.gov.br/se/public/view/b/licenciamento")
	v.SetDefault("portal.state", "RJ")
	v.SetDefault("portal.data_dir", "files")
	v.SetDefault("portal.encoding", "")
	v.SetDefault("selector.min_distance_buckets", 4)
	v.SetDefault("selector.min_operators", 2)
	v.SetDefault("elevation.provider", "open-elevation")
	v.SetDefault("elevation.samples", 50)
	v.SetDefault("elevation.cache_ttl_hours", 0)
	v.SetDefault("analyze.concurrency", 4)
	v.SetDefault("store.path", "antenna.db")
	v.SetDefault("output.dir", "outputs")
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

// Validate checks settings shared by every command.
func (c *Config) Validate() error {
	if c.Selector.MinDistanceBuckets < 0 || c.Selector.MinOperators < 0 {
		return eris.New("config: selector minimums must not be negative")
	}
	if c.Elevation.Samples < 2 {
		return eris.Errorf("config: elevation.samples must be at least 2, got %d", c.Elevation.Samples)
	}
	switch c.Elevation.Provider {
	case "google", "open-elevation":
	default:
		return eris.Errorf("config: unknown elevation provider %q", c.Elevation.Provider)
	}
	if c.Elevation.Provider == "google" && c.Elevation.APIKey == "" {
		return eris.New("config: elevation.api_key is required for the google provider")
	}
	if c.Store.Path == "" {
		return eris.New("config: store.path must not be empty")
	}
	return nil
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
