package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/earthwork/internal/earthwork"
)

// Config holds the full application configuration.
type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Engine EngineConfig `yaml:"engine" mapstructure:"engine"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port                  int             `yaml:"port" mapstructure:"port"`
	ReadHeaderTimeoutSecs int             `yaml:"read_header_timeout_secs" mapstructure:"read_header_timeout_secs"`
	RequestTimeoutSecs    int             `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	ShutdownTimeoutSecs   int             `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
	MaxBodyBytes          int64           `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	CORSOrigins           []string        `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimit             RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Cache                 CacheConfig     `yaml:"cache" mapstructure:"cache"`
}

// RateLimitConfig configures the per-server request rate limiter.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" mapstructure:"rps"`
	Burst int     `yaml:"burst" mapstructure:"burst"`
}

// CacheConfig configures the in-memory response cache for surface
// calculations. MaxEntries 0 disables it.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
	TTLSecs    int `yaml:"ttl_secs" mapstructure:"ttl_secs"`
}

// EngineConfig bounds the volume engine.
type EngineConfig struct {
	GridCellSize       float64 `yaml:"grid_cell_size" mapstructure:"grid_cell_size"`
	MaxGridCells       int     `yaml:"max_grid_cells" mapstructure:"max_grid_cells"`
	MaxSamplePoints    int     `yaml:"max_sample_points" mapstructure:"max_sample_points"`
	MaxPolygonVertices int     `yaml:"max_polygon_vertices" mapstructure:"max_polygon_vertices"`
	MaxConcurrent      int     `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// Options converts the engine section to engine options.
func (e EngineConfig) Options() earthwork.Options {
	return earthwork.Options{
		CellSize:           e.GridCellSize,
		MaxGridCells:       e.MaxGridCells,
		MaxSamplePoints:    e.MaxSamplePoints,
		MaxPolygonVertices: e.MaxPolygonVertices,
	}
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
	v.SetEnvPrefix("EARTHWORK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_header_timeout_secs", 10)
	v.SetDefault("server.request_timeout_secs", 30)
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit.rps", 20)
	v.SetDefault("server.rate_limit.burst", 40)
	v.SetDefault("server.cache.max_entries", 256)
	v.SetDefault("server.cache.ttl_secs", 600)
	v.SetDefault("engine.grid_cell_size", 1.0)
	v.SetDefault("engine.max_grid_cells", 4_000_000)
	v.SetDefault("engine.max_sample_points", 1_000_000)
	v.SetDefault("engine.max_polygon_vertices", 50_000)
	v.SetDefault("engine.max_concurrent", 4)

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

// Validate checks the settings a command mode depends on. Modes are "serve"
// and "cli"; every problem found is reported in one error.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, fmt.Sprintf("server.port must be between 1 and 65535, got %d", c.Server.Port))
		}
		if c.Server.MaxBodyBytes <= 0 {
			problems = append(problems, "server.max_body_bytes must be > 0")
		}
		if c.Server.RateLimit.RPS < 0 || c.Server.RateLimit.Burst < 0 {
			problems = append(problems, "server.rate_limit values must be >= 0")
		}
		if c.Server.Cache.MaxEntries < 0 {
			problems = append(problems, "server.cache.max_entries must be >= 0")
		}
		if c.Server.Cache.MaxEntries > 0 && c.Server.Cache.TTLSecs <= 0 {
			problems = append(problems, "server.cache.ttl_secs must be > 0 when the cache is enabled")
		}
		if c.Engine.MaxConcurrent < 1 || c.Engine.MaxConcurrent > 256 {
			problems = append(problems, fmt.Sprintf("engine.max_concurrent must be between 1 and 256, got %d", c.Engine.MaxConcurrent))
		}
	case "cli":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Engine.GridCellSize <= 0 {
		problems = append(problems, "engine.grid_cell_size must be > 0")
	}
	if c.Engine.MaxGridCells <= 0 {
		problems = append(problems, "engine.max_grid_cells must be > 0")
	}
	if c.Engine.MaxSamplePoints <= 0 {
		problems = append(problems, "engine.max_sample_points must be > 0")
	}
	if c.Engine.MaxPolygonVertices < 3 {
		problems = append(problems, "engine.max_polygon_vertices must be >= 3")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
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
