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
	Ingest  IngestConfig  `yaml:"ingest" mapstructure:"ingest"`
	Embed   EmbedConfig   `yaml:"embed" mapstructure:"embed"`
	Cluster ClusterConfig `yaml:"cluster" mapstructure:"cluster"`
	Label   LabelConfig   `yaml:"label" mapstructure:"label"`
	Map     MapConfig     `yaml:"map" mapstructure:"map"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// IngestConfig maps source columns (or shapefile attributes) to record fields.
type IngestConfig struct {
	IDColumn          string `yaml:"id_column" mapstructure:"id_column"`
	DescriptionColumn string `yaml:"description_column" mapstructure:"description_column"`
	LatitudeColumn    string `yaml:"latitude_column" mapstructure:"latitude_column"`
	LongitudeColumn   string `yaml:"longitude_column" mapstructure:"longitude_column"`
}

// EmbedConfig holds embedding provider settings.
type EmbedConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	Model        string  `yaml:"model" mapstructure:"model"`
	BatchSize    int     `yaml:"batch_size" mapstructure:"batch_size"`
	Concurrency  int     `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// ClusterConfig selects and tunes the clustering algorithm.
type ClusterConfig struct {
	Algorithm         string  `yaml:"algorithm" mapstructure:"algorithm"`
	MinClusterSize    int     `yaml:"min_cluster_size" mapstructure:"min_cluster_size"`
	MinSamples        int     `yaml:"min_samples" mapstructure:"min_samples"`
	Eps               float64 `yaml:"eps" mapstructure:"eps"`
	Metric            string  `yaml:"metric" mapstructure:"metric"`
	ReducedDimensions int     `yaml:"reduced_dimensions" mapstructure:"reduced_dimensions"`
	RandomSeed        int64   `yaml:"random_seed" mapstructure:"random_seed"`
}

// LabelConfig tunes per-cluster term extraction.
type LabelConfig struct {
	TopNTerms int `yaml:"top_n_terms" mapstructure:"top_n_terms"`
}

// MapConfig configures the HTML artifact.
type MapConfig struct {
	Title string `yaml:"title" mapstructure:"title"`
}

// StoreConfig configures the run archive.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the map-serving HTTP server.
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
	v.SetEnvPrefix("GEOCLUSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ingest.id_column", "id")
	v.SetDefault("ingest.description_column", "description")
	v.SetDefault("ingest.latitude_column", "latitude")
	v.SetDefault("ingest.longitude_column", "longitude")
	v.SetDefault("embed.base_url", "https://api.openai.com/v1")
	v.SetDefault("embed.model", "text-embedding-3-small")
	v.SetDefault("embed.batch_size", 64)
	v.SetDefault("embed.concurrency", 4)
	v.SetDefault("embed.rate_limit_rps", 4.0)
	v.SetDefault("cluster.algorithm", "hdbscan")
	v.SetDefault("cluster.min_cluster_size", 2)
	v.SetDefault("cluster.min_samples", 2)
	v.SetDefault("cluster.eps", 0.875)
	v.SetDefault("cluster.metric", "euclidean")
	v.SetDefault("cluster.reduced_dimensions", 2)
	v.SetDefault("cluster.random_seed", 42)
	v.SetDefault("label.top_n_terms", 10)
	v.SetDefault("map.title", "geocluster map")
	v.SetDefault("store.path", "geocluster.db")
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

// Validate checks the fields the given command mode depends on. Problems are
// collected so one run reports everything wrong at once.
func (c *Config) Validate(mode string) error {
	var problems []string
	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	switch mode {
	case "run":
		check(c.Embed.Key != "", "embed.key is required")
		check(c.Embed.BatchSize >= 1, "embed.batch_size must be >= 1")
		check(c.Embed.Concurrency >= 1, "embed.concurrency must be >= 1")
		check(c.Label.TopNTerms >= 1, "label.top_n_terms must be >= 1")

		switch c.Cluster.Algorithm {
		case "hdbscan":
			check(c.Cluster.MinClusterSize >= 2, "cluster.min_cluster_size must be >= 2")
			check(c.Cluster.MinSamples >= 1, "cluster.min_samples must be >= 1")
		case "dbscan":
			check(c.Cluster.Eps > 0, "cluster.eps must be > 0")
			check(c.Cluster.MinSamples >= 1, "cluster.min_samples must be >= 1")
			check(c.Cluster.ReducedDimensions >= 1, "cluster.reduced_dimensions must be >= 1")
		default:
			check(false, "cluster.algorithm must be hdbscan or dbscan")
		}

	case "serve":
		check(c.Server.Port > 0 && c.Server.Port < 65536, "server.port must be > 0 and < 65536")

	default:
		return eris.Errorf("config: unknown mode %q", mode)
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
