package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Sentiment  SentimentConfig  `mapstructure:"sentiment"`
	Store      StoreConfig      `mapstructure:"store"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Security   SecurityConfig   `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CatalogConfig struct {
	Path      string `mapstructure:"path"`
	Delimiter string `mapstructure:"delimiter"`
}

type EngineConfig struct {
	Neighbors      int     `mapstructure:"neighbors"`
	BasicNeighbors int     `mapstructure:"basic_neighbors"`
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold"`
	MinSimilarity  float64 `mapstructure:"min_similarity"`
	ReviewSeed     int64   `mapstructure:"review_seed"`
	// ForceBasic skips the full feature pipeline; used for degraded-mode drills.
	ForceBasic bool `mapstructure:"force_basic"`
}

type SentimentConfig struct {
	ModelPath     string  `mapstructure:"model_path"`
	VocabularyCap int     `mapstructure:"vocabulary_cap"`
	LearningRate  float64 `mapstructure:"learning_rate"`
	Epochs        int     `mapstructure:"epochs"`
	L2            float64 `mapstructure:"l2"`
	TestSplit     float64 `mapstructure:"test_split"`
	Seed          int64   `mapstructure:"seed"`
	// Disabled forces the lexicon scorer.
	Disabled bool `mapstructure:"disabled"`
}

type StoreConfig struct {
	Backend   string `mapstructure:"backend"`
	Path      string `mapstructure:"path"`
	BadgerDir string `mapstructure:"badger_dir"`
}

type RedisConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
	TTL        time.Duration `mapstructure:"ttl"`
	KeyPrefix  string        `mapstructure:"key_prefix"`
	MaxSize    int64         `mapstructure:"max_size"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// Load reads config/app.yaml (optional), environment overrides and defaults.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file; an empty path searches the defaults.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("app")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "development")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Catalog defaults
	v.SetDefault("catalog.path", "books.csv")
	v.SetDefault("catalog.delimiter", ",")

	// Engine defaults
	v.SetDefault("engine.neighbors", 10)
	v.SetDefault("engine.basic_neighbors", 6)
	v.SetDefault("engine.fuzzy_threshold", 0.4)
	v.SetDefault("engine.min_similarity", 0.1)
	v.SetDefault("engine.review_seed", 42)
	v.SetDefault("engine.force_basic", false)

	// Sentiment defaults
	v.SetDefault("sentiment.model_path", "sentiment_model.json")
	v.SetDefault("sentiment.vocabulary_cap", 5000)
	v.SetDefault("sentiment.learning_rate", 0.5)
	v.SetDefault("sentiment.epochs", 300)
	v.SetDefault("sentiment.l2", 0.001)
	v.SetDefault("sentiment.test_split", 0.2)
	v.SetDefault("sentiment.seed", 42)
	v.SetDefault("sentiment.disabled", false)

	// Store defaults
	v.SetDefault("store.backend", "file")
	v.SetDefault("store.path", "data/recommendation_model.snapshot")
	v.SetDefault("store.badger_dir", "data/snapshots")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "localhost:6379")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.timeout", "5s")
	v.SetDefault("redis.ttl", "15m")
	v.SetDefault("redis.key_prefix", "bookrec:http")
	v.SetDefault("redis.max_size", 1<<20)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "bookrec-model-events")

	// Monitoring defaults
	v.SetDefault("monitoring.enabled", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")

	// Security defaults
	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("security.cors.allowed_headers", []string{"*"})
}
