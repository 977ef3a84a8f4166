package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `yaml:"server" validate:"required"`
	Database  DatabaseConfig  `yaml:"database" validate:"required"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Cache     CacheConfig     `yaml:"cache" validate:"required"`
	Analytics AnalyticsConfig `yaml:"analytics" validate:"required"`
	Batch     BatchConfig     `yaml:"batch"`
	Kafka     KafkaConfig     `yaml:"kafka"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port       string        `yaml:"port" validate:"required"`
	RateLimit  int           `yaml:"rateLimit" validate:"gte=0"` // Requests per window per IP, 0 disables
	RateWindow time.Duration `yaml:"rateWindow" validate:"gte=0"`
}

// DatabaseConfig holds the sample store location
type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// AuthConfig holds the HMAC secret for write routes
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
}

// LogConfig selects the slog level
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// CacheConfig holds baseline cache settings
type CacheConfig struct {
	Backend          string        `yaml:"backend" validate:"oneof=memory sqlite"`
	BaselineTTL      time.Duration `yaml:"baselineTTL" validate:"gt=0"`
	EmptyBaselineTTL time.Duration `yaml:"emptyBaselineTTL" validate:"gt=0"`
	OccupancyTTL     time.Duration `yaml:"occupancyTTL" validate:"gt=0"`
	PurgeInterval    time.Duration `yaml:"purgeInterval" validate:"gte=0"`
}

// ThresholdConfig holds minimum sample counts per specificity level
type ThresholdConfig struct {
	Strict   int `yaml:"strict" validate:"gte=0"`
	SameHour int `yaml:"sameHour" validate:"gte=0"`
	SameDay  int `yaml:"sameDay" validate:"gte=0"`
}

// WindowConfig is one step of the baseline fallback search. Lookback 0 means all history.
type WindowConfig struct {
	Name     string        `yaml:"name" validate:"required"`
	Lookback time.Duration `yaml:"lookback" validate:"gte=0"`
}

// AnalyticsConfig holds engine tuning
type AnalyticsConfig struct {
	Timezone             string          `yaml:"timezone" validate:"required"`
	Percentile           float64         `yaml:"percentile" validate:"gt=0,lte=1"`
	PrimaryQueueType     string          `yaml:"primaryQueueType" validate:"required"`
	CurrentWindow        time.Duration   `yaml:"currentWindow" validate:"gt=0"`
	MinWaitTime          float64         `yaml:"minWaitTime" validate:"gte=0"`
	MinQualifyingSamples int             `yaml:"minQualifyingSamples" validate:"gte=0"`
	TrendMode            string          `yaml:"trendMode" validate:"oneof=hourly smoothed"`
	TrendBucket          time.Duration   `yaml:"trendBucket" validate:"gt=0"`
	TrendThreshold       float64         `yaml:"trendThreshold" validate:"gte=0"`
	TypicalWindow        time.Duration   `yaml:"typicalWindow" validate:"gt=0"`
	TypicalThreshold     float64         `yaml:"typicalThreshold" validate:"gte=0"`
	FeatureCap           int             `yaml:"featureCap" validate:"gt=0"`
	CrowdScheme          string          `yaml:"crowdScheme" validate:"required"`
	CrowdBounds          []float64       `yaml:"crowdBounds" validate:"omitempty,len=4"`
	Windows              []WindowConfig  `yaml:"windows" validate:"required,min=1,dive"`
	ParkThresholds       ThresholdConfig `yaml:"parkThresholds"`
	AttractionThresholds ThresholdConfig `yaml:"attractionThresholds"`
}

// BatchConfig bounds the per-entity fan-out
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" validate:"gte=1"`
}

// KafkaConfig holds the occupancy feature publisher settings
type KafkaConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Brokers         []string      `yaml:"brokers" validate:"required_if=Enabled true"`
	Topic           string        `yaml:"topic" validate:"required_if=Enabled true"`
	PublishInterval time.Duration `yaml:"publishInterval" validate:"gte=0"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:       ":8080",
			RateLimit:  600,
			RateWindow: time.Minute,
		},
		Database: DatabaseConfig{
			Path: "./data/analytics.db",
		},
		Auth: AuthConfig{
			JWTSecret: "your-secret-key-change-in-production",
		},
		Log: LogConfig{Level: "info"},
		Cache: CacheConfig{
			Backend:          "memory",
			BaselineTTL:      24 * time.Hour,
			EmptyBaselineTTL: time.Hour,
			OccupancyTTL:     5 * time.Minute,
			PurgeInterval:    15 * time.Minute,
		},
		Analytics: AnalyticsConfig{
			Timezone:             "UTC",
			Percentile:           0.90,
			PrimaryQueueType:     "STANDBY",
			CurrentWindow:        30 * time.Minute,
			MinWaitTime:          5,
			MinQualifyingSamples: 3,
			TrendMode:            "hourly",
			TrendBucket:          time.Hour,
			TrendThreshold:       5,
			TypicalWindow:        365 * 24 * time.Hour,
			TypicalThreshold:     10,
			FeatureCap:           200,
			CrowdScheme:          "standard",
			Windows: []WindowConfig{
				{Name: "1y", Lookback: 365 * 24 * time.Hour},
				{Name: "30d", Lookback: 30 * 24 * time.Hour},
				{Name: "7d", Lookback: 7 * 24 * time.Hour},
				{Name: "3d", Lookback: 3 * 24 * time.Hour},
				{Name: "all", Lookback: 0},
			},
			ParkThresholds:       ThresholdConfig{Strict: 10, SameHour: 50, SameDay: 50},
			AttractionThresholds: ThresholdConfig{Strict: 5, SameHour: 20, SameDay: 20},
		},
		Batch: BatchConfig{Concurrency: 8},
		Kafka: KafkaConfig{
			Topic:           "park-occupancy-features",
			PublishInterval: 5 * time.Minute,
		},
	}
}

// Load 加载配置: defaults, then the YAML file (if present), then environment overrides
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config.yml"
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = strings.ToLower(level)
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
		cfg.Kafka.Enabled = true
	}
}

// Validate checks struct tags and cross-field rules
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := time.LoadLocation(c.Analytics.Timezone); err != nil {
		return fmt.Errorf("invalid config: analytics.timezone: %w", err)
	}
	for i := 1; i < len(c.Analytics.CrowdBounds); i++ {
		if c.Analytics.CrowdBounds[i] <= c.Analytics.CrowdBounds[i-1] {
			return fmt.Errorf("invalid config: analytics.crowdBounds must be strictly ascending")
		}
	}
	return nil
}

// Location returns the timezone used to bucket samples into hours and days
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Analytics.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
