package config

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	// WebServer Configuration
	WebServerPort int `mapstructure:"WEBSERVER_PORT"`

	// Database Configuration
	DatabaseDSN     string `mapstructure:"DATABASE_DSN" validate:"required"`
	DatabaseRetries int    `mapstructure:"DATABASE_RETRIES"`

	Storage StorageConfig `mapstructure:",squash"`

	// Aggregation Configuration
	AggregateWorkers     int           `mapstructure:"AGGREGATE_WORKERS" validate:"min=1"`
	AggregateTimeout     time.Duration `mapstructure:"AGGREGATE_TIMEOUT"`
	AggregateMaxAttempts int           `mapstructure:"AGGREGATE_MAX_ATTEMPTS" validate:"min=1"`

	// Optional storage notification trigger
	PubSubProjectID    string `mapstructure:"PUBSUB_PROJECT_ID" validate:"required_with=PubSubSubscription"`
	PubSubSubscription string `mapstructure:"PUBSUB_SUBSCRIPTION"`
}

// StorageConfig selects where stage documents are read from. Each stage
// writes into its own bucket (or subdirectory for the dir backend).
type StorageConfig struct {
	Backend           string `mapstructure:"STORAGE_BACKEND" validate:"oneof=gcs dir"`
	Dir               string `mapstructure:"STORAGE_DIR" validate:"required_if=Backend dir"`
	Endpoint          string `mapstructure:"STORAGE_ENDPOINT"`
	BucketMetadata    string `mapstructure:"BUCKET_METADATA" validate:"required"`
	BucketTranscripts string `mapstructure:"BUCKET_TRANSCRIPTS" validate:"required"`
	BucketOCR         string `mapstructure:"BUCKET_OCR" validate:"required"`
	BucketDetections  string `mapstructure:"BUCKET_DETECTIONS" validate:"required"`
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)
		tag := field.Tag.Get("mapstructure")

		squash := strings.HasPrefix(tag, ",")
		if tag != "" && !squash {
			viper.BindEnv(tag)
		}

		// Handle nested structs
		if field.Type.Kind() == reflect.Struct && (tag == "" || squash) {
			nestedTyp := fieldVal.Type()
			for j := 0; j < fieldVal.NumField(); j++ {
				nestedField := nestedTyp.Field(j)
				nestedTag := nestedField.Tag.Get("mapstructure")
				if nestedTag != "" {
					viper.BindEnv(nestedTag)
				}
			}
		}
	}
	slog.Info("Environment variables bound", "config", c)
}

func LoadConfig(ctx context.Context) (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("WEBSERVER_PORT", 8080)
	viper.SetDefault("DATABASE_RETRIES", 10)
	viper.SetDefault("STORAGE_BACKEND", "dir")
	viper.SetDefault("STORAGE_DIR", "./data")
	viper.SetDefault("BUCKET_METADATA", "metadata")
	viper.SetDefault("BUCKET_TRANSCRIPTS", "transcripts")
	viper.SetDefault("BUCKET_OCR", "ocr")
	viper.SetDefault("BUCKET_DETECTIONS", "detections")
	viper.SetDefault("AGGREGATE_WORKERS", 2)
	viper.SetDefault("AGGREGATE_TIMEOUT", 2*time.Minute)
	viper.SetDefault("AGGREGATE_MAX_ATTEMPTS", 5)

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	slog.Info("Loaded configuration", "config", cfg.Redacted())

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.DatabaseDSN != "" {
		c.DatabaseDSN = "<redacted>"
	}
	return c
}
