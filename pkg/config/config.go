// Package config loads the static pipeline configuration from environment
// variables. Configuration is read once at startup and never re-read
// mid-batch.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Pipeline      PipelineConfig
	History       HistoryConfig
	Observability ObservabilityConfig
}

// PipelineConfig carries the normalization defaults and batch parallelism.
type PipelineConfig struct {
	DefaultCurrency     string
	EarliestDate        time.Time
	FutureToleranceDays int
	Workers             int
}

// HistoryConfig points at the optional cross-batch identity ledger.
// An empty path disables it.
type HistoryConfig struct {
	Path string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	earliest, err := time.Parse(time.DateOnly, getEnv("EARLIEST_DATE", "2000-01-01"))
	if err != nil {
		return nil, fmt.Errorf("invalid EARLIEST_DATE: %w", err)
	}

	return &Config{
		Pipeline: PipelineConfig{
			DefaultCurrency:     getEnv("DEFAULT_CURRENCY", "AUD"),
			EarliestDate:        earliest,
			FutureToleranceDays: getEnvAsInt("FUTURE_TOLERANCE_DAYS", 3),
			Workers:             getEnvAsInt("PIPELINE_WORKERS", runtime.GOMAXPROCS(0)),
		},
		History: HistoryConfig{
			Path: getEnv("HISTORY_PATH", ""),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", false),
		},
	}, nil
}

// FutureTolerance returns the tolerance as a duration.
func (c *PipelineConfig) FutureTolerance() time.Duration {
	return time.Duration(c.FutureToleranceDays) * 24 * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
