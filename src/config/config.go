package config

import (
	"fmt"
	"os"
	"strings"

	"market-pulse/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills in the optional tuning knobs most deployments leave out
func (c *Config) applyDefaults() {
	if c.Ingestion.UpdateIntervalSeconds == 0 {
		c.Ingestion.UpdateIntervalSeconds = 30
	}
	if c.Ingestion.PriorityIntervalSeconds == 0 {
		c.Ingestion.PriorityIntervalSeconds = 10
	}
	if c.Ingestion.SummaryIntervalSeconds == 0 {
		c.Ingestion.SummaryIntervalSeconds = 60
	}
	if c.Ingestion.SweepBatchSize == 0 {
		c.Ingestion.SweepBatchSize = 10
	}
	if c.Ingestion.BatchPauseMs == 0 {
		c.Ingestion.BatchPauseMs = 200
	}

	if c.Pipeline.DrainIntervalMs == 0 {
		c.Pipeline.DrainIntervalMs = 1000
	}
	if c.Pipeline.DrainBatchSize == 0 {
		c.Pipeline.DrainBatchSize = 50
	}
	if c.Pipeline.PriceEpsilon == 0 {
		c.Pipeline.PriceEpsilon = 0.001
	}
	if c.Pipeline.SnapshotTTLSeconds == 0 {
		c.Pipeline.SnapshotTTLSeconds = 120
	}
	if c.Pipeline.SeriesMaxLength == 0 {
		c.Pipeline.SeriesMaxLength = 1000
	}
	if c.Pipeline.HistoryRetentionDays == 0 {
		c.Pipeline.HistoryRetentionDays = 7
	}

	if c.Resilience.MaxAttempts == 0 {
		c.Resilience.MaxAttempts = 3
	}
	if c.Resilience.BaseDelayMs == 0 {
		c.Resilience.BaseDelayMs = 500
	}
	if c.Resilience.MaxDelayMs == 0 {
		c.Resilience.MaxDelayMs = 10000
	}
	if c.Resilience.Multiplier == 0 {
		c.Resilience.Multiplier = 2.0
	}
	if c.Resilience.FailureThreshold == 0 {
		c.Resilience.FailureThreshold = 5
	}
	if c.Resilience.ResetTimeoutSeconds == 0 {
		c.Resilience.ResetTimeoutSeconds = 30
	}
	if c.Resilience.HalfOpenSuccesses == 0 {
		c.Resilience.HalfOpenSuccesses = 2
	}

	if c.Websocket.HeartbeatSeconds == 0 {
		c.Websocket.HeartbeatSeconds = 30
	}
	if c.Websocket.StaleSeconds == 0 {
		c.Websocket.StaleSeconds = 90
	}
	if c.Websocket.SendBufferSize == 0 {
		c.Websocket.SendBufferSize = 256
	}

	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = 10
	}
	if c.Storage.RetentionDays == 0 {
		c.Storage.RetentionDays = 7
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Redis configuration
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address cannot be empty")
	}

	// Validate Storage configuration
	if c.Storage.Enabled {
		switch c.Storage.DBType {
		case "sqlite":
			if c.Storage.DBPath == "" {
				return fmt.Errorf("database path cannot be empty for sqlite")
			}
		case "postgres":
			if c.Storage.DBConnectionString == "" {
				return fmt.Errorf("connection string cannot be empty for postgres")
			}
		default:
			return fmt.Errorf("unknown database type: %q", c.Storage.DBType)
		}
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}

	// Validate Source configuration
	if c.Source.Name == "" {
		return fmt.Errorf("source must have a name")
	}
	if c.Source.Provider != "yahoo" && c.Source.Provider != "sim" {
		return fmt.Errorf("unknown source provider: %q", c.Source.Provider)
	}
	if len(c.Source.Symbols) == 0 {
		return fmt.Errorf("source '%s' must have at least one symbol", c.Source.Name)
	}

	// Validate Ingestion configuration
	if c.Ingestion.UpdateIntervalSeconds <= 0 {
		return fmt.Errorf("update interval must be greater than 0")
	}
	if c.Ingestion.SweepBatchSize <= 0 {
		return fmt.Errorf("sweep batch size must be greater than 0")
	}
	for _, sym := range c.Ingestion.PrioritySymbols {
		if !contains(c.Source.Symbols, sym) {
			return fmt.Errorf("priority symbol %q is not part of the source universe", sym)
		}
	}

	// Validate Pipeline configuration
	if c.Pipeline.DrainBatchSize <= 0 {
		return fmt.Errorf("drain batch size must be greater than 0")
	}
	if c.Pipeline.PriceEpsilon < 0 {
		return fmt.Errorf("price epsilon cannot be negative")
	}

	// Validate Resilience configuration
	if c.Resilience.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be greater than 0")
	}
	if c.Resilience.Multiplier < 1 {
		return fmt.Errorf("backoff multiplier must be at least 1")
	}
	if c.Resilience.MaxDelayMs < c.Resilience.BaseDelayMs {
		return fmt.Errorf("max delay cannot be smaller than base delay")
	}

	// Validate Websocket configuration
	if c.Websocket.StaleSeconds < c.Websocket.HeartbeatSeconds {
		return fmt.Errorf("stale threshold cannot be smaller than the heartbeat period")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func contains(list []string, target string) bool {
	for _, s := range list {
		if strings.EqualFold(s, target) {
			return true
		}
	}
	return false
}
