package models

// MConfig Structure
type MConfig struct {
	Name       string            `yaml:"name"`
	Host       string            `yaml:"host"`
	Port       int               `yaml:"port"`
	LogLevel   string            `yaml:"log_level"`
	Redis      MRedisConfig      `yaml:"redis"`
	Storage    MStorageConfig    `yaml:"storage"`
	Network    MNetworkConfig    `yaml:"network"`
	Source     MSourceConfig     `yaml:"source"`
	Ingestion  MIngestionConfig  `yaml:"ingestion"`
	Pipeline   MPipelineConfig   `yaml:"pipeline"`
	Resilience MResilienceConfig `yaml:"resilience"`
	Websocket  MWebsocketConfig  `yaml:"websocket"`
}

type MRedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MStorageConfig struct {
	Enabled            bool   `yaml:"enabled"`
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days"`
}

type MNetworkConfig struct {
	RequestTimeout int    `yaml:"timeout"`
	UserAgent      string `yaml:"user_agent"`
}

type MSourceConfig struct {
	Name     string   `yaml:"name"`
	Provider string   `yaml:"provider"` // "yahoo" or "sim"
	Symbols  []string `yaml:"symbols"`
	APIKey   string   `yaml:"api_key"` // Optional
}

type MIngestionConfig struct {
	UpdateIntervalSeconds   int      `yaml:"update_interval_seconds"`
	PriorityIntervalSeconds int      `yaml:"priority_interval_seconds"`
	SummaryIntervalSeconds  int      `yaml:"summary_interval_seconds"`
	SweepBatchSize          int      `yaml:"sweep_batch_size"`
	BatchPauseMs            int      `yaml:"batch_pause_ms"`
	PrioritySymbols         []string `yaml:"priority_symbols"`
	MarketHoursOnly         bool     `yaml:"market_hours_only"`
}

type MPipelineConfig struct {
	DrainIntervalMs      int     `yaml:"drain_interval_ms"`
	DrainBatchSize       int     `yaml:"drain_batch_size"`
	PriceEpsilon         float64 `yaml:"price_epsilon"`
	SnapshotTTLSeconds   int     `yaml:"snapshot_ttl_seconds"`
	SeriesMaxLength      int     `yaml:"series_max_length"`
	HistoryRetentionDays int     `yaml:"history_retention_days"`
}

type MResilienceConfig struct {
	MaxAttempts         int     `yaml:"max_attempts"`
	BaseDelayMs         int     `yaml:"base_delay_ms"`
	MaxDelayMs          int     `yaml:"max_delay_ms"`
	Multiplier          float64 `yaml:"multiplier"`
	Jitter              bool    `yaml:"jitter"`
	FailureThreshold    int     `yaml:"failure_threshold"`
	ResetTimeoutSeconds int     `yaml:"reset_timeout_seconds"`
	HalfOpenSuccesses   int     `yaml:"half_open_successes"`
}

type MWebsocketConfig struct {
	HeartbeatSeconds int `yaml:"heartbeat_seconds"`
	StaleSeconds     int `yaml:"stale_seconds"`
	SendBufferSize   int `yaml:"send_buffer_size"`
}
