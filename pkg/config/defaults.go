// Package config defines the runtime configuration and its defaults.
package config

import "time"

// Config is the full runtime configuration. Keys map to ~/.lcw.yaml and to
// LCW_* environment variables through viper.
type Config struct {
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Lightning LightningConfig `mapstructure:"lightning"`
	History   HistoryConfig   `mapstructure:"history"`
	Fees      FeesConfig      `mapstructure:"fees"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AnalysisConfig drives the centrality passes.
type AnalysisConfig struct {
	// MaxDepth bounds the breadth-first scan.
	MaxDepth int `mapstructure:"max_depth" validate:"gte=1,lte=64"`
	// Weighting is "capacity" or "count".
	Weighting string `mapstructure:"weighting" validate:"oneof=capacity count"`
	// Normalization is "hopsum" or "nodes".
	Normalization string `mapstructure:"normalization" validate:"oneof=hopsum nodes"`
	// MinDegree filters candidates by channel count.
	MinDegree int `mapstructure:"min_degree" validate:"gte=0"`
	// Limit caps ranked output. 0 means unbounded.
	Limit int `mapstructure:"limit" validate:"gte=0"`
	// Amount is the hypothetical channel capacity in satoshis.
	Amount int64 `mapstructure:"amount" validate:"gt=0"`
	// Workers bounds concurrent evaluations. 0 means one per CPU.
	Workers int `mapstructure:"workers" validate:"gte=0"`
	// Timeout aborts a whole ranking pass. 0 disables it.
	Timeout time.Duration `mapstructure:"timeout"`
}

// LightningConfig binds the daemon CLI.
type LightningConfig struct {
	// Command is the lightning-cli invocation, e.g. "lightning-cli" or
	// "docker exec cln lightning-cli".
	Command string        `mapstructure:"command"`
	Args    []string      `mapstructure:"args"`
	Timeout time.Duration `mapstructure:"timeout"`
	// TestDir switches to canned JSON responses read from this directory.
	TestDir string `mapstructure:"test_dir"`
}

// HistoryConfig selects the snapshot store.
type HistoryConfig struct {
	// Backend is "file" or "badger".
	Backend string `mapstructure:"backend" validate:"oneof=file badger"`
	// Path overrides the backend's default location.
	Path string `mapstructure:"path"`
}

// FeesConfig holds the fee planner policy.
type FeesConfig struct {
	K      int  `mapstructure:"k"`
	Offset int  `mapstructure:"offset"`
	Max    int  `mapstructure:"max" validate:"gte=0"`
	Force  bool `mapstructure:"force"`
}

// LoggingConfig selects the slog handler and level.
type LoggingConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// TelemetryConfig controls the OpenTelemetry bootstrap.
type TelemetryConfig struct {
	// Endpoint is an OTLP/HTTP URL. Empty falls back to
	// OTEL_EXPORTER_OTLP_ENDPOINT, then to a discarding exporter.
	Endpoint string `mapstructure:"endpoint"`
	Disabled bool   `mapstructure:"disabled"`
}

// Defaults.
const (
	DefaultMaxDepth  = 9
	DefaultMinDegree = 25
	DefaultLimit     = 15
	DefaultAmount    = 15_000_000
	DefaultCommand   = "lightning-cli"

	WeightingCapacity   = "capacity"
	WeightingCount      = "count"
	NormalizationHopSum = "hopsum"
	NormalizationNodes  = "nodes"
)

// Default returns a configuration with sensible default values.
func Default() Config {
	return Config{
		Analysis: AnalysisConfig{
			MaxDepth:      DefaultMaxDepth,
			Weighting:     WeightingCapacity,
			Normalization: NormalizationHopSum,
			MinDegree:     DefaultMinDegree,
			Limit:         DefaultLimit,
			Amount:        DefaultAmount,
		},
		Lightning: LightningConfig{
			Command: DefaultCommand,
			Timeout: 60 * time.Second,
		},
		History: HistoryConfig{
			Backend: "file",
		},
		Fees: FeesConfig{
			K:      50,
			Offset: -40,
			Max:    2000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
