package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. LCW_ANALYSIS_WORKERS.
const EnvPrefix = "LCW"

// CommandEnv is the variable the daemon command has always been read from.
const CommandEnv = "CLI_LIGHTNING_COMMAND"

// SetDefaults registers every key with v so that AutomaticEnv can override
// keys that are absent from the config file.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("analysis.max_depth", d.Analysis.MaxDepth)
	v.SetDefault("analysis.weighting", d.Analysis.Weighting)
	v.SetDefault("analysis.normalization", d.Analysis.Normalization)
	v.SetDefault("analysis.min_degree", d.Analysis.MinDegree)
	v.SetDefault("analysis.limit", d.Analysis.Limit)
	v.SetDefault("analysis.amount", d.Analysis.Amount)
	v.SetDefault("analysis.workers", d.Analysis.Workers)
	v.SetDefault("analysis.timeout", d.Analysis.Timeout)

	v.SetDefault("lightning.command", d.Lightning.Command)
	v.SetDefault("lightning.args", d.Lightning.Args)
	v.SetDefault("lightning.timeout", d.Lightning.Timeout)
	v.SetDefault("lightning.test_dir", d.Lightning.TestDir)

	v.SetDefault("history.backend", d.History.Backend)
	v.SetDefault("history.path", d.History.Path)

	v.SetDefault("fees.k", d.Fees.K)
	v.SetDefault("fees.offset", d.Fees.Offset)
	v.SetDefault("fees.max", d.Fees.Max)
	v.SetDefault("fees.force", d.Fees.Force)

	v.SetDefault("logging.json", d.Logging.JSON)
	v.SetDefault("logging.level", d.Logging.Level)

	v.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
	v.SetDefault("telemetry.disabled", d.Telemetry.Disabled)
}

// BindEnv wires the LCW_ prefix and the legacy command variable into v.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v.BindEnv("lightning.command", EnvPrefix+"_LIGHTNING_COMMAND", CommandEnv)
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Analysis.Weighting = strings.ToLower(strings.TrimSpace(cfg.Analysis.Weighting))
	cfg.Analysis.Normalization = strings.ToLower(strings.TrimSpace(cfg.Analysis.Normalization))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: %q fails %s %s", fe.Namespace(), fmt.Sprint(fe.Value()), fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
