package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/maastricht-university/calltimeline/metrics"
	"github.com/maastricht-university/calltimeline/validation"
)

// EnvPrefix prefixes environment overrides, e.g. CALLTIMELINE_METRICS_WORKERS.
const EnvPrefix = "CALLTIMELINE"

// ErrInvalid wraps configuration validation failures.
var ErrInvalid = errors.New("invalid configuration")

type Service struct {
	URL string `mapstructure:"url" yaml:"url" validate:"omitempty,url"`
}
type Services struct {
	Ingest    Service `mapstructure:"ingest" yaml:"ingest"`
	Reporting Service `mapstructure:"reporting" yaml:"reporting"`
}
type Metrics struct {
	Enabled                []string `mapstructure:"enabled" yaml:"enabled"`
	Workers                int      `mapstructure:"workers" yaml:"workers" validate:"gte=1,lte=256"`
	Tolerance              float64  `mapstructure:"tolerance" yaml:"tolerance" validate:"gt=0"`
	LongPauseSec           float64  `mapstructure:"long_pause_sec" yaml:"long_pause_sec" validate:"gte=0"`
	DeadAirSec             float64  `mapstructure:"dead_air_sec" yaml:"dead_air_sec" validate:"gte=0"`
	InterruptionGapSec     float64  `mapstructure:"interruption_gap_sec" yaml:"interruption_gap_sec" validate:"gte=0"`
	MonologueMinUtterances int      `mapstructure:"monologue_min_utterances" yaml:"monologue_min_utterances" validate:"gte=1"`
	Fillers                []string `mapstructure:"fillers" yaml:"fillers"`
}
type Output struct {
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json yaml"`
}
type Root struct {
	Pipeline struct {
		Name      string `mapstructure:"name" yaml:"name" validate:"required"`
		Version   string `mapstructure:"version" yaml:"version"`
		LogLvl    string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=trace debug info warn error"`
		LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`
	} `mapstructure:"pipeline" yaml:"pipeline"`
	Metrics  Metrics  `mapstructure:"metrics" yaml:"metrics"`
	Services Services `mapstructure:"services" yaml:"services"`
	Output   Output   `mapstructure:"output" yaml:"output"`
	Paths    struct {
		Data    string `mapstructure:"data" yaml:"data"`
		Outputs string `mapstructure:"outputs" yaml:"outputs" validate:"required"`
	} `mapstructure:"paths" yaml:"paths"`
}

// New returns a viper instance with defaults and environment overrides
// registered. Callers may bind flags to it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("pipeline.name", "calltimeline")
	v.SetDefault("pipeline.version", "dev")
	v.SetDefault("pipeline.log_level", "info")
	v.SetDefault("pipeline.log_format", "text")
	v.SetDefault("metrics.enabled", []string{})
	v.SetDefault("metrics.workers", 4)
	v.SetDefault("metrics.tolerance", 1e-9)
	v.SetDefault("metrics.long_pause_sec", 3.0)
	v.SetDefault("metrics.dead_air_sec", 5.0)
	v.SetDefault("metrics.interruption_gap_sec", 0.5)
	v.SetDefault("metrics.monologue_min_utterances", 3)
	v.SetDefault("metrics.fillers", metrics.DefaultFillers)
	v.SetDefault("services.ingest.url", "")
	v.SetDefault("services.reporting.url", "")
	v.SetDefault("output.format", "json")
	v.SetDefault("paths.data", "data")
	v.SetDefault("paths.outputs", "outputs")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Candidates lists the config files tried when no explicit path is given.
// CONFIG_ENV selects the environment directory (default "dev").
func Candidates() []string {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return []string{
		filepath.Join("config", env, "config.yaml"),
		filepath.Join("config", "config.yaml"),
		"config.yaml",
	}
}

// Load reads the config file into v, then decodes and validates it. An
// explicit path must exist; otherwise the first existing candidate is used
// and running on defaults alone is allowed. A .env file in the working
// directory is loaded first when present.
func Load(v *viper.Viper, path string) (*Root, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		for _, p := range Candidates() {
			if _, err := os.Stat(p); err != nil {
				continue
			}
			v.SetConfigFile(p)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", p, err)
			}
			break
		}
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Metrics.Enabled = splitList(cfg.Metrics.Enabled)
	cfg.Metrics.Fillers = splitList(cfg.Metrics.Fillers)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and metric ids.
func (c *Root) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := metrics.ParseIDs(c.Metrics.Enabled); err != nil {
		return fmt.Errorf("%w: metrics.enabled: %w", ErrInvalid, err)
	}
	return nil
}

// Options converts the metrics section to engine options.
func (m Metrics) Options() metrics.Options {
	return metrics.Options{
		Tolerance:              m.Tolerance,
		LongPauseSec:           m.LongPauseSec,
		DeadAirSec:             m.DeadAirSec,
		InterruptionGapSec:     m.InterruptionGapSec,
		MonologueMinUtterances: m.MonologueMinUtterances,
		Fillers:                m.Fillers,
	}
}

// IDs returns the enabled metric ids; empty means all.
func (m Metrics) IDs() []metrics.ID {
	ids, _ := metrics.ParseIDs(m.Enabled)
	return ids
}

// splitList accepts both YAML lists and a comma separated env value.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
