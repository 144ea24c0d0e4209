// Package config loads encbridge settings from a file, the environment and
// built-in defaults.
package config

import (
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/wippyai/encbridge/errors"
)

// EnvPrefix prefixes environment overrides, e.g. ENCBRIDGE_LOG_LEVEL.
const EnvPrefix = "ENCBRIDGE"

// Config is the full configuration.
type Config struct {
	Log    Log    `mapstructure:"log" toml:"log"`
	Guest  Guest  `mapstructure:"guest" toml:"guest"`
	Output string `mapstructure:"output" toml:"output"`
	Opus   Opus   `mapstructure:"opus" toml:"opus"`
}

// Log configures the logger.
type Log struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format"`
}

// Guest configures the wasm guest encoder.
type Guest struct {
	Path             string `mapstructure:"path" toml:"path"`
	Entry            string `mapstructure:"entry" toml:"entry"`
	Module           string `mapstructure:"module" toml:"module"`
	Stdin            string `mapstructure:"stdin" toml:"stdin"`
	MemoryLimitPages uint32 `mapstructure:"memory_limit_pages" toml:"memory_limit_pages"`
}

// Opus configures the libopusenc encoder.
type Opus struct {
	Comments map[string]string `mapstructure:"comments" toml:"comments"`
	Family   string            `mapstructure:"family" toml:"family"`
	Rate     int               `mapstructure:"rate" toml:"rate"`
	Channels int               `mapstructure:"channels" toml:"channels"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: Log{
			Level:  "info",
			Format: "console",
		},
		Guest: Guest{
			Entry:  "encode",
			Module: "encbridge",
		},
		Output: "out.ogg",
		Opus: Opus{
			Rate:     48000,
			Channels: 2,
			Family:   "mono-stereo",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("guest.path", d.Guest.Path)
	v.SetDefault("guest.entry", d.Guest.Entry)
	v.SetDefault("guest.module", d.Guest.Module)
	v.SetDefault("guest.stdin", d.Guest.Stdin)
	v.SetDefault("guest.memory_limit_pages", d.Guest.MemoryLimitPages)
	v.SetDefault("output", d.Output)
	v.SetDefault("opus.rate", d.Opus.Rate)
	v.SetDefault("opus.channels", d.Opus.Channels)
	v.SetDefault("opus.family", d.Opus.Family)
}

// Load reads path (TOML, YAML or JSON by extension) if it is non-empty,
// applies ENCBRIDGE_* environment overrides and validates the result.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(strings.ToLower(EnvPrefix))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read config "+path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return invalid("log.format", c.Log.Format)
	}
	if c.Guest.Entry == "" {
		return invalid("guest.entry", c.Guest.Entry)
	}
	if c.Guest.Module == "" {
		return invalid("guest.module", c.Guest.Module)
	}
	if c.Guest.MemoryLimitPages > 65536 {
		return invalid("guest.memory_limit_pages", c.Guest.MemoryLimitPages)
	}
	if c.Opus.Rate <= 0 {
		return invalid("opus.rate", c.Opus.Rate)
	}
	if c.Opus.Channels < 1 || c.Opus.Channels > 255 {
		return invalid("opus.channels", c.Opus.Channels)
	}
	switch c.Opus.Family {
	case "mono-stereo", "surround":
	default:
		return invalid("opus.family", c.Opus.Family)
	}
	return nil
}

func invalid(key string, value any) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Value(value).
		Detail("invalid %s: %v", key, value).
		Build()
}

// TOML renders the configuration as a TOML document.
func (c Config) TOML() ([]byte, error) {
	out, err := toml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "encode config")
	}
	return out, nil
}
