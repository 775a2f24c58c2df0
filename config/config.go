// Package config loads audiomesh settings from defaults, an optional TOML
// file and AUDIOMESH_ environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Audio  AudioConfig  `mapstructure:"audio"`
	Log    LogConfig    `mapstructure:"log"`
	Loop   LoopConfig   `mapstructure:"loop"`
	Render RenderConfig `mapstructure:"render"`
}

// AudioConfig holds scenario defaults.
type AudioConfig struct {
	SampleRate  float64 `mapstructure:"sample_rate"`
	Channels    int     `mapstructure:"channels"`
	LatencyHint string  `mapstructure:"latency_hint"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

// LoopConfig bounds the task loop.
type LoopConfig struct {
	MaxTicks int `mapstructure:"max_ticks"`
}

// RenderConfig tunes offline rendering.
type RenderConfig struct {
	Chunk int `mapstructure:"chunk"`
}

// Load reads configuration from file and env. Env var overrides use prefix
// AUDIOMESH_, e.g. AUDIOMESH_AUDIO_SAMPLE_RATE=48000. AUDIOMESH_CONFIG points
// at an explicit config file.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("audio.sample_rate", 44100.0)
	v.SetDefault("audio.channels", 2)
	v.SetDefault("audio.latency_hint", "interactive")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.add_source", false)
	v.SetDefault("loop.max_ticks", 1024)
	v.SetDefault("render.chunk", 64)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("AUDIOMESH_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "audiomesh"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("AUDIOMESH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil && cfgPath != "" {
		return Config{}, fmt.Errorf("read config %s: %w", cfgPath, err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects values no context could be created with.
func (c Config) Validate() error {
	switch {
	case c.Audio.SampleRate <= 0:
		return fmt.Errorf("audio.sample_rate must be positive, got %v", c.Audio.SampleRate)
	case c.Audio.Channels <= 0:
		return fmt.Errorf("audio.channels must be positive, got %d", c.Audio.Channels)
	}
	return nil
}
