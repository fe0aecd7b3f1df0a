// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the hosting layer's configuration: the throttle
// core's own defaults (lockout window, max speed, tick interval) plus the
// REST/message-bus collaborator settings. The core itself takes no
// configuration — this exists entirely for cmd/throttled.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ThrottleConfig holds the core's tunable defaults.
type ThrottleConfig struct {
	DefaultLockoutMS int     `yaml:"defaultLockoutMs,omitempty"`
	MaxSpeed         float64 `yaml:"maxSpeed,omitempty"`
	TickIntervalMS   int     `yaml:"tickIntervalMs,omitempty"`
}

// APIConfig holds the REST server's settings.
type APIConfig struct {
	ListenAddr string `yaml:"listenAddr,omitempty"`
}

// BusConfig holds the message-bus collaborator's settings.
type BusConfig struct {
	ClientID     string `yaml:"clientId,omitempty"`
	CommandTopic string `yaml:"commandTopic,omitempty"`
	StateTopic   string `yaml:"stateTopic,omitempty"`
}

// FileConfig is the YAML configuration document shape.
type FileConfig struct {
	LogLevel string         `yaml:"logLevel,omitempty"`
	Throttle ThrottleConfig `yaml:"throttle,omitempty"`
	API      APIConfig      `yaml:"api,omitempty"`
	Bus      BusConfig      `yaml:"bus,omitempty"`
}

// AppConfig is the fully resolved configuration: defaults, overridden by
// file, overridden by environment.
type AppConfig struct {
	LogLevel string
	Throttle ThrottleConfig
	API      APIConfig
	Bus      BusConfig
}

// TickInterval returns the configured tick interval as a time.Duration.
func (c AppConfig) TickInterval() time.Duration {
	return time.Duration(c.Throttle.TickIntervalMS) * time.Millisecond
}

// Loader resolves configuration with precedence ENV > File > Defaults.
type Loader struct {
	configPath string
}

// NewLoader returns a Loader that reads configPath if non-empty.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

func defaults() AppConfig {
	return AppConfig{
		LogLevel: "info",
		Throttle: ThrottleConfig{
			DefaultLockoutMS: 3000,
			MaxSpeed:         1.0,
			TickIntervalMS:   50,
		},
		API: APIConfig{
			ListenAddr: ":8080",
		},
		Bus: BusConfig{
			ClientID:     "throttled",
			CommandTopic: "train/throttle/command",
			StateTopic:   "train/throttle/state",
		},
	}
}

// Load resolves the configuration: defaults, then the YAML file (if
// configPath was set), then environment overrides.
func (l *Loader) Load() (AppConfig, error) {
	cfg := defaults()

	if l.configPath != "" {
		fileCfg, err := loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFileConfig(&cfg, fileCfg)
	}

	mergeEnvConfig(&cfg)

	if err := validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile loads configuration from a YAML file with strict parsing:
// unknown fields are a fatal error, matching the teacher's config loader.
func loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator CLI/ENV, not request input
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

func mergeFileConfig(dst *AppConfig, src *FileConfig) {
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.Throttle.DefaultLockoutMS != 0 {
		dst.Throttle.DefaultLockoutMS = src.Throttle.DefaultLockoutMS
	}
	if src.Throttle.MaxSpeed != 0 {
		dst.Throttle.MaxSpeed = src.Throttle.MaxSpeed
	}
	if src.Throttle.TickIntervalMS != 0 {
		dst.Throttle.TickIntervalMS = src.Throttle.TickIntervalMS
	}
	if src.API.ListenAddr != "" {
		dst.API.ListenAddr = src.API.ListenAddr
	}
	if src.Bus.ClientID != "" {
		dst.Bus.ClientID = src.Bus.ClientID
	}
	if src.Bus.CommandTopic != "" {
		dst.Bus.CommandTopic = src.Bus.CommandTopic
	}
	if src.Bus.StateTopic != "" {
		dst.Bus.StateTopic = src.Bus.StateTopic
	}
}

func mergeEnvConfig(cfg *AppConfig) {
	if v := os.Getenv("THROTTLE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("THROTTLE_DEFAULT_LOCKOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Throttle.DefaultLockoutMS = n
		}
	}
	if v := os.Getenv("THROTTLE_MAX_SPEED"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Throttle.MaxSpeed = f
		}
	}
	if v := os.Getenv("THROTTLE_TICK_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Throttle.TickIntervalMS = n
		}
	}
	if v := os.Getenv("THROTTLE_API_LISTEN_ADDR"); v != "" {
		cfg.API.ListenAddr = v
	}
	if v := os.Getenv("THROTTLE_BUS_CLIENT_ID"); v != "" {
		cfg.Bus.ClientID = v
	}
}

func validate(cfg AppConfig) error {
	if cfg.Throttle.MaxSpeed <= 0 || cfg.Throttle.MaxSpeed > 1 {
		return fmt.Errorf("throttle.maxSpeed must be in (0,1], got %v", cfg.Throttle.MaxSpeed)
	}
	if cfg.Throttle.TickIntervalMS <= 0 {
		return fmt.Errorf("throttle.tickIntervalMs must be positive, got %d", cfg.Throttle.TickIntervalMS)
	}
	if cfg.API.ListenAddr == "" {
		return fmt.Errorf("api.listenAddr must not be empty")
	}
	return nil
}
