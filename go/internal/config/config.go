// Package config loads the buzzwire settings. Values come from built-in
// defaults, then an optional YAML file, then BUZZWIRE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when BUZZWIRE_CONFIG is unset and the file exists
const DefaultPath = "buzzwire.yaml"

type Config struct {
	Serial  SerialConfig  `yaml:"serial" envPrefix:"BUZZWIRE_SERIAL_"`
	Session SessionConfig `yaml:"session" envPrefix:"BUZZWIRE_SESSION_"`
	Store   StoreConfig   `yaml:"store" envPrefix:"BUZZWIRE_STORE_"`
	Server  ServerConfig  `yaml:"server"`
	NATS    NATSConfig    `yaml:"nats" envPrefix:"BUZZWIRE_NATS_"`
	Log     LogConfig     `yaml:"log" envPrefix:"BUZZWIRE_LOG_"`
}

type SerialConfig struct {
	Enabled      bool          `yaml:"enabled" env:"ENABLED"`
	Port         string        `yaml:"port" env:"PORT"`
	BaudRate     int           `yaml:"baud_rate" env:"BAUD_RATE"`
	PollInterval time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
}

type SessionConfig struct {
	StartingLives int           `yaml:"starting_lives" env:"STARTING_LIVES"`
	MaxDuration   time.Duration `yaml:"max_duration" env:"MAX_DURATION"`
	CancelPolicy  string        `yaml:"cancel_policy" env:"CANCEL_POLICY"`
	CancelGrace   time.Duration `yaml:"cancel_grace" env:"CANCEL_GRACE"`
	AutoStart     bool          `yaml:"auto_start" env:"AUTO_START"`
}

type StoreConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	Path   string `yaml:"path" env:"PATH"`
	DSN    string `yaml:"dsn" env:"DSN"`
}

type ServerConfig struct {
	Port int `yaml:"port" env:"PORT"`
}

type NATSConfig struct {
	URL           string `yaml:"url" env:"URL"`
	Stream        string `yaml:"stream" env:"STREAM"`
	SubjectPrefix string `yaml:"subject_prefix" env:"SUBJECT_PREFIX"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Pretty bool   `yaml:"pretty" env:"PRETTY"`
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		Serial: SerialConfig{
			Enabled:      true,
			Port:         "/dev/ttyUSB0",
			BaudRate:     9600,
			PollInterval: 20 * time.Millisecond,
			ReadTimeout:  100 * time.Millisecond,
		},
		Session: SessionConfig{
			StartingLives: 9,
			MaxDuration:   180 * time.Second,
			CancelPolicy:  "restart",
			CancelGrace:   time.Second,
		},
		Store: StoreConfig{
			Driver: "csv",
			Path:   "scores.csv",
		},
		Server: ServerConfig{Port: 8080},
		NATS: NATSConfig{
			Stream:        "BUZZWIRE_EVENTS",
			SubjectPrefix: "buzzwire.events",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// ResolvePath returns the YAML file to load: BUZZWIRE_CONFIG if set,
// otherwise DefaultPath when it exists, otherwise "".
func ResolvePath() string {
	if p := os.Getenv("BUZZWIRE_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}
	return ""
}

// Load builds the configuration. An empty path skips the YAML layer.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the process cannot start with
func (c Config) Validate() error {
	var errs []error

	if c.Serial.Enabled {
		if c.Serial.Port == "" {
			errs = append(errs, errors.New("serial.port is required when serial is enabled"))
		}
		if c.Serial.BaudRate <= 0 {
			errs = append(errs, fmt.Errorf("serial.baud_rate must be positive, got %d", c.Serial.BaudRate))
		}
	}
	if c.Serial.PollInterval <= 0 {
		errs = append(errs, errors.New("serial.poll_interval must be positive"))
	}

	if c.Session.StartingLives <= 0 {
		errs = append(errs, fmt.Errorf("session.starting_lives must be positive, got %d", c.Session.StartingLives))
	}
	if c.Session.MaxDuration < time.Second {
		errs = append(errs, errors.New("session.max_duration must be at least 1s"))
	}
	switch c.Session.CancelPolicy {
	case "restart", "idle":
	default:
		errs = append(errs, fmt.Errorf("session.cancel_policy must be restart or idle, got %q", c.Session.CancelPolicy))
	}
	if c.Session.CancelGrace < 0 {
		errs = append(errs, errors.New("session.cancel_grace must not be negative"))
	}

	switch c.Store.Driver {
	case "csv", "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store.path is required for the %s driver", c.Store.Driver))
		}
	case "postgres":
	default:
		errs = append(errs, fmt.Errorf("store.driver must be csv, sqlite or postgres, got %q", c.Store.Driver))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
