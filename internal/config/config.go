// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Feed describes the tick source and its tuning knobs.
type Feed struct {
	Provider       string       `yaml:"provider"` // sim | ws
	WSBaseURL      string       `yaml:"ws_base_url"`
	ConnectDelayMs int          `yaml:"connect_delay_ms"`
	Instruments    []Instrument `yaml:"instruments"`
}

// Instrument seeds one tradeable symbol with its simulated base price.
type Instrument struct {
	Symbol    string  `yaml:"symbol"`
	Name      string  `yaml:"name"`
	BasePrice float64 `yaml:"base_price"`
}

// Session groups the per-session accounting settings.
type Session struct {
	Instrument        string  `yaml:"instrument"`
	Timeframe         string  `yaml:"timeframe"`
	InitialInvestment float64 `yaml:"initial_investment"`
	HistoryLimit      int     `yaml:"history_limit"`
	AllowShort        bool    `yaml:"allow_short"`
	TradesPath        string  `yaml:"trades_path"` // empty disables the JSONL journal
}

// Signal specifies which classifier is active along with the parameter bundle.
type Signal struct {
	Mode               string  `yaml:"mode"` // random | momentum
	Seed               int64   `yaml:"seed"`
	MinIntervalSecs    int     `yaml:"min_interval_secs"`
	MomentumThreshold  float64 `yaml:"momentum_threshold"`
	MomentumWindowSecs int     `yaml:"momentum_window_secs"`
}

// Sizing tunes the position-sizing policy applied to each signal.
type Sizing struct {
	Quantity int `yaml:"quantity"`
}

// Risk encodes guard-rails for how much size the executor may take on.
type Risk struct {
	MaxNotionalPerTrade float64 `yaml:"max_notional_per_trade"`
	MaxOpenShares       int     `yaml:"max_open_shares"`
}

// Server configures the feed server binary.
type Server struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App     App     `yaml:"app"`
	Feed    Feed    `yaml:"feed"`
	Session Session `yaml:"session"`
	Signal  Signal  `yaml:"signal"`
	Sizing  Sizing  `yaml:"sizing"`
	Risk    Risk    `yaml:"risk"`
	Server  Server  `yaml:"server"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
