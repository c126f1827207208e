package config

import (
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "papertrader-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.LogLevel != "debug" {
		t.Fatalf("unexpected App.LogLevel: %s", cfg.App.LogLevel)
	}
	if cfg.Feed.Provider != "sim" {
		t.Fatalf("unexpected Feed.Provider: %s", cfg.Feed.Provider)
	}
	if cfg.Feed.WSBaseURL != "ws://localhost:9999" {
		t.Fatalf("unexpected Feed.WSBaseURL: %s", cfg.Feed.WSBaseURL)
	}
	if cfg.Feed.ConnectDelayMs != 10 {
		t.Fatalf("unexpected Feed.ConnectDelayMs: %d", cfg.Feed.ConnectDelayMs)
	}
	if len(cfg.Feed.Instruments) != 1 || cfg.Feed.Instruments[0].Symbol != "AAPL" {
		t.Fatalf("unexpected instruments: %+v", cfg.Feed.Instruments)
	}
	if cfg.Feed.Instruments[0].BasePrice != 180 {
		t.Fatalf("unexpected base price: %.2f", cfg.Feed.Instruments[0].BasePrice)
	}
	if cfg.Session.Timeframe != "30m" {
		t.Fatalf("unexpected Session.Timeframe: %s", cfg.Session.Timeframe)
	}
	if cfg.Session.InitialInvestment != 5000 {
		t.Fatalf("unexpected Session.InitialInvestment: %.2f", cfg.Session.InitialInvestment)
	}
	if cfg.Session.HistoryLimit != 50 {
		t.Fatalf("unexpected Session.HistoryLimit: %d", cfg.Session.HistoryLimit)
	}
	if !cfg.Session.AllowShort {
		t.Fatalf("expected allow_short true")
	}
	if cfg.Session.TradesPath != "out/trades.jsonl" {
		t.Fatalf("unexpected Session.TradesPath: %s", cfg.Session.TradesPath)
	}
	if cfg.Signal.Mode != "momentum" {
		t.Fatalf("unexpected Signal.Mode: %s", cfg.Signal.Mode)
	}
	if cfg.Signal.Seed != 7 {
		t.Fatalf("unexpected Signal.Seed: %d", cfg.Signal.Seed)
	}
	if cfg.Signal.MinIntervalSecs != 3 {
		t.Fatalf("unexpected Signal.MinIntervalSecs: %d", cfg.Signal.MinIntervalSecs)
	}
	if cfg.Signal.MomentumThreshold != 0.05 {
		t.Fatalf("unexpected Signal.MomentumThreshold: %.2f", cfg.Signal.MomentumThreshold)
	}
	if cfg.Sizing.Quantity != 2 {
		t.Fatalf("unexpected Sizing.Quantity: %d", cfg.Sizing.Quantity)
	}
	if cfg.Risk.MaxNotionalPerTrade != 1000 {
		t.Fatalf("unexpected Risk.MaxNotionalPerTrade: %.2f", cfg.Risk.MaxNotionalPerTrade)
	}
	if cfg.Risk.MaxOpenShares != 10 {
		t.Fatalf("unexpected Risk.MaxOpenShares: %d", cfg.Risk.MaxOpenShares)
	}
	if cfg.Server.ListenAddr != ":8081" {
		t.Fatalf("unexpected Server.ListenAddr: %s", cfg.Server.ListenAddr)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload returned error: %v", err)
	}
	if reloaded.App != cfg.App {
		t.Fatalf("round trip changed app section: %+v vs %+v", reloaded.App, cfg.App)
	}
	if reloaded.Session != cfg.Session {
		t.Fatalf("round trip changed session section: %+v vs %+v", reloaded.Session, cfg.Session)
	}
}

func TestSaveNilConfig(t *testing.T) {
	if err := Save(filepath.Join(t.TempDir(), "config.yaml"), nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
