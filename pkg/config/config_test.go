package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port=%q", cfg.Port)
	}
	if cfg.KiteExchange != "NSE" || cfg.KiteProduct != "MIS" {
		t.Errorf("exchange=%q product=%q", cfg.KiteExchange, cfg.KiteProduct)
	}
	if cfg.Lookback != 10 || cfg.ProfitTargetPct != 0.03 || cfg.StopLossPct != 0.01 {
		t.Errorf("strategy defaults: lookback=%d target=%v stop=%v", cfg.Lookback, cfg.ProfitTargetPct, cfg.StopLossPct)
	}
	if cfg.MonitorActiveInterval != 2*time.Second || cfg.MonitorIdleInterval != 5*time.Second {
		t.Errorf("monitor intervals: %v / %v", cfg.MonitorActiveInterval, cfg.MonitorIdleInterval)
	}
	if cfg.DryRun {
		t.Error("DryRun should default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("KITE_API_KEY", "abc")
	t.Setenv("DRY_RUN", "true")
	t.Setenv("DEFAULT_QUANTITY", "25")
	t.Setenv("LOOKBACK_PERIOD", "20")
	t.Setenv("PROFIT_TARGET_PCT", "0.05")
	t.Setenv("MONITOR_ACTIVE_INTERVAL", "500ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9090" || cfg.KiteAPIKey != "abc" {
		t.Errorf("Port=%q APIKey=%q", cfg.Port, cfg.KiteAPIKey)
	}
	if !cfg.DryRun {
		t.Error("DryRun not picked up")
	}
	if cfg.DefaultQuantity != 25 || cfg.Lookback != 20 || cfg.ProfitTargetPct != 0.05 {
		t.Errorf("qty=%d lookback=%d target=%v", cfg.DefaultQuantity, cfg.Lookback, cfg.ProfitTargetPct)
	}
	if cfg.MonitorActiveInterval != 500*time.Millisecond {
		t.Errorf("active interval=%v", cfg.MonitorActiveInterval)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DEFAULT_QUANTITY", "lots")
	t.Setenv("STOP_LOSS_PCT", "one percent")
	t.Setenv("MONITOR_IDLE_INTERVAL", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DefaultQuantity != 1 || cfg.StopLossPct != 0.01 || cfg.MonitorIdleInterval != 5*time.Second {
		t.Errorf("malformed values should fall back to defaults: %+v", cfg)
	}
}
