package config

import "testing"

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg := LoadFromEnv()

	if cfg.APIPort != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.APIPort)
	}
	if cfg.DatabasePort != "5432" {
		t.Errorf("expected default db port 5432, got %s", cfg.DatabasePort)
	}
	if cfg.Poller.IntervalSeconds != 60 {
		t.Errorf("expected default poll interval 60, got %d", cfg.Poller.IntervalSeconds)
	}
	if cfg.Poller.LookbackHours != 168 {
		t.Errorf("expected default lookback 168h, got %d", cfg.Poller.LookbackHours)
	}
	if cfg.Alerts.MinTradeSizeUSD != 100.0 {
		t.Errorf("expected default min trade size 100, got %f", cfg.Alerts.MinTradeSizeUSD)
	}
	if cfg.Alerts.BatchAlerts {
		t.Error("batching must default to off")
	}
	if cfg.LLM.Enabled {
		t.Error("LLM must default to disabled")
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("POLL_INTERVAL_SECONDS", "30")
	t.Setenv("MIN_TRADE_SIZE_USD", "250.5")
	t.Setenv("BATCH_ALERTS", "true")
	t.Setenv("EMAIL_TO", "a@example.com, b@example.com,,")

	cfg := LoadFromEnv()

	if cfg.APIPort != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.APIPort)
	}
	if cfg.Poller.IntervalSeconds != 30 {
		t.Errorf("expected interval 30, got %d", cfg.Poller.IntervalSeconds)
	}
	if cfg.Alerts.MinTradeSizeUSD != 250.5 {
		t.Errorf("expected min trade size 250.5, got %f", cfg.Alerts.MinTradeSizeUSD)
	}
	if !cfg.Alerts.BatchAlerts {
		t.Error("expected batching enabled")
	}
	if len(cfg.Email.To) != 2 || cfg.Email.To[1] != "b@example.com" {
		t.Errorf("expected trimmed recipient list, got %v", cfg.Email.To)
	}
}

func TestGetEnvIntRejectsGarbage(t *testing.T) {
	t.Setenv("API_PORT", "not-a-number")

	cfg := LoadFromEnv()
	if cfg.APIPort != 8080 {
		t.Errorf("garbage values must fall back to the default, got %d", cfg.APIPort)
	}
}
