package config

import "testing"

func TestLoadLogDefaults(t *testing.T) {
	cfg, err := LoadLog()
	if err != nil {
		t.Fatalf("LoadLog() error = %v", err)
	}
	if cfg.Level != "info" {
		t.Fatalf("Level = %q, want info", cfg.Level)
	}
	if cfg.MaxMB != 10 || cfg.Service != "forge-server" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadLogParse(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("LOG_SAMPLE_EVERY", "5")
	t.Setenv("LOG_FILE", "/tmp/forge.log")
	t.Setenv("LOG_CALLER", "true")

	cfg, err := LoadLog()
	if err != nil {
		t.Fatalf("LoadLog() error = %v", err)
	}
	if cfg.Level != "debug" || !cfg.Pretty || cfg.SampleEvery != 5 || cfg.File != "/tmp/forge.log" || !cfg.Caller {
		t.Fatalf("unexpected log config: %+v", cfg)
	}
}
