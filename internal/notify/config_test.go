package notify

import (
	"os"
	"path/filepath"
	"testing"

	"dragon-forge/internal/config"
)

func TestParseTargetsJSONFilters(t *testing.T) {
	raw := `[
		{"platform":" Discord ","endpoint":" https://d ","enabled":true},
		{"platform":"discord","endpoint":"https://e","scope_type":"account","scope_value":"0xABC","enabled":true},
		{"platform":"discord","endpoint":"","enabled":true},
		{"platform":"discord","endpoint":"https://f","scope_type":"room","enabled":true},
		{"platform":"discord","endpoint":"https://g","enabled":false}
	]`
	targets, err := ParseTargetsJSON(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("targets = %+v", targets)
	}
	if targets[0].Platform != "discord" || targets[0].Endpoint != "https://d" || targets[0].ScopeType != "all" {
		t.Fatalf("first target = %+v", targets[0])
	}
	if targets[1].ScopeValue != "0xabc" {
		t.Fatalf("scope value = %q", targets[1].ScopeValue)
	}
	if _, err := ParseTargetsJSON("{"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConfigFromReadsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.json")
	if err := os.WriteFile(path, []byte(`[{"platform":"discord","endpoint":"https://d","enabled":true}]`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := ConfigFrom(config.NotifyConfig{Enabled: true, ConfigPath: path, TargetsJSON: `[]`, Workers: 2, RetryMax: -1, RetryBaseMS: 100})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if len(cfg.Targets) != 1 || cfg.RetryMax != 0 || cfg.Workers != 2 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if _, err := ConfigFrom(config.NotifyConfig{Enabled: true, ConfigPath: filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Fatal("expected error for missing path")
	}
	off, err := ConfigFrom(config.NotifyConfig{TargetsJSON: "not json"})
	if err != nil || off.Enabled {
		t.Fatalf("disabled config = %+v, %v", off, err)
	}
}
