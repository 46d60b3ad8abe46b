package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"dragon-forge/internal/config"
)

func ConfigFrom(cfg config.NotifyConfig) (Config, error) {
	out := Config{
		Enabled:             cfg.Enabled,
		Workers:             cfg.Workers,
		RetryMax:            cfg.RetryMax,
		RetryBase:           time.Duration(cfg.RetryBaseMS) * time.Millisecond,
		FailureThreshold:    3,
		CircuitOpenDuration: 30 * time.Second,
		RequestTimeout:      time.Duration(cfg.RequestTimeoutMS) * time.Millisecond,
		DispatchBuffer:      1024,
	}
	if !out.Enabled {
		return out, nil
	}
	if out.RetryMax < 0 {
		out.RetryMax = 0
	}

	raw := strings.TrimSpace(cfg.TargetsJSON)
	if path := strings.TrimSpace(cfg.ConfigPath); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read notify config path %q: %w", path, err)
		}
		raw = strings.TrimSpace(string(b))
	}
	if raw == "" {
		return out, nil
	}
	targets, err := ParseTargetsJSON(raw)
	if err != nil {
		return Config{}, err
	}
	out.Targets = targets
	return out, nil
}

// ParseTargetsJSON decodes a target list, normalizing fields and dropping disabled or unusable entries.
func ParseTargetsJSON(raw string) ([]Target, error) {
	var targets []Target
	if err := json.Unmarshal([]byte(raw), &targets); err != nil {
		return nil, fmt.Errorf("parse notify targets: %w", err)
	}
	out := make([]Target, 0, len(targets))
	for _, t := range targets {
		t.Platform = strings.ToLower(strings.TrimSpace(t.Platform))
		t.ScopeType = strings.ToLower(strings.TrimSpace(t.ScopeType))
		t.ScopeValue = strings.ToLower(strings.TrimSpace(t.ScopeValue))
		t.Endpoint = strings.TrimSpace(t.Endpoint)
		if t.ScopeType == "" {
			t.ScopeType = "all"
		}
		if t.ScopeType != "all" && t.ScopeType != "account" {
			continue
		}
		if t.Endpoint == "" || !t.Enabled {
			continue
		}
		for i := range t.EventAllowlist {
			t.EventAllowlist[i] = strings.TrimSpace(t.EventAllowlist[i])
		}
		out = append(out, t)
	}
	return out, nil
}
