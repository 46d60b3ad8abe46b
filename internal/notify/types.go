package notify

import (
	"time"

	"dragon-forge/internal/forge"
	"dragon-forge/internal/notify/platforms"
)

// Target is one webhook destination. ScopeType "all" receives every allowed event, "account"
// only events whose account equals ScopeValue.
type Target struct {
	Platform       string   `json:"platform"`
	Endpoint       string   `json:"endpoint"`
	Secret         string   `json:"secret"`
	ScopeType      string   `json:"scope_type"`
	ScopeValue     string   `json:"scope_value"`
	EventAllowlist []string `json:"event_allowlist"`
	Enabled        bool     `json:"enabled"`
}

type Config struct {
	Enabled             bool
	Targets             []Target
	Workers             int
	RetryMax            int
	RetryBase           time.Duration
	FailureThreshold    int
	CircuitOpenDuration time.Duration
	RequestTimeout      time.Duration
	DispatchBuffer      int
}

type job struct {
	Target  Target
	Event   forge.Event
	Message platforms.Message
	Attempt int
}

func (j job) key() string {
	return targetKey(j.Target)
}

func targetKey(t Target) string {
	return t.Platform + "|" + t.Endpoint + "|" + t.ScopeType + "|" + t.ScopeValue
}
