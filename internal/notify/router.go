package notify

import (
	"strings"

	"dragon-forge/internal/forge"
)

func matchTargets(targets []Target, ev forge.Event) []Target {
	var out []Target
	for _, t := range targets {
		if !t.Enabled || !scopeMatches(t, ev) || !eventAllowed(t.EventAllowlist, ev.Type) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func scopeMatches(t Target, ev forge.Event) bool {
	switch t.ScopeType {
	case "all":
		return true
	case "account":
		return t.ScopeValue != "" && strings.EqualFold(t.ScopeValue, ev.Account.String())
	default:
		return false
	}
}

func eventAllowed(allowlist []string, evType forge.EventType) bool {
	if len(allowlist) == 0 {
		return true
	}
	for _, v := range allowlist {
		if strings.EqualFold(v, string(evType)) {
			return true
		}
	}
	return false
}
