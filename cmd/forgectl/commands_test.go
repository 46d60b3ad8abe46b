package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dragon-forge/internal/config"
	"dragon-forge/internal/forge"
	"dragon-forge/internal/node"
	httptransport "dragon-forge/internal/transport/http"
)

const adminKey = "ctl-secret"

var (
	vault  = "0x00000000000000000000000000000000000000f0"
	player = "0x0000000000000000000000000000000000000001"
)

func newTestServer(t *testing.T, now *time.Time) (*httptest.Server, *node.Node) {
	t.Helper()
	n, err := node.New(node.Options{
		Owner:          forge.MustAddress("0x00000000000000000000000000000000000000a0"),
		Vault:          forge.MustAddress(vault),
		Provider:       forge.MustAddress("0x52deaa1c84233f7bb8c8a45baede41091c616506"),
		OracleAddress:  forge.MustAddress("0x00000000000000000000000000000000000000e0"),
		DragonsAddress: forge.MustAddress("0x00000000000000000000000000000000000000d1"),
		PartyAddress:   forge.MustAddress("0x00000000000000000000000000000000000000d3"),
		RewardsAddress: forge.MustAddress("0x00000000000000000000000000000000000000d2"),
		Now:            func() time.Time { return *now },
	})
	if err != nil {
		t.Fatalf("node: %v", err)
	}
	srv := httptest.NewServer(httptransport.NewRouter(n, nil, config.ServerConfig{AdminAPIKey: adminKey}))
	t.Cleanup(srv.Close)
	return srv, n
}

func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", server, "--admin-key", adminKey, "--account", player}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, server string, args ...string) string {
	t.Helper()
	out, err := run(t, server, args...)
	if err != nil {
		t.Fatalf("forgectl %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestApplyAndPlayThroughCLI(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	srv, n := newTestServer(t, &now)

	path := filepath.Join(t.TempDir(), "forge.yaml")
	file := `
tiers:
  - price: 1000
    probabilities: [50, 50]
rarity_levels:
  - max_supply: 5
    uri_prefix: "ar://common/"
  - max_supply: 5
    uri_prefix: "ar://rare/"
settings:
  staking_open: true
  minting_open: true
  mint_expiry: 1h
`
	if err := os.WriteFile(path, []byte(file), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if out := mustRun(t, srv.URL, "apply", "-f", path); !strings.Contains(out, "applied 1 tiers and 2 rarity levels") {
		t.Fatalf("apply output = %q", out)
	}
	if s := n.Engine.Settings(); !s.StakingOpen || !s.MintingOpen || s.MintExpirySeconds != 3600 {
		t.Fatalf("settings = %+v", s)
	}

	mustRun(t, srv.URL, "seed", "dragons", player, "-n", "1")
	mustRun(t, srv.URL, "approve", "dragons", vault)
	mustRun(t, srv.URL, "stake", "1")
	mustRun(t, srv.URL, "rate", "--per-hour", "100")

	now = now.Add(10 * time.Hour)
	var rewards map[string]any
	if err := json.Unmarshal([]byte(mustRun(t, srv.URL, "rewards")), &rewards); err != nil {
		t.Fatalf("decode rewards: %v", err)
	}
	if rewards["pending"] != float64(1000) {
		t.Fatalf("rewards = %v", rewards)
	}

	mustRun(t, srv.URL, "request", "--tier", "0")
	mustRun(t, srv.URL, "fire", "1", "1")
	var done map[string]any
	if err := json.Unmarshal([]byte(mustRun(t, srv.URL, "finalize", "1")), &done); err != nil {
		t.Fatalf("decode finalize: %v", err)
	}
	if done["uri"] != "ar://common/1.json" {
		t.Fatalf("finalized = %v", done)
	}
}

func TestCLIErrors(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	srv, _ := newTestServer(t, &now)

	_, err := run(t, srv.URL, "stake", "1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict || apiErr.Code != "staking_closed" {
		t.Fatalf("stake err = %v", err)
	}
	if _, err := run(t, srv.URL, "staking", "maybe"); err == nil {
		t.Fatalf("expected invalid mode arg error")
	}
	if _, err := run(t, srv.URL, "rate"); err == nil {
		t.Fatalf("expected missing rate flag error")
	}
	if _, err := run(t, srv.URL, "fire", "0"); err == nil {
		t.Fatalf("expected invalid sequence error")
	}

	noKey := NewClient(srv.URL, "", player)
	if err := noKey.SetStakingMode(context.Background(), true); err == nil || !strings.Contains(err.Error(), "admin key required") {
		t.Fatalf("no key err = %v", err)
	}
	wrongKey := NewClient(srv.URL, "nope", player)
	err = wrongKey.SetStakingMode(context.Background(), true)
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("wrong key err = %v", err)
	}
}
