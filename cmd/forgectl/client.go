package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dragon-forge/internal/forge"
	"dragon-forge/internal/forgefile"
)

// APIError is a non-2xx answer from forge-server.
type APIError struct {
	Status int
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("forge-server returned %d: %s", e.Status, e.Code)
}

// Client talks to forge-server. Admin calls send the admin key, account calls send X-Account.
type Client struct {
	baseURL  string
	adminKey string
	account  string
	http     *http.Client
}

var _ forgefile.Target = (*Client)(nil)

func NewClient(baseURL, adminKey, account string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		adminKey: adminKey,
		account:  account,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		if e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{Status: resp.StatusCode, Code: e.Error}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) admin(ctx context.Context, method, path string, body, out any) error {
	if c.adminKey == "" {
		return fmt.Errorf("admin key required: pass --admin-key or set FORGECTL_ADMIN_KEY")
	}
	return c.do(ctx, method, path, map[string]string{"X-Admin-Key": c.adminKey}, body, out)
}

func (c *Client) asAccount(ctx context.Context, method, path string, body, out any) error {
	if c.account == "" {
		return fmt.Errorf("account required: pass --account or set FORGECTL_ACCOUNT")
	}
	return c.do(ctx, method, path, map[string]string{"X-Account": c.account}, body, out)
}

func (c *Client) InitializeRollTypes(ctx context.Context, tiers []forge.Tier) error {
	return c.admin(ctx, http.MethodPut, "/api/admin/tiers", map[string]any{"tiers": tiers}, nil)
}

func (c *Client) InitializeRarityLevels(ctx context.Context, levels []forge.RarityLevel) error {
	return c.admin(ctx, http.MethodPut, "/api/admin/rarity-levels", map[string]any{"levels": levels}, nil)
}

func (c *Client) SetStakingMode(ctx context.Context, open bool) error {
	return c.admin(ctx, http.MethodPut, "/api/admin/staking-mode", map[string]any{"open": open}, nil)
}

func (c *Client) SetMintingMode(ctx context.Context, open bool) error {
	return c.admin(ctx, http.MethodPut, "/api/admin/minting-mode", map[string]any{"open": open}, nil)
}

func (c *Client) SetPointsPerDay(ctx context.Context, rate uint64) error {
	return c.setValue(ctx, "points-per-day", rate)
}

func (c *Client) SetPointsPerHour(ctx context.Context, rate uint64) error {
	return c.setValue(ctx, "points-per-hour", rate)
}

func (c *Client) SetDailyBonus(ctx context.Context, bonus uint64) error {
	return c.setValue(ctx, "daily-bonus", bonus)
}

func (c *Client) SetLoyaltyDailyBonus(ctx context.Context, bonus uint64) error {
	return c.setValue(ctx, "loyalty-daily-bonus", bonus)
}

func (c *Client) SetLoyaltyDiscount(ctx context.Context, divisor uint64) error {
	return c.setValue(ctx, "loyalty-discount", divisor)
}

func (c *Client) SetMintExpiry(ctx context.Context, expiry time.Duration) error {
	return c.admin(ctx, http.MethodPut, "/api/admin/mint-expiry", map[string]any{"seconds": int64(expiry / time.Second)}, nil)
}

func (c *Client) setValue(ctx context.Context, setting string, v uint64) error {
	return c.admin(ctx, http.MethodPut, "/api/admin/"+setting, map[string]any{"value": v}, nil)
}

func (c *Client) SetAddress(ctx context.Context, setting string, addr forge.Address) error {
	return c.admin(ctx, http.MethodPut, "/api/admin/"+setting, map[string]any{"address": addr}, nil)
}

func (c *Client) FireOracle(ctx context.Context, seq uint64, randomness string) (map[string]any, error) {
	var out map[string]any
	err := c.admin(ctx, http.MethodPost, fmt.Sprintf("/api/admin/oracle/%d/fire", seq), map[string]any{"randomness": randomness}, &out)
	return out, err
}

func (c *Client) PendingOracle(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.admin(ctx, http.MethodGet, "/api/admin/oracle/pending", nil, &out)
	return out, err
}

func (c *Client) SeedCollection(ctx context.Context, name string, to forge.Address, count int) (map[string]any, error) {
	var out map[string]any
	err := c.admin(ctx, http.MethodPost, "/api/admin/collections/"+name+"/mint", map[string]any{"to": to, "count": count}, &out)
	return out, err
}

func (c *Client) Sweep(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.admin(ctx, http.MethodPost, "/api/admin/sweep", nil, &out)
	return out, err
}

func (c *Client) Rewards(ctx context.Context, account forge.Address) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/api/public/accounts/"+account.String()+"/rewards", nil, nil, &out)
	return out, err
}

func (c *Client) MintRequest(ctx context.Context, seq uint64) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/public/mint-requests/%d", seq), nil, nil, &out)
	return out, err
}

func (c *Client) Finalize(ctx context.Context, seq uint64) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/public/mint-requests/%d/finalize", seq), nil, nil, &out)
	return out, err
}

func (c *Client) Resolve(ctx context.Context, seq uint64) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/public/mint-requests/%d/resolve", seq), nil, nil, &out)
	return out, err
}

func (c *Client) Stake(ctx context.Context, ids []uint64) (map[string]any, error) {
	var out map[string]any
	err := c.asAccount(ctx, http.MethodPost, "/api/stake", map[string]any{"token_ids": ids}, &out)
	return out, err
}

func (c *Client) Unstake(ctx context.Context, ids []uint64) (map[string]any, error) {
	var out map[string]any
	err := c.asAccount(ctx, http.MethodPost, "/api/unstake", map[string]any{"token_ids": ids}, &out)
	return out, err
}

func (c *Client) Approve(ctx context.Context, collection string, operator forge.Address, approved bool) (map[string]any, error) {
	var out map[string]any
	err := c.asAccount(ctx, http.MethodPost, "/api/collections/"+collection+"/approvals", map[string]any{"operator": operator, "approved": approved}, &out)
	return out, err
}

func (c *Client) RequestToken(ctx context.Context, tier int, fee uint64) (map[string]any, error) {
	var out map[string]any
	err := c.asAccount(ctx, http.MethodPost, "/api/mint-requests", map[string]any{"tier": tier, "fee": fee}, &out)
	return out, err
}

func (c *Client) Checkin(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.asAccount(ctx, http.MethodPost, "/api/checkin", nil, &out)
	return out, err
}
