package httptransport

import (
	"context"
	"net/http"
	"time"

	"dragon-forge/internal/forge"
	"dragon-forge/internal/node"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// AdminHandlers perform owner operations. Requests reaching them passed AdminAuthMiddleware,
// so they act as the configured owner.
type AdminHandlers struct {
	node    *node.Node
	journal Journal
}

func NewAdminHandlers(n *node.Node, journal Journal) *AdminHandlers {
	return &AdminHandlers{node: n, journal: journal}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.journal == nil {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "disabled"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.journal.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": "down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "up"})
	}
}

func (h *AdminHandlers) owner() forge.Address { return h.node.Engine.Owner() }

// applied answers an admin update with the resulting settings.
func (h *AdminHandlers) applied(w http.ResponseWriter, r *http.Request, what string, err error) {
	if err != nil {
		metricRequestErrorsTotal.Add(1)
		writeForgeError(w, r, err)
		return
	}
	metricAdminUpdatesTotal.Add(1)
	log.Info().Str("update", what).Msg("forge_admin_update")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "settings": h.node.Engine.Settings()})
}

func (h *AdminHandlers) modeHandler(what string, set func(forge.Address, bool) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Open *bool `json:"open"`
		}
		if err := decodeJSON(r, &body); err != nil || body.Open == nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		h.applied(w, r, what, set(h.owner(), *body.Open))
	}
}

func (h *AdminHandlers) valueHandler(what string, set func(forge.Address, uint64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Value *uint64 `json:"value"`
		}
		if err := decodeJSON(r, &body); err != nil || body.Value == nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		h.applied(w, r, what, set(h.owner(), *body.Value))
	}
}

func (h *AdminHandlers) addressHandler(what string, set func(forge.Address, forge.Address) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Address string `json:"address"`
		}
		if err := decodeJSON(r, &body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		addr, err := forge.ParseAddress(body.Address)
		if err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_address")
			return
		}
		h.applied(w, r, what, set(h.owner(), addr))
	}
}

func (h *AdminHandlers) StakingMode() http.HandlerFunc {
	return h.modeHandler("staking_mode", h.node.Engine.SetStakingMode)
}

func (h *AdminHandlers) MintingMode() http.HandlerFunc {
	return h.modeHandler("minting_mode", h.node.Engine.SetMintingMode)
}

func (h *AdminHandlers) PointsPerHour() http.HandlerFunc {
	return h.valueHandler("points_per_hour", h.node.Engine.SetPointsPerHourPerToken)
}

func (h *AdminHandlers) PointsPerDay() http.HandlerFunc {
	return h.valueHandler("points_per_day", h.node.Engine.SetPointsPerDayPerToken)
}

func (h *AdminHandlers) DailyBonus() http.HandlerFunc {
	return h.valueHandler("daily_bonus", h.node.Engine.SetDailyBonus)
}

func (h *AdminHandlers) LoyaltyDailyBonus() http.HandlerFunc {
	return h.valueHandler("loyalty_daily_bonus", h.node.Engine.SetLoyaltyDailyBonus)
}

func (h *AdminHandlers) LoyaltyDiscount() http.HandlerFunc {
	return h.valueHandler("loyalty_discount", h.node.Engine.SetLoyaltyDiscount)
}

func (h *AdminHandlers) MintExpiry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Seconds int64 `json:"seconds"`
		}
		if err := decodeJSON(r, &body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		h.applied(w, r, "mint_expiry", h.node.Engine.SetMintExpiry(h.owner(), time.Duration(body.Seconds)*time.Second))
	}
}

func (h *AdminHandlers) Provider() http.HandlerFunc {
	return h.addressHandler("provider", h.node.Engine.SetProvider)
}

func (h *AdminHandlers) RewardContract() http.HandlerFunc {
	return h.addressHandler("reward_contract", h.node.Engine.SetRewardContract)
}

func (h *AdminHandlers) tiersHandler(what string, set func(forge.Address, []forge.Tier) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Tiers []forge.Tier `json:"tiers"`
		}
		if err := decodeJSON(r, &body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if err := set(h.owner(), body.Tiers); err != nil {
			writeForgeError(w, r, err)
			return
		}
		metricAdminUpdatesTotal.Add(1)
		log.Info().Str("update", what).Int("tiers", len(body.Tiers)).Msg("forge_admin_update")
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "items": h.node.Engine.Tiers()})
	}
}

// RollTypes replaces the roll tiers and validates each weight vector against the probability total.
func (h *AdminHandlers) RollTypes() http.HandlerFunc {
	return h.tiersHandler("roll_types", h.node.Engine.InitializeRollTypes)
}

func (h *AdminHandlers) TierTypes() http.HandlerFunc {
	return h.tiersHandler("tier_types", h.node.Engine.InitializeTierTypes)
}

func (h *AdminHandlers) RarityLevels() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Levels []forge.RarityLevel `json:"levels"`
		}
		if err := decodeJSON(r, &body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if err := h.node.Engine.InitializeRarityLevels(h.owner(), body.Levels); err != nil {
			writeForgeError(w, r, err)
			return
		}
		metricAdminUpdatesTotal.Add(1)
		log.Info().Str("update", "rarity_levels").Int("levels", len(body.Levels)).Msg("forge_admin_update")
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "items": h.node.Engine.RarityLevels()})
	}
}

// FireOracle delivers randomness for an issued oracle request. randomness takes a decimal or
// 0x-prefixed hex word and wins over value.
func (h *AdminHandlers) FireOracle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seq, ok := pathUint(r, "seq")
		if !ok {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_sequence_number")
			return
		}
		var body struct {
			Randomness string `json:"randomness"`
			Value      uint64 `json:"value"`
		}
		if err := decodeJSON(r, &body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		value := forge.RandomnessFromUint64(body.Value)
		if body.Randomness != "" {
			parsed, err := forge.ParseRandomness(body.Randomness)
			if err != nil {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_randomness")
				return
			}
			value = parsed
		}
		if err := h.node.Oracle.Fire(r.Context(), seq, value); err != nil {
			writeForgeError(w, r, err)
			return
		}
		req, err := h.node.Engine.MintRequest(seq)
		if err != nil {
			writeForgeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, node.NewRequestView(req))
	}
}

func (h *AdminHandlers) PendingOracle() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"items": h.node.Oracle.Pending()})
	}
}

// MintCollection seeds items into a collection, the way a deployment airdrops dragons and party tokens.
func (h *AdminHandlers) MintCollection() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := h.node.Collection(chi.URLParam(r, "name"))
		if err != nil {
			writeForgeError(w, r, err)
			return
		}
		var body struct {
			To    string `json:"to"`
			Count int    `json:"count"`
		}
		if err := decodeJSON(r, &body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		to, err := forge.ParseAddress(body.To)
		if err != nil || to.IsZero() {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_address")
			return
		}
		if body.Count < 1 || body.Count > 1000 {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_count")
			return
		}
		ids, err := c.MintBatch(r.Context(), to, body.Count)
		if err != nil {
			writeForgeError(w, r, err)
			return
		}
		log.Info().Str("collection", c.Name()).Str("to", to.String()).Int("count", len(ids)).Msg("forge_collection_seeded")
		writeJSON(w, http.StatusCreated, map[string]any{"collection": c.Name(), "to": to, "token_ids": ids})
	}
}

func (h *AdminHandlers) Sweep() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := h.node.Engine.Sweep(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{
			"finalized": res.Finalized,
			"refunded":  res.Refunded,
			"expired":   res.Expired,
		})
	}
}
