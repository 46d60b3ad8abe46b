package httptransport

import (
	"net/http"

	"dragon-forge/internal/forge"
	"dragon-forge/internal/node"

	"github.com/go-chi/chi/v5"
)

// AccountHandlers act on behalf of the X-Account caller.
type AccountHandlers struct {
	node *node.Node
}

func NewAccountHandlers(n *node.Node) *AccountHandlers {
	return &AccountHandlers{node: n}
}

type tokenIDsRequest struct {
	TokenIDs []uint64 `json:"token_ids"`
}

func (h *AccountHandlers) Stake() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := AccountFromContext(r.Context())
		var body tokenIDsRequest
		if err := decodeJSON(r, &body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		metricStakeRequestsTotal.Add(1)
		if err := h.node.Engine.Stake(r.Context(), caller, body.TokenIDs); err != nil {
			metricRequestErrorsTotal.Add(1)
			writeForgeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, h.node.RewardsOf(caller))
	}
}

func (h *AccountHandlers) Unstake() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := AccountFromContext(r.Context())
		var body tokenIDsRequest
		if err := decodeJSON(r, &body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if err := h.node.Engine.Unstake(r.Context(), caller, body.TokenIDs); err != nil {
			metricRequestErrorsTotal.Add(1)
			writeForgeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, h.node.RewardsOf(caller))
	}
}

func (h *AccountHandlers) RequestToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := AccountFromContext(r.Context())
		var body struct {
			Tier int    `json:"tier"`
			Fee  uint64 `json:"fee"`
		}
		if err := decodeJSON(r, &body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		metricMintRequestsTotal.Add(1)
		req, err := h.node.Engine.RequestToken(r.Context(), caller, body.Tier, body.Fee)
		if err != nil {
			metricRequestErrorsTotal.Add(1)
			writeForgeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, node.NewRequestView(req))
	}
}

func (h *AccountHandlers) Checkin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := AccountFromContext(r.Context())
		bonus, err := h.node.Engine.DailyCheckIn(r.Context(), caller)
		if err != nil {
			writeForgeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"account": caller, "bonus": bonus, "owed": h.node.Engine.OwedRewards(caller)})
	}
}

// Approval grants or revokes an operator over every item the caller holds in a collection.
func (h *AccountHandlers) Approval() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := AccountFromContext(r.Context())
		c, err := h.node.Collection(chi.URLParam(r, "name"))
		if err != nil {
			writeForgeError(w, r, err)
			return
		}
		var body struct {
			Operator string `json:"operator"`
			Approved bool   `json:"approved"`
		}
		if err := decodeJSON(r, &body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		operator, err := forge.ParseAddress(body.Operator)
		if err != nil || operator.IsZero() {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_address")
			return
		}
		c.SetApprovalForAll(caller, operator, body.Approved)
		writeJSON(w, http.StatusOK, map[string]any{
			"collection": c.Name(),
			"owner":      caller,
			"operator":   operator,
			"approved":   c.IsApprovedForAll(caller, operator),
		})
	}
}
