package httptransport

import (
	"net/http"
	"strconv"

	"dragon-forge/internal/forge"
	"dragon-forge/internal/node"
	"dragon-forge/internal/store"
)

type PublicHandlers struct {
	node    *node.Node
	journal Journal
}

func NewPublicHandlers(n *node.Node, journal Journal) *PublicHandlers {
	return &PublicHandlers{node: n, journal: journal}
}

func (h *PublicHandlers) Rewards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := pathAccount(r)
		if !ok {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_address")
			return
		}
		writeJSON(w, http.StatusOK, h.node.RewardsOf(account))
	}
}

func (h *PublicHandlers) Staked() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := pathAccount(r)
		if !ok {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_address")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"account": account, "items": h.node.StakedTokens(account)})
	}
}

func (h *PublicHandlers) AccountRequests() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := pathAccount(r)
		if !ok {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_address")
			return
		}
		items := node.RequestViews(h.node.Engine.MintRequestsOf(account))
		writeJSON(w, http.StatusOK, map[string]any{"account": account, "items": items})
	}
}

func (h *PublicHandlers) TokenStake() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUint(r, "token_id")
		if !ok {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_token_id")
			return
		}
		info := h.node.Engine.StakedTokenProps(id)
		if info.Owner.IsZero() {
			WriteHTTPError(w, http.StatusNotFound, "token_not_staked")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"token_id": id, "owner": info.Owner, "since": info.Since})
	}
}

func (h *PublicHandlers) Stakers() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"items": h.node.Engine.AllStakers()})
	}
}

func (h *PublicHandlers) Tiers() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"items": h.node.Engine.Tiers()})
	}
}

func (h *PublicHandlers) RarityLevels() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"items":        h.node.Engine.RarityLevels(),
			"minted_count": h.node.Engine.MintedCount(),
		})
	}
}

func (h *PublicHandlers) Settings() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.node.Engine.Settings())
	}
}

func (h *PublicHandlers) MintRequest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seq, ok := pathUint(r, "seq")
		if !ok {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_sequence_number")
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

// MintRequests lists journaled request projections; it needs the journal.
func (h *PublicHandlers) MintRequests() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.journal == nil {
			WriteHTTPError(w, http.StatusServiceUnavailable, "journal_disabled")
			return
		}
		limit, offset := ParsePagination(r)
		f := store.MintRequestFilter{State: r.URL.Query().Get("state"), Limit: limit, Offset: offset}
		if v := r.URL.Query().Get("requester"); v != "" {
			requester, err := forge.ParseAddress(v)
			if err != nil {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_address")
				return
			}
			f.Requester = requester.String()
		}
		items, err := h.journal.ListMintRequests(r.Context(), f)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "limit": limit, "offset": offset})
	}
}

func (h *PublicHandlers) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.journal == nil {
			WriteHTTPError(w, http.StatusServiceUnavailable, "journal_disabled")
			return
		}
		limit, _ := ParsePagination(r)
		q := r.URL.Query()
		f := store.EventFilter{Type: q.Get("type"), Limit: limit}
		if v := q.Get("from_seq"); v != "" {
			from, err := strconv.ParseInt(v, 10, 64)
			if err != nil || from < 0 {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_from_seq")
				return
			}
			f.FromSeq = from
		}
		if v := q.Get("account"); v != "" {
			account, err := forge.ParseAddress(v)
			if err != nil {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_address")
				return
			}
			f.Account = account.String()
		}
		items, err := h.journal.ListEvents(r.Context(), f)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "limit": limit})
	}
}

func (h *PublicHandlers) Finalize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seq, ok := pathUint(r, "seq")
		if !ok {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_sequence_number")
			return
		}
		req, err := h.node.Engine.SelectRarityAndMint(r.Context(), seq)
		if err != nil {
			metricRequestErrorsTotal.Add(1)
			writeForgeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, node.NewRequestView(req))
	}
}

func (h *PublicHandlers) Resolve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seq, ok := pathUint(r, "seq")
		if !ok {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_sequence_number")
			return
		}
		req, err := h.node.Engine.ResolveExpiredMint(r.Context(), seq)
		if err != nil {
			metricRequestErrorsTotal.Add(1)
			writeForgeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, node.NewRequestView(req))
	}
}
