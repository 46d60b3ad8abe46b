package httptransport

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"dragon-forge/internal/config"
	"dragon-forge/internal/mcpserver"
	"dragon-forge/internal/node"
	"dragon-forge/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Journal is the persisted history behind the list endpoints. A nil Journal disables them.
type Journal interface {
	Ping(ctx context.Context) error
	ListEvents(ctx context.Context, f store.EventFilter) ([]store.Event, error)
	ListMintRequests(ctx context.Context, f store.MintRequestFilter) ([]store.MintRequest, error)
}

func NewRouter(n *node.Node, journal Journal, cfg config.ServerConfig) *chi.Mux {
	publicHandlers := NewPublicHandlers(n, journal)
	accountHandlers := NewAccountHandlers(n)
	adminHandlers := NewAdminHandlers(n, journal)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())
	if cfg.MCPEnabled {
		var mcpJournal mcpserver.Journal
		if journal != nil {
			mcpJournal = journal
		}
		mcpSrv := mcpserver.New(n, mcpJournal)
		r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
		})
		r.With(APILogMiddleware()).Method(http.MethodPost, "/mcp", mcpSrv.Handler())
		r.With(APILogMiddleware()).Method(http.MethodGet, "/mcp", mcpSrv.Handler())
		r.With(APILogMiddleware()).Method(http.MethodDelete, "/mcp", mcpSrv.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Route("/public", func(r chi.Router) {
			r.Get("/accounts/{account}/rewards", publicHandlers.Rewards())
			r.Get("/accounts/{account}/staked", publicHandlers.Staked())
			r.Get("/accounts/{account}/requests", publicHandlers.AccountRequests())
			r.Get("/tokens/{token_id}/stake", publicHandlers.TokenStake())
			r.Get("/stakers", publicHandlers.Stakers())
			r.Get("/tiers", publicHandlers.Tiers())
			r.Get("/rarity-levels", publicHandlers.RarityLevels())
			r.Get("/settings", publicHandlers.Settings())
			r.Get("/mint-requests", publicHandlers.MintRequests())
			r.Get("/mint-requests/{seq}", publicHandlers.MintRequest())
			r.Post("/mint-requests/{seq}/finalize", publicHandlers.Finalize())
			r.Post("/mint-requests/{seq}/resolve", publicHandlers.Resolve())
			r.Get("/events", publicHandlers.Events())
		})

		r.Group(func(r chi.Router) {
			r.Use(AccountMiddleware())
			r.Post("/stake", accountHandlers.Stake())
			r.Post("/unstake", accountHandlers.Unstake())
			r.Post("/mint-requests", accountHandlers.RequestToken())
			r.Post("/checkin", accountHandlers.Checkin())
			r.Post("/collections/{name}/approvals", accountHandlers.Approval())
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
			r.Group(func(r chi.Router) {
				r.Use(BodyCaptureMiddleware(4096))
				r.Put("/staking-mode", adminHandlers.StakingMode())
				r.Put("/minting-mode", adminHandlers.MintingMode())
				r.Put("/points-per-hour", adminHandlers.PointsPerHour())
				r.Put("/points-per-day", adminHandlers.PointsPerDay())
				r.Put("/daily-bonus", adminHandlers.DailyBonus())
				r.Put("/loyalty-daily-bonus", adminHandlers.LoyaltyDailyBonus())
				r.Put("/loyalty-discount", adminHandlers.LoyaltyDiscount())
				r.Put("/mint-expiry", adminHandlers.MintExpiry())
				r.Put("/provider", adminHandlers.Provider())
				r.Put("/reward-contract", adminHandlers.RewardContract())
				r.Put("/tiers", adminHandlers.RollTypes())
				r.Put("/tier-types", adminHandlers.TierTypes())
				r.Put("/rarity-levels", adminHandlers.RarityLevels())
				r.Post("/oracle/{seq}/fire", adminHandlers.FireOracle())
				r.Post("/collections/{name}/mint", adminHandlers.MintCollection())
				r.Post("/sweep", adminHandlers.Sweep())
			})
			r.Get("/oracle/pending", adminHandlers.PendingOracle())
			r.Get("/debug/vars", expvar.Handler().ServeHTTP)
		})
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 64)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
