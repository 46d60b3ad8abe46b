package httptransport

import "expvar"

var (
	metricStakeRequestsTotal = expvar.NewInt("forge_http_stake_requests_total")
	metricMintRequestsTotal  = expvar.NewInt("forge_http_mint_requests_total")
	metricAdminUpdatesTotal  = expvar.NewInt("forge_http_admin_updates_total")
	metricRequestErrorsTotal = expvar.NewInt("forge_http_request_errors_total")
)
