package httptransport

import (
	"errors"
	"net/http"

	"dragon-forge/internal/forge"
	"dragon-forge/internal/node"

	"github.com/rs/zerolog/log"
)

// writeForgeError maps a domain error to its status and code. Balance and fee shortfalls
// carry the amounts involved.
func writeForgeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := node.MapError(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("forge_request_failed")
	}
	body := map[string]any{"error": code}
	var be *forge.InsufficientBalanceError
	var fe *forge.InsufficientFeeError
	switch {
	case errors.As(err, &be):
		body["available"] = be.Available
		body["required"] = be.Required
	case errors.As(err, &fe):
		body["paid"] = fe.Paid
		body["required"] = fe.Required
	}
	writeJSON(w, status, body)
}
