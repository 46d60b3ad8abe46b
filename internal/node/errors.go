package node

import (
	"errors"
	"net/http"

	"dragon-forge/internal/entropy"
	"dragon-forge/internal/forge"
	"dragon-forge/internal/nft"
)

type errorMapping struct {
	err    error
	status int
}

// Order matters only for wrapped chains; typed balance and fee errors unwrap to their sentinels.
var errorMappings = []errorMapping{
	{forge.ErrInvalidTierType, http.StatusBadRequest},
	{forge.ErrInvalidTokenIndex, http.StatusBadRequest},
	{forge.ErrInvalidProbabilitySum, http.StatusBadRequest},
	{forge.ErrConfigMismatch, http.StatusBadRequest},
	{forge.ErrInvalidAddress, http.StatusBadRequest},
	{forge.ErrInvalidConfig, http.StatusBadRequest},

	{forge.ErrUnauthorizedAccount, http.StatusForbidden},
	{forge.ErrUnauthorizedCaller, http.StatusForbidden},
	{forge.ErrNotOwnerOfToken, http.StatusForbidden},
	{forge.ErrNotStakedOwner, http.StatusForbidden},
	{forge.ErrDirectTransferNotAllowed, http.StatusForbidden},
	{nft.ErrNotApproved, http.StatusForbidden},

	{forge.ErrRequestNotFound, http.StatusNotFound},
	{nft.ErrTokenNotFound, http.StatusNotFound},
	{nft.ErrUnknownCollection, http.StatusNotFound},
	{entropy.ErrUnknownSequence, http.StatusNotFound},

	{forge.ErrInsufficientBalance, http.StatusPaymentRequired},
	{forge.ErrInsufficientFee, http.StatusPaymentRequired},

	{forge.ErrStakingClosed, http.StatusConflict},
	{forge.ErrMintingClosed, http.StatusConflict},
	{forge.ErrAlreadyStaked, http.StatusConflict},
	{forge.ErrRollsNotInitialized, http.StatusConflict},
	{forge.ErrRequestNotCompleted, http.StatusConflict},
	{forge.ErrMintAlreadyCompleted, http.StatusConflict},
	{forge.ErrMintRequestAlreadyCancelled, http.StatusConflict},
	{forge.ErrRequestAlreadyCompleted, http.StatusConflict},
	{forge.ErrRequestAlreadyCancelled, http.StatusConflict},
	{forge.ErrRandomnessAlreadyDelivered, http.StatusConflict},
	{forge.ErrMintRequestNotYetExpired, http.StatusConflict},
	{forge.ErrCheckinTooEarly, http.StatusConflict},
	{forge.ErrDuplicateSequence, http.StatusConflict},
	{forge.ErrNoMintsLeft, http.StatusConflict},
	{nft.ErrTokenExists, http.StatusConflict},
	{nft.ErrWrongOwner, http.StatusConflict},
	{nft.ErrInvalidDestination, http.StatusBadRequest},
	{entropy.ErrNoCallback, http.StatusServiceUnavailable},
}

// MapError returns the HTTP status and stable error code for an error from the forge,
// its collections or the oracle. Unknown errors map to 500 internal_error.
func MapError(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.err.Error()
		}
	}
	return http.StatusInternalServerError, "internal_error"
}
