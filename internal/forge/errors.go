package forge

import (
	"errors"
	"fmt"
)

var (
	// input validation
	ErrInvalidTierType       = errors.New("invalid_tier_type")
	ErrInvalidTokenIndex     = errors.New("invalid_token_index")
	ErrInvalidProbabilitySum = errors.New("invalid_probability_sum")
	ErrConfigMismatch        = errors.New("config_mismatch")
	ErrInvalidAddress        = errors.New("invalid_address")
	ErrInvalidConfig         = errors.New("invalid_config")

	// state preconditions
	ErrStakingClosed               = errors.New("staking_closed")
	ErrMintingClosed               = errors.New("minting_closed")
	ErrAlreadyStaked               = errors.New("already_staked")
	ErrNotOwnerOfToken             = errors.New("not_owner_of_token")
	ErrNotStakedOwner              = errors.New("not_staked_owner")
	ErrRollsNotInitialized         = errors.New("rolls_not_initialized")
	ErrRequestNotFound             = errors.New("request_not_found")
	ErrRequestNotCompleted         = errors.New("request_not_completed")
	ErrMintAlreadyCompleted        = errors.New("mint_already_completed")
	ErrMintRequestAlreadyCancelled = errors.New("mint_request_already_cancelled")
	ErrRequestAlreadyCompleted     = errors.New("request_already_completed")
	ErrRequestAlreadyCancelled     = errors.New("request_already_cancelled")
	ErrRandomnessAlreadyDelivered  = errors.New("randomness_already_delivered")
	ErrMintRequestNotYetExpired    = errors.New("mint_request_not_yet_expired")
	ErrCheckinTooEarly             = errors.New("checkin_too_early")
	ErrDirectTransferNotAllowed    = errors.New("direct_transfer_not_allowed")
	ErrDuplicateSequence           = errors.New("duplicate_sequence_number")

	// economic checks
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrInsufficientFee     = errors.New("insufficient_fee")
	ErrNoMintsLeft         = errors.New("no_mints_left")

	// access control
	ErrUnauthorizedAccount = errors.New("unauthorized_account")
	ErrUnauthorizedCaller  = errors.New("unauthorized_caller")
)

// InsufficientBalanceError carries the caller's spendable balance and the charge it failed to cover.
type InsufficientBalanceError struct {
	Available uint64
	Required  uint64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient_balance: available %d, required %d", e.Available, e.Required)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// InsufficientFeeError carries the paid fee and the oracle fee it failed to cover.
type InsufficientFeeError struct {
	Paid     uint64
	Required uint64
}

func (e *InsufficientFeeError) Error() string {
	return fmt.Sprintf("insufficient_fee: paid %d, required %d", e.Paid, e.Required)
}

func (e *InsufficientFeeError) Unwrap() error {
	return ErrInsufficientFee
}
