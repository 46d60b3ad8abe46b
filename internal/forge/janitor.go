package forge

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

type SweepResult struct {
	Finalized int
	Refunded  int
	Expired   int
}

// StartJanitor finalizes delivered requests and resolves expired ones on every tick until ctx ends.
func (e *Engine) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				res := e.Sweep(ctx)
				if res.Finalized+res.Refunded+res.Expired > 0 {
					log.Info().
						Int("finalized", res.Finalized).
						Int("refunded", res.Refunded).
						Int("expired", res.Expired).
						Msg("forge_sweep")
				}
			}
		}
	}()
}

// Sweep runs one janitor pass. Each request is handled by its own locked operation, so callers racing
// the janitor see ordinary state errors which are skipped here.
func (e *Engine) Sweep(ctx context.Context) SweepResult {
	var res SweepResult
	for _, seq := range e.UnresolvedRequests() {
		if ctx.Err() != nil {
			return res
		}
		req, err := e.MintRequest(seq)
		if err != nil || req.Resolved() {
			continue
		}
		if req.RandomnessDelivered {
			out, err := e.SelectRarityAndMint(ctx, seq)
			switch {
			case err == nil && out.Completed:
				res.Finalized++
				continue
			case err == nil && out.Cancelled:
				res.Refunded++
				continue
			case err != nil && !isStateError(err):
				log.Error().Err(err).Uint64("sequence_number", seq).Msg("forge_sweep_finalize_failed")
			}
		}
		if _, err := e.ResolveExpiredMint(ctx, seq); err == nil {
			res.Expired++
		} else if !isStateError(err) {
			log.Error().Err(err).Uint64("sequence_number", seq).Msg("forge_sweep_resolve_failed")
		}
	}
	return res
}

func isStateError(err error) bool {
	return errors.Is(err, ErrMintAlreadyCompleted) ||
		errors.Is(err, ErrMintRequestAlreadyCancelled) ||
		errors.Is(err, ErrMintRequestNotYetExpired) ||
		errors.Is(err, ErrRequestNotCompleted) ||
		errors.Is(err, ErrRequestNotFound)
}
