// Package numbering issues sequential document numbers per owner and
// series. Numbers are unique and strictly increasing; the increment is
// delegated to the repository's atomic counter so concurrent callers
// never collide.
package numbering

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/logistia/einvoice/internal/model"
	"github.com/logistia/einvoice/internal/store"
)

// Allocator issues the next document number for a series
type Allocator struct {
	repo store.Repository
	log  zerolog.Logger
}

// NewAllocator creates an allocator over the given repository
func NewAllocator(repo store.Repository, log zerolog.Logger) *Allocator {
	return &Allocator{repo: repo, log: log.With().Str("component", "numbering").Logger()}
}

// Next allocates the next sequence for (owner, series) and returns the
// display-form number. A conflicting allocation is retried once; a
// persisting conflict surfaces as a retryable AllocationError. If the
// counter cannot be read at all, allocation fails closed: no number is
// issued and no invoice may be created.
func (a *Allocator) Next(ctx context.Context, owner, series string) (string, int64, error) {
	seq, err := a.allocate(ctx, owner, series)
	if err != nil {
		a.log.Warn().Err(err).Str("owner", owner).Str("series", series).Msg("allocation failed, retrying once")
		seq, err = a.allocate(ctx, owner, series)
		if err != nil {
			return "", 0, model.NewAllocationError(owner, series, true, err)
		}
	}
	return model.FormatNumber(series, seq), seq, nil
}

func (a *Allocator) allocate(ctx context.Context, owner, series string) (int64, error) {
	return a.repo.NextSequence(ctx, owner, series)
}
