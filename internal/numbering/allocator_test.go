package numbering_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logistia/einvoice/internal/model"
	"github.com/logistia/einvoice/internal/numbering"
	"github.com/logistia/einvoice/internal/store"
)

// flakyRepo fails NextSequence a configured number of times before
// delegating to the in-memory store.
type flakyRepo struct {
	*store.MemoryRepository
	failures int
}

func (r *flakyRepo) NextSequence(ctx context.Context, owner, series string) (int64, error) {
	if r.failures > 0 {
		r.failures--
		return 0, errors.New("counter unavailable")
	}
	return r.MemoryRepository.NextSequence(ctx, owner, series)
}

func TestAllocator_Next(t *testing.T) {
	alloc := numbering.NewAllocator(store.NewMemoryRepository(), zerolog.Nop())

	number, seq, err := alloc.Next(context.Background(), "acct-1", "A")
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
	assert.Equal(t, "A000001", number)

	number, seq, err = alloc.Next(context.Background(), "acct-1", "A")
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
	assert.Equal(t, "A000002", number)
}

func TestAllocator_RetriesOnce(t *testing.T) {
	repo := &flakyRepo{MemoryRepository: store.NewMemoryRepository(), failures: 1}
	alloc := numbering.NewAllocator(repo, zerolog.Nop())

	number, seq, err := alloc.Next(context.Background(), "acct-1", "A")
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
	assert.Equal(t, "A000001", number)
}

func TestAllocator_FailsClosed(t *testing.T) {
	repo := &flakyRepo{MemoryRepository: store.NewMemoryRepository(), failures: 2}
	alloc := numbering.NewAllocator(repo, zerolog.Nop())

	number, seq, err := alloc.Next(context.Background(), "acct-1", "A")
	assert.Empty(t, number)
	assert.Zero(t, seq)

	var allocErr *model.AllocationError
	require.True(t, errors.As(err, &allocErr))
	assert.True(t, allocErr.Retryable)
	assert.Equal(t, "acct-1", allocErr.Owner)
	assert.Equal(t, "A", allocErr.Series)
}
