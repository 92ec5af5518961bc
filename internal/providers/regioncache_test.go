package providers

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobpulse/jobpulse/internal/domain/model"
)

// slowRegionRepo counts lookups and optionally delays them so concurrent
// callers overlap.
type slowRegionRepo struct {
	calls   atomic.Int64
	delay   time.Duration
	regions map[string]*model.Region
}

func (r *slowRegionRepo) FindByCode(_ context.Context, code string) (*model.Region, error) {
	r.calls.Add(1)
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	return r.regions[code], nil
}

func TestRegionCacheResolve(t *testing.T) {
	repo := &slowRegionRepo{regions: map[string]*model.Region{
		"REU": {ID: "region-reu", Code: "REU", Name: "La Réunion"},
	}}
	cache := NewRegionCache(repo, nil)

	ctx := context.Background()

	id, err := cache.Resolve(ctx, "REU")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "region-reu", *id)

	// Second resolve hits the memo, not the repository.
	_, err = cache.Resolve(ctx, "REU")
	require.NoError(t, err)
	assert.Equal(t, int64(1), repo.calls.Load())

	// Unknown codes resolve to nil and are memoized too.
	id, err = cache.Resolve(ctx, "XXX")
	require.NoError(t, err)
	assert.Nil(t, id)
	_, err = cache.Resolve(ctx, "XXX")
	require.NoError(t, err)
	assert.Equal(t, int64(2), repo.calls.Load())

	// Empty code short-circuits.
	id, err = cache.Resolve(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, id)
	assert.Equal(t, 2, cache.Len())
}

func TestRegionCacheCoalescesConcurrentLookups(t *testing.T) {
	repo := &slowRegionRepo{
		delay: 50 * time.Millisecond,
		regions: map[string]*model.Region{
			"IDF": {ID: "region-idf", Code: "IDF", Name: "Île-de-France"},
		},
	}
	cache := NewRegionCache(repo, nil)

	const callers = 10
	var wg sync.WaitGroup
	results := make([]*string, callers)
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := cache.Resolve(context.Background(), "IDF")
			assert.NoError(t, err)
			results[i] = id
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), repo.calls.Load(), "in-flight lookup must be shared")
	for _, id := range results {
		require.NotNil(t, id)
		assert.Equal(t, "region-idf", *id)
	}
}
