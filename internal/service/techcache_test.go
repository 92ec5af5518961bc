package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jobpulse/jobpulse/internal/domain/model"
)

func TestTechnologyCacheLoadsOnce(t *testing.T) {
	repo := &mockTechnologyRepository{}
	repo.On("FindAll", mock.Anything).Return([]model.Technology{
		{ID: "1", Name: "Go"},
		{ID: "2", Name: "PostgreSQL"},
	}, nil).Once()

	cache, err := NewTechnologyCache(TechnologyCacheOptions{Repo: repo})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		valid, err := cache.Valid(context.Background())
		require.NoError(t, err)
		assert.Len(t, valid, 2)
		assert.Contains(t, valid, "Go")
		assert.Contains(t, valid, "PostgreSQL")
	}
	repo.AssertExpectations(t)
}

func TestTechnologyCacheCoalescesConcurrentLoads(t *testing.T) {
	repo := &mockTechnologyRepository{}
	repo.On("FindAll", mock.Anything).Return([]model.Technology{{ID: "1", Name: "Go"}}, nil).Once()

	cache, err := NewTechnologyCache(TechnologyCacheOptions{Repo: repo})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			valid, err := cache.Valid(context.Background())
			assert.NoError(t, err)
			assert.Contains(t, valid, "Go")
		}()
	}
	wg.Wait()
	repo.AssertExpectations(t)
}

func TestTechnologyCachePrefersSharedTier(t *testing.T) {
	repo := &mockTechnologyRepository{}
	shared := &mockCacheRepository{}
	shared.On("Get", mock.Anything, techCacheKey).Return([]byte(`["Go","React"]`), nil).Once()

	cache, err := NewTechnologyCache(TechnologyCacheOptions{Repo: repo, Cache: shared})
	require.NoError(t, err)

	valid, err := cache.Valid(context.Background())
	require.NoError(t, err)
	assert.Len(t, valid, 2)
	assert.Contains(t, valid, "React")

	// The repository must not have been consulted on a shared-tier hit.
	repo.AssertNotCalled(t, "FindAll", mock.Anything)
	shared.AssertExpectations(t)
}

func TestTechnologyCacheWritesThroughOnMiss(t *testing.T) {
	repo := &mockTechnologyRepository{}
	repo.On("FindAll", mock.Anything).Return([]model.Technology{{ID: "1", Name: "Go"}}, nil).Once()
	shared := &mockCacheRepository{}
	shared.On("Get", mock.Anything, techCacheKey).Return(nil, nil).Once()
	shared.On("Set", mock.Anything, techCacheKey, []byte(`["Go"]`), time.Hour).Return(nil).Once()

	cache, err := NewTechnologyCache(TechnologyCacheOptions{Repo: repo, Cache: shared})
	require.NoError(t, err)

	valid, err := cache.Valid(context.Background())
	require.NoError(t, err)
	assert.Contains(t, valid, "Go")

	repo.AssertExpectations(t)
	shared.AssertExpectations(t)
}

func TestTechnologyCacheReload(t *testing.T) {
	repo := &mockTechnologyRepository{}
	repo.On("FindAll", mock.Anything).Return([]model.Technology{{ID: "1", Name: "Go"}}, nil).Twice()

	cache, err := NewTechnologyCache(TechnologyCacheOptions{Repo: repo})
	require.NoError(t, err)

	_, err = cache.Valid(context.Background())
	require.NoError(t, err)
	require.NoError(t, cache.Reload(context.Background()))
	repo.AssertExpectations(t)
}

func TestTechnologyCacheLoadFailure(t *testing.T) {
	repo := &mockTechnologyRepository{}
	repo.On("FindAll", mock.Anything).Return(nil, errors.New("connection refused"))

	cache, err := NewTechnologyCache(TechnologyCacheOptions{Repo: repo})
	require.NoError(t, err)

	_, err = cache.Valid(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load technologies")
}

func TestTechnologyCacheClearDuringLoadIsNotOverwritten(t *testing.T) {
	repo := &mockTechnologyRepository{}
	cache, err := NewTechnologyCache(TechnologyCacheOptions{Repo: repo})
	require.NoError(t, err)

	// The first load races with a Clear: the stale vocabulary must not be
	// installed over the invalidation.
	repo.On("FindAll", mock.Anything).Return([]model.Technology{{ID: "1", Name: "Old"}}, nil).
		Run(func(mock.Arguments) { cache.Clear(context.Background()) }).Once()
	repo.On("FindAll", mock.Anything).Return([]model.Technology{{ID: "2", Name: "New"}}, nil).Once()

	valid, err := cache.Valid(context.Background())
	require.NoError(t, err)
	assert.Contains(t, valid, "Old", "the caller that started the load still gets its result")

	valid, err = cache.Valid(context.Background())
	require.NoError(t, err)
	assert.Contains(t, valid, "New")
	assert.NotContains(t, valid, "Old")
	repo.AssertExpectations(t)
}
