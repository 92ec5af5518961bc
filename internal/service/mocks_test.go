package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jobpulse/jobpulse/internal/core"
	"github.com/jobpulse/jobpulse/internal/domain/model"
)

// Mock implementations for testing.

type mockJobRepository struct {
	mock.Mock
}

func (m *mockJobRepository) FindAll(ctx context.Context, filters core.JobFilters, page, limit int) ([]model.Job, error) {
	args := m.Called(ctx, filters, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Job), args.Error(1)
}

func (m *mockJobRepository) Count(ctx context.Context, filters core.JobFilters) (int, error) {
	args := m.Called(ctx, filters)
	return args.Int(0), args.Error(1)
}

func (m *mockJobRepository) Save(ctx context.Context, job *model.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *mockJobRepository) SaveMany(ctx context.Context, jobs []model.Job) (model.SaveManyResult, error) {
	args := m.Called(ctx, jobs)
	return args.Get(0).(model.SaveManyResult), args.Error(1)
}

func (m *mockJobRepository) FindActiveSince(ctx context.Context, since time.Time) ([]model.Job, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Job), args.Error(1)
}

func (m *mockJobRepository) DeactivateExpired(ctx context.Context, olderThan time.Time) (int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Error(1)
}

type mockTechnologyRepository struct {
	mock.Mock
}

func (m *mockTechnologyRepository) FindAll(ctx context.Context) ([]model.Technology, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Technology), args.Error(1)
}

type mockRegionRepository struct {
	mock.Mock
}

func (m *mockRegionRepository) FindByCode(ctx context.Context, code string) (*model.Region, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Region), args.Error(1)
}

type mockCacheRepository struct {
	mock.Mock
}

func (m *mockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *mockCacheRepository) Delete(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

type mockSource struct {
	mock.Mock
	name string
}

func (m *mockSource) Name() string {
	return m.name
}

func (m *mockSource) Fetch(ctx context.Context) ([]model.RawJobData, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RawJobData), args.Error(1)
}

// newTechCache builds a preloadable cache over a fixed vocabulary.
func newTechCache(t interface{ Fatalf(string, ...any) }, names ...string) *TechnologyCache {
	techs := make([]model.Technology, 0, len(names))
	for i, name := range names {
		techs = append(techs, model.Technology{ID: string(rune('a' + i)), Name: name})
	}
	repo := &mockTechnologyRepository{}
	repo.On("FindAll", mock.Anything).Return(techs, nil)
	cache, err := NewTechnologyCache(TechnologyCacheOptions{Repo: repo})
	if err != nil {
		t.Fatalf("NewTechnologyCache: %v", err)
	}
	return cache
}

// noSleep makes retry helpers return immediately in tests.
func noSleep(context.Context, time.Duration) error { return nil }
