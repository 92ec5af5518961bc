package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jobpulse/jobpulse/internal/domain/model"
)

var richDescription = strings.Repeat("We build and operate data ingestion pipelines. ", 6)

func rawJob(title, source string, techs []string) model.RawJobData {
	return model.RawJobData{
		ID:           model.NewRawJobID(),
		Title:        title,
		Company:      "Acme",
		Description:  richDescription,
		Technologies: techs,
		Location:     "Paris",
		SourceAPI:    source,
		ExternalID:   "ext-" + title,
		PostedAt:     time.Now().Add(-time.Hour),
	}
}

func newTestIngestService(t *testing.T, jobs *mockJobRepository, opts IngestServiceOptions) *IngestService {
	t.Helper()
	opts.Jobs = jobs
	if opts.Technologies == nil {
		opts.Technologies = newTechCache(t, "Go", "PostgreSQL", "React", "Docker")
	}
	svc, err := NewIngestService(opts)
	require.NoError(t, err)
	svc.sleep = noSleep
	return svc
}

func TestIngestWithStatsPersistsValidJobs(t *testing.T) {
	jobs := &mockJobRepository{}
	jobs.On("SaveMany", mock.Anything, mock.MatchedBy(func(batch []model.Job) bool {
		return len(batch) == 2
	})).Return(model.SaveManyResult{Inserted: 1, Updated: 1}, nil).Once()

	svc := newTestIngestService(t, jobs, IngestServiceOptions{})

	raw := []model.RawJobData{
		rawJob("Senior Go Engineer", "adzuna", []string{"Go", "PostgreSQL"}),
		rawJob("React Developer", "remotive", []string{"React", "Docker"}),
	}
	stats, err := svc.IngestWithStats(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Inserted)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 0, stats.Failed)
	assert.Empty(t, stats.Errors)
	jobs.AssertExpectations(t)
}

func TestIngestWithStatsDetectsWhenSourceCarriesNoTechnologies(t *testing.T) {
	var saved []model.Job
	jobs := &mockJobRepository{}
	jobs.On("SaveMany", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).([]model.Job) }).
		Return(model.SaveManyResult{Inserted: 1}, nil).Once()

	svc := newTestIngestService(t, jobs, IngestServiceOptions{})

	raw := rawJob("Backend Engineer", "francetravail", nil)
	raw.Description = richDescription + " You will work with Golang and PostgreSQL in production."
	_, err := svc.IngestWithStats(context.Background(), []model.RawJobData{raw})
	require.NoError(t, err)

	require.Len(t, saved, 1)
	assert.ElementsMatch(t, []string{"Go", "PostgreSQL"}, saved[0].Technologies)
	assert.True(t, saved[0].Active)
	assert.Equal(t, []string{"francetravail"}, saved[0].SourceAPIs)
}

func TestIngestWithStatsRejectsJobsWithoutValidTechnologies(t *testing.T) {
	jobs := &mockJobRepository{}

	svc := newTestIngestService(t, jobs, IngestServiceOptions{})

	unknownOnly := rawJob("COBOL Maintainer", "adzuna", []string{"COBOL", "JCL"})
	noneDetected := rawJob("Office Manager", "adzuna", nil)
	noneDetected.Description = "General administrative duties."

	stats, err := svc.IngestWithStats(context.Background(), []model.RawJobData{unknownOnly, noneDetected})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Failed)
	require.Len(t, stats.Errors, 2)
	assert.Contains(t, stats.Errors[0], "not in the known vocabulary")
	assert.Contains(t, stats.Errors[1], "no technologies detected")
	assert.ElementsMatch(t, []string{"COBOL", "JCL"}, stats.UnknownTechnologies)
	jobs.AssertNotCalled(t, "SaveMany", mock.Anything, mock.Anything)
}

func TestIngestWithStatsDropsLowQualityJobs(t *testing.T) {
	jobs := &mockJobRepository{}
	jobs.On("SaveMany", mock.Anything, mock.MatchedBy(func(batch []model.Job) bool {
		return len(batch) == 1 && batch[0].Title == "Senior Go Engineer"
	})).Return(model.SaveManyResult{Inserted: 1}, nil).Once()

	svc := newTestIngestService(t, jobs, IngestServiceOptions{
		Config: IngestConfig{QualityThreshold: 0.5},
	})

	good := rawJob("Senior Go Engineer", "adzuna", []string{"Go", "Docker"})
	thin := rawJob("Dev", "adzuna", []string{"Go"})
	thin.Description = "Short."
	thin.Location = ""

	stats, err := svc.IngestWithStats(context.Background(), []model.RawJobData{good, thin})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Inserted)
	assert.Equal(t, 1, stats.RejectedLowQuality)
	assert.Equal(t, 1, stats.Failed)
	require.Len(t, stats.Errors, 1)
	assert.Contains(t, stats.Errors[0], "below threshold")
	jobs.AssertExpectations(t)
}

func TestIngestWithStatsBulkFailureMarksWholeBatchFailed(t *testing.T) {
	jobs := &mockJobRepository{}
	jobs.On("SaveMany", mock.Anything, mock.Anything).
		Return(model.SaveManyResult{}, errors.New("connection reset")).Once()

	svc := newTestIngestService(t, jobs, IngestServiceOptions{})

	raw := []model.RawJobData{
		rawJob("Senior Go Engineer", "adzuna", []string{"Go", "Docker"}),
		rawJob("React Developer", "remotive", []string{"React", "Docker"}),
	}
	stats, err := svc.IngestWithStats(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 0, stats.Inserted)
	require.Len(t, stats.Errors, 1)
	assert.Contains(t, stats.Errors[0], "bulk upsert failed for 2 jobs")
}

func TestIngestWithStatsRetriesFlakyDetector(t *testing.T) {
	jobs := &mockJobRepository{}
	jobs.On("SaveMany", mock.Anything, mock.Anything).
		Return(model.SaveManyResult{Inserted: 1}, nil).Once()

	calls := 0
	svc := newTestIngestService(t, jobs, IngestServiceOptions{
		DetectTechnologies: func(string) ([]string, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("transient")
			}
			return []string{"Go", "PostgreSQL"}, nil
		},
	})

	stats, err := svc.IngestWithStats(context.Background(), []model.RawJobData{
		rawJob("Backend Engineer", "francetravail", nil),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, stats.Inserted)
	assert.Equal(t, 0, stats.Failed)
}

func TestIngestWithStatsDetectorExhaustionFailsOnlyThatRecord(t *testing.T) {
	jobs := &mockJobRepository{}
	jobs.On("SaveMany", mock.Anything, mock.MatchedBy(func(batch []model.Job) bool {
		return len(batch) == 1
	})).Return(model.SaveManyResult{Inserted: 1}, nil).Once()

	svc := newTestIngestService(t, jobs, IngestServiceOptions{
		DetectTechnologies: func(string) ([]string, error) {
			return nil, errors.New("detector down")
		},
	})

	needsDetection := rawJob("Backend Engineer", "francetravail", nil)
	preDetected := rawJob("React Developer", "remotive", []string{"React", "Docker"})

	stats, err := svc.IngestWithStats(context.Background(), []model.RawJobData{needsDetection, preDetected})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Inserted)
	require.Len(t, stats.Errors, 1)
	assert.Contains(t, stats.Errors[0], "technology detection failed")
}

func TestIngestWithStatsPanicFailsOnlyThatRecord(t *testing.T) {
	jobs := &mockJobRepository{}
	jobs.On("SaveMany", mock.Anything, mock.MatchedBy(func(batch []model.Job) bool {
		return len(batch) == 1 && batch[0].Title == "React Developer"
	})).Return(model.SaveManyResult{Inserted: 1}, nil).Once()

	svc := newTestIngestService(t, jobs, IngestServiceOptions{
		DetectExperience: func(title string, _ *string, _ string) (model.ExperienceLevel, error) {
			if title == "Broken" {
				panic("nil map write")
			}
			return model.ExperienceMid, nil
		},
	})

	broken := rawJob("Broken", "adzuna", []string{"Go", "Docker"})
	fine := rawJob("React Developer", "remotive", []string{"React", "Docker"})

	stats, err := svc.IngestWithStats(context.Background(), []model.RawJobData{broken, fine})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Inserted)
	require.Len(t, stats.Errors, 1)
	assert.Contains(t, stats.Errors[0], "transform panicked")
}

func TestIngestWithStatsEnrichesRegionFromLocation(t *testing.T) {
	regions := &mockRegionRepository{}
	regions.On("FindByCode", mock.Anything, "IDF").
		Return(&model.Region{ID: "11", Code: "IDF", Name: "Île-de-France"}, nil).Once()

	var saved []model.Job
	jobs := &mockJobRepository{}
	jobs.On("SaveMany", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).([]model.Job) }).
		Return(model.SaveManyResult{Inserted: 1}, nil).Once()

	svc := newTestIngestService(t, jobs, IngestServiceOptions{Regions: regions})

	raw := rawJob("Senior Go Engineer", "adzuna", []string{"Go", "Docker"})
	raw.Location = "Paris 11e"
	_, err := svc.IngestWithStats(context.Background(), []model.RawJobData{raw})
	require.NoError(t, err)

	require.Len(t, saved, 1)
	require.NotNil(t, saved[0].RegionID)
	assert.Equal(t, "11", *saved[0].RegionID)
	regions.AssertExpectations(t)
}

func TestIngestWithStatsRegionLookupFailureIsNonFatal(t *testing.T) {
	regions := &mockRegionRepository{}
	regions.On("FindByCode", mock.Anything, "IDF").
		Return(nil, errors.New("timeout")).Once()

	jobs := &mockJobRepository{}
	jobs.On("SaveMany", mock.Anything, mock.Anything).
		Return(model.SaveManyResult{Inserted: 1}, nil).Once()

	svc := newTestIngestService(t, jobs, IngestServiceOptions{Regions: regions})

	stats, err := svc.IngestWithStats(context.Background(), []model.RawJobData{
		rawJob("Senior Go Engineer", "adzuna", []string{"Go", "Docker"}),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Inserted)
	assert.Equal(t, 0, stats.Failed)
}

func TestIngestWithStatsVocabularyFailure(t *testing.T) {
	repo := &mockTechnologyRepository{}
	repo.On("FindAll", mock.Anything).Return(nil, errors.New("connection refused"))
	cache, err := NewTechnologyCache(TechnologyCacheOptions{Repo: repo})
	require.NoError(t, err)

	jobs := &mockJobRepository{}
	svc := newTestIngestService(t, jobs, IngestServiceOptions{Technologies: cache})

	_, err = svc.IngestWithStats(context.Background(), []model.RawJobData{
		rawJob("Senior Go Engineer", "adzuna", []string{"Go"}),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "technology vocabulary unavailable")
}

func TestIngestInBatchesSplitsAndAggregates(t *testing.T) {
	jobs := &mockJobRepository{}
	jobs.On("SaveMany", mock.Anything, mock.MatchedBy(func(batch []model.Job) bool {
		return len(batch) == 2
	})).Return(model.SaveManyResult{Inserted: 2}, nil).Twice()
	jobs.On("SaveMany", mock.Anything, mock.MatchedBy(func(batch []model.Job) bool {
		return len(batch) == 1
	})).Return(model.SaveManyResult{Inserted: 1}, nil).Once()

	svc := newTestIngestService(t, jobs, IngestServiceOptions{})

	var raw []model.RawJobData
	for _, title := range []string{"A", "B", "C", "D", "E"} {
		raw = append(raw, rawJob("Senior "+title, "adzuna", []string{"Go", "Docker"}))
	}
	result, err := svc.IngestInBatches(context.Background(), raw, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Batches)
	assert.Equal(t, 0, result.FailedBatches)
	assert.Equal(t, 5, result.Stats.Inserted)
	assert.Equal(t, 5, result.Stats.Total)
	jobs.AssertExpectations(t)
}

func TestIngestInBatchesIsolatesFailingBatch(t *testing.T) {
	repo := &mockTechnologyRepository{}
	repo.On("FindAll", mock.Anything).Return(nil, errors.New("connection refused"))
	cache, err := NewTechnologyCache(TechnologyCacheOptions{Repo: repo})
	require.NoError(t, err)

	jobs := &mockJobRepository{}
	svc := newTestIngestService(t, jobs, IngestServiceOptions{Technologies: cache})

	var raw []model.RawJobData
	for _, title := range []string{"A", "B", "C", "D"} {
		raw = append(raw, rawJob(title, "adzuna", []string{"Go"}))
	}
	result, err := svc.IngestInBatches(context.Background(), raw, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Batches)
	assert.Equal(t, 2, result.FailedBatches)
	assert.Equal(t, 4, result.Stats.Failed)
	assert.Len(t, result.Stats.Errors, 2)
}

func TestIngestInBatchesAggregatesCompletenessExactly(t *testing.T) {
	jobs := &mockJobRepository{}
	jobs.On("SaveMany", mock.Anything, mock.Anything).Return(model.SaveManyResult{Inserted: 3}, nil).Times(3)

	svc := newTestIngestService(t, jobs, IngestServiceOptions{})

	var raw []model.RawJobData
	for i := 0; i < 9; i++ {
		r := rawJob("Senior Engineer "+strconv.Itoa(i), "adzuna", []string{"Go", "Docker"})
		if i%3 == 0 { // one salaried record lands in each batch of three
			min := 60
			r.SalaryMin = &min
		}
		raw = append(raw, r)
	}

	result, err := svc.IngestInBatches(context.Background(), raw, 3)
	require.NoError(t, err)

	assert.Equal(t, 9, result.Stats.Persisted)
	assert.Equal(t, 3, result.Stats.WithSalary)
	assert.Equal(t, 0, result.Stats.WithRegion)
	// One salaried job in three per batch: truncating each batch's share
	// before summing would report zero percent here.
	assert.InDelta(t, 100.0/3, result.Stats.SalaryCompletenessPct, 0.01)
	jobs.AssertExpectations(t)
}
