package remotive

import (
	"context"

	"github.com/jobpulse/jobpulse/internal/domain/model"
)

// ToRawJob converts one Remotive DTO into the pipeline's intermediate
// representation. The provider's canonicalized tags ride along as
// pre-detected technologies and every posting is remote.
func ToRawJob(dto JobDTO) model.RawJobData {
	return model.RawJobData{
		ID:           model.NewRawJobID(),
		Title:        dto.Title,
		Company:      dto.Company,
		Description:  dto.Description,
		Technologies: dto.Technologies,
		Location:     dto.Location,
		Remote:       true,
		SalaryMin:    dto.SalaryMin,
		SalaryMax:    dto.SalaryMax,
		SourceAPI:    SourceName,
		ExternalID:   dto.ExternalID,
		URL:          dto.URL,
		PostedAt:     dto.PostedAt,
	}
}

// MapJobs converts a batch of DTOs.
func MapJobs(dtos []JobDTO) []model.RawJobData {
	raw := make([]model.RawJobData, 0, len(dtos))
	for _, dto := range dtos {
		raw = append(raw, ToRawJob(dto))
	}
	return raw
}

// Source adapts the client to the orchestrator's source contract.
type Source struct {
	client *Client
	opts   FetchOptions
}

// NewSource wraps a client with fixed fetch options.
func NewSource(client *Client, opts FetchOptions) *Source {
	return &Source{client: client, opts: opts}
}

// Name implements the orchestrator source contract.
func (s *Source) Name() string { return SourceName }

// Fetch fetches and maps one run's worth of postings.
func (s *Source) Fetch(ctx context.Context) ([]model.RawJobData, error) {
	dtos, err := s.client.FetchJobs(ctx, s.opts)
	if err != nil {
		return nil, err
	}
	return MapJobs(dtos), nil
}
