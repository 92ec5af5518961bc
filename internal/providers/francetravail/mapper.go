package francetravail

import (
	"context"

	"github.com/jobpulse/jobpulse/internal/domain/model"
	"github.com/jobpulse/jobpulse/internal/providers"
)

// ToRawJob converts one provider DTO into the pipeline's intermediate
// representation. Pure structural mapping: a fresh internal id is assigned,
// the remote flag is derived from the fixed keyword list, and no detector
// or network calls happen here. France Travail does not pre-detect
// technologies, so Technologies stays empty for downstream detection.
func ToRawJob(dto JobDTO) model.RawJobData {
	var experience *string
	if dto.ExperienceLabel != "" {
		level := dto.ExperienceLabel
		experience = &level
	}

	return model.RawJobData{
		ID:              model.NewRawJobID(),
		Title:           dto.Title,
		Company:         dto.Company,
		Description:     dto.Description,
		Location:        dto.Location,
		Remote:          providers.LooksRemote(dto.Location, dto.Description),
		ExperienceLevel: experience,
		RegionID:        dto.RegionID,
		SourceAPI:       SourceName,
		ExternalID:      dto.ExternalID,
		URL:             dto.URL,
		PostedAt:        dto.PostedAt,
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

// Fetch fetches and maps one run's worth of offers.
func (s *Source) Fetch(ctx context.Context) ([]model.RawJobData, error) {
	dtos, err := s.client.FetchJobs(ctx, s.opts)
	if err != nil {
		return nil, err
	}
	return MapJobs(dtos), nil
}
