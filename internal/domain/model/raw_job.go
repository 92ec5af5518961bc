package model

import (
	"time"

	"github.com/google/uuid"
)

// RawJobData is the source-agnostic intermediate representation a per-source
// mapper produces from a provider DTO, before domain validation.
//
// ID is freshly generated on every ingestion attempt and carries no identity:
// persistence identity comes from the (SourceAPI, ExternalID) pair.
type RawJobData struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Description     string    `json:"description"`
	Technologies    []string  `json:"technologies,omitempty"` // pre-detected by the provider, may be empty
	Location        string    `json:"location"`
	Remote          bool      `json:"remote"`
	SalaryMin       *int      `json:"salary_min"` // thousands of currency units
	SalaryMax       *int      `json:"salary_max"`
	ExperienceLevel *string   `json:"experience_level"` // provider free text, if any
	RegionID        *string   `json:"region_id"`        // resolved at the client edge when the provider carries a code
	SourceAPI       string    `json:"source_api"`
	ExternalID      string    `json:"external_id"`
	URL             string    `json:"url"`
	PostedAt        time.Time `json:"posted_at"`
}

// NewRawJobID returns a fresh internal identifier for a RawJobData record.
func NewRawJobID() string {
	return uuid.NewString()
}
