// Package model defines the core data types used throughout the jobpulse ingestion system.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ExperienceLevel is the normalized experience category assigned to a job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type ExperienceLevel string

const (
	// ExperienceJunior indicates an entry-level position.
	ExperienceJunior ExperienceLevel = "junior"
	// ExperienceMid indicates an intermediate position.
	ExperienceMid ExperienceLevel = "mid"
	// ExperienceSenior indicates a senior position.
	ExperienceSenior ExperienceLevel = "senior"
	// ExperienceLead indicates a lead/staff/principal position.
	ExperienceLead ExperienceLevel = "lead"
	// ExperienceUnknown indicates no level could be determined.
	ExperienceUnknown ExperienceLevel = "unknown"
)

// Valid returns true if the ExperienceLevel is one of the known categories.
func (l ExperienceLevel) Valid() bool {
	switch l {
	case ExperienceJunior, ExperienceMid, ExperienceSenior, ExperienceLead, ExperienceUnknown:
		return true
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler so levels can be parsed from env/config.
func (l *ExperienceLevel) UnmarshalText(text []byte) error {
	v := ExperienceLevel(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid ExperienceLevel: %q", v)
	}
	*l = v
	return nil
}

// Job is the fully validated, quality-scored domain record eligible for persistence.
//
// Technologies is never empty for a persisted Job; records whose detected
// technologies all fail allow-list validation are rejected before storage.
// Identity for upserts is the (SourceAPI, ExternalID) pair, never ID.
type Job struct {
	ID           string          `json:"id"            db:"id"`
	Title        string          `json:"title"         db:"title"`
	Company      string          `json:"company"       db:"company"`
	Description  string          `json:"description"   db:"description"`
	Technologies []string        `json:"technologies"  db:"technologies"`
	Location     string          `json:"location"      db:"location"`
	Remote       bool            `json:"remote"        db:"remote"`
	SalaryMin    *int            `json:"salary_min"    db:"salary_min"` // thousands of currency units
	SalaryMax    *int            `json:"salary_max"    db:"salary_max"`
	Experience   ExperienceLevel `json:"experience"    db:"experience"`
	RegionID     *string         `json:"region_id"     db:"region_id"`
	SourceAPI    string          `json:"source_api"    db:"source_api"`
	ExternalID   string          `json:"external_id"   db:"external_id"`
	URL          string          `json:"url"           db:"url"`
	PostedAt     time.Time       `json:"posted_at"     db:"posted_at"`
	Active       bool            `json:"active"        db:"active"`
	SourceAPIs   []string        `json:"source_apis"   db:"source_apis"`
	QualityScore float64         `json:"quality_score" db:"quality_score"`
	CreatedAt    time.Time       `json:"created_at"    db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"    db:"updated_at"`
}

// Deactivate marks the job inactive. Used when PostedAt exceeds the expiration window.
func (j *Job) Deactivate() {
	j.Active = false
}

// Reactivate marks the job active again, typically on re-ingestion.
func (j *Job) Reactivate() {
	j.Active = true
}

// HasSalary reports whether the job carries any salary information.
func (j *Job) HasSalary() bool {
	return j.SalaryMin != nil || j.SalaryMax != nil
}

// MergeSourceAPIs records that another source contributed this logical job.
// The list stays deduplicated and ordered by first contribution.
func (j *Job) MergeSourceAPIs(sources ...string) {
	for _, s := range sources {
		if s == "" {
			continue
		}
		found := false
		for _, existing := range j.SourceAPIs {
			if existing == s {
				found = true
				break
			}
		}
		if !found {
			j.SourceAPIs = append(j.SourceAPIs, s)
		}
	}
}

// Technology is an entry of the controlled technology vocabulary.
type Technology struct {
	ID   string `json:"id"   db:"id"`
	Name string `json:"name" db:"name"`
}

// Region is a geographic region a job can be attached to.
type Region struct {
	ID   string `json:"id"   db:"id"`
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`
}
