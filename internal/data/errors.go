package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrJobIdentityRequired is returned when a job is missing its
	// (source_api, external_id) upsert identity.
	ErrJobIdentityRequired = errors.New("source_api and external_id are required")
)
