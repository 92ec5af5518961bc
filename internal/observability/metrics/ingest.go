// Package metrics provides standardised metric emission for ingestion runs.
package metrics

import (
	"time"

	"github.com/jobpulse/jobpulse/internal/domain/model"
	"github.com/jobpulse/jobpulse/internal/observability/statsd"
)

// EmitFetch records the outcome of one provider fetch.
func EmitFetch(sink statsd.Sink, source string, fetched int, duration time.Duration, err error) {
	if sink == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	tags := map[string]string{"source": source, "result": result}
	sink.Count("jobs.fetched", int64(fetched), tags)
	sink.Timing("fetch.duration", duration, tags)
}

// EmitIngest records the counters of one ingestion pass.
func EmitIngest(sink statsd.Sink, result model.IngestResult) {
	if sink == nil {
		return
	}
	sink.Count("ingest.inserted", int64(result.Inserted), nil)
	sink.Count("ingest.updated", int64(result.Updated), nil)
	sink.Count("ingest.failed", int64(result.Failed), nil)
	sink.Timing("ingest.duration", result.FinishedAt.Sub(result.StartedAt), nil)
}

// EmitDedup records the post-ingestion duplication analysis.
func EmitDedup(sink statsd.Sink, report model.DedupReport) {
	if sink == nil {
		return
	}
	sink.Gauge("dedup.duplicate_rate", report.DuplicateRate, nil)
	sink.Gauge("dedup.multi_source_jobs", float64(report.MultiSourceJobs), nil)
}
