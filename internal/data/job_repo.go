package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jobpulse/jobpulse/internal/core"
	"github.com/jobpulse/jobpulse/internal/data/pgxutil"
	"github.com/jobpulse/jobpulse/internal/domain/model"
	apperrors "github.com/jobpulse/jobpulse/internal/errors"
)

const jobColumns = `id, title, company, description, technologies, location, remote,
	salary_min, salary_max, experience, region_id, source_api, external_id, url,
	posted_at, active, source_apis, quality_score, created_at, updated_at`

// upsertJobSQL inserts a job or, when the (source_api, external_id) identity
// already exists, refreshes the row, reactivates it and merges the
// contributing-source list. "(xmax = 0)" distinguishes insert from update.
const upsertJobSQL = `
	INSERT INTO jobs (
		id, title, company, description, technologies, location, remote,
		salary_min, salary_max, experience, region_id, source_api, external_id,
		url, posted_at, active, source_apis, quality_score, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, TRUE, $16, $17, $18, $18
	)
	ON CONFLICT (source_api, external_id) DO UPDATE SET
		title         = EXCLUDED.title,
		company       = EXCLUDED.company,
		description   = EXCLUDED.description,
		technologies  = EXCLUDED.technologies,
		location      = EXCLUDED.location,
		remote        = EXCLUDED.remote,
		salary_min    = EXCLUDED.salary_min,
		salary_max    = EXCLUDED.salary_max,
		experience    = EXCLUDED.experience,
		region_id     = COALESCE(EXCLUDED.region_id, jobs.region_id),
		url           = EXCLUDED.url,
		posted_at     = EXCLUDED.posted_at,
		active        = TRUE,
		source_apis   = (
			SELECT array_agg(DISTINCT s ORDER BY s)
			FROM unnest(jobs.source_apis || EXCLUDED.source_apis) AS s
		),
		quality_score = EXCLUDED.quality_score,
		updated_at    = EXCLUDED.updated_at
	RETURNING (xmax = 0) AS inserted`

// JobRepo provides database operations for jobs.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewJobRepo creates a new JobRepo with real time provider.
func NewJobRepo(db *sql.DB) *JobRepo {
	return &JobRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewJobRepoWithTimeProvider creates a new JobRepo with a custom time provider (useful for tests).
func NewJobRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *JobRepo {
	return &JobRepo{DB: db, timeProvider: tp}
}

var _ core.JobRepository = (*JobRepo)(nil)

// Save upserts a single job.
func (r *JobRepo) Save(ctx context.Context, job *model.Job) error {
	if job == nil {
		return errors.New("job is required")
	}
	if job.SourceAPI == "" || job.ExternalID == "" {
		return ErrJobIdentityRequired
	}
	now := r.timeProvider.Now().UTC()
	return pgxutil.WithPgxTx(ctx, r.DB, func(tx pgx.Tx) error {
		_, err := r.upsertRow(ctx, tx, job, now)
		return err
	})
}

// SaveMany bulk-upserts jobs in one transaction with per-row isolation:
// a row that violates an integrity constraint is recorded as failed without
// aborting its siblings, while a connection-class failure aborts the batch.
func (r *JobRepo) SaveMany(ctx context.Context, jobs []model.Job) (model.SaveManyResult, error) {
	var result model.SaveManyResult
	if len(jobs) == 0 {
		return result, nil
	}
	now := r.timeProvider.Now().UTC()

	err := pgxutil.WithPgxTx(ctx, r.DB, func(tx pgx.Tx) error {
		for i := range jobs {
			job := &jobs[i]
			if job.SourceAPI == "" || job.ExternalID == "" {
				result.Add(model.SaveManyResult{Failed: 1, Errors: []string{
					fmt.Sprintf("job %q: %v", job.Title, ErrJobIdentityRequired),
				}})
				continue
			}

			// Savepoint per row so a failed statement does not poison the
			// enclosing transaction.
			sp, err := tx.Begin(ctx)
			if err != nil {
				return fmt.Errorf("begin savepoint: %w", err)
			}
			inserted, err := r.upsertRow(ctx, sp, job, now)
			if err != nil {
				_ = sp.Rollback(ctx)
				if apperrors.IsBatchFatal(err) {
					return err
				}
				result.Add(model.SaveManyResult{Failed: 1, Errors: []string{
					fmt.Sprintf("job %q (%s/%s): %v", job.Title, job.SourceAPI, job.ExternalID, apperrors.MapDBError(err)),
				}})
				continue
			}
			if err := sp.Commit(ctx); err != nil {
				return fmt.Errorf("release savepoint: %w", err)
			}
			if inserted {
				result.Inserted++
			} else {
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return model.SaveManyResult{}, fmt.Errorf("bulk upsert: %w", err)
	}
	return result, nil
}

func (r *JobRepo) upsertRow(ctx context.Context, tx pgx.Tx, job *model.Job, now time.Time) (inserted bool, err error) {
	err = tx.QueryRow(ctx, upsertJobSQL,
		job.ID,
		job.Title,
		job.Company,
		job.Description,
		job.Technologies,
		job.Location,
		job.Remote,
		job.SalaryMin,
		job.SalaryMax,
		string(job.Experience),
		job.RegionID,
		job.SourceAPI,
		job.ExternalID,
		job.URL,
		job.PostedAt.UTC(),
		job.SourceAPIs,
		job.QualityScore,
		now,
	).Scan(&inserted)
	if err != nil {
		return false, err
	}
	// Keep the technology join table in sync. Lookup is by canonical name;
	// unknown names simply produce no association row.
	if _, err := tx.Exec(ctx,
		`DELETE FROM job_technologies WHERE job_id = (
			SELECT id FROM jobs WHERE source_api = $1 AND external_id = $2
		)`, job.SourceAPI, job.ExternalID); err != nil {
		return false, fmt.Errorf("clear technology associations: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO job_technologies (job_id, technology_id)
		 SELECT j.id, t.id
		 FROM jobs j, technologies t
		 WHERE j.source_api = $1 AND j.external_id = $2 AND t.name = ANY($3)`,
		job.SourceAPI, job.ExternalID, job.Technologies); err != nil {
		return false, fmt.Errorf("write technology associations: %w", err)
	}
	return inserted, nil
}

// FindAll returns jobs matching the filters, newest first. page is 1-based.
func (r *JobRepo) FindAll(ctx context.Context, filters core.JobFilters, page, limit int) ([]model.Job, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	where, args := buildJobFilters(filters)
	query := `SELECT ` + jobColumns + ` FROM jobs` + where +
		` ORDER BY posted_at DESC, id` +
		` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, (page-1)*limit)

	var out []model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Job])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find jobs: %w", err)
	}
	return out, nil
}

// Count returns the number of jobs matching the filters.
func (r *JobRepo) Count(ctx context.Context, filters core.JobFilters) (int, error) {
	where, args := buildJobFilters(filters)
	var count int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`+where, args...).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return count, nil
}

// FindActiveSince returns active jobs posted after the given time.
func (r *JobRepo) FindActiveSince(ctx context.Context, since time.Time) ([]model.Job, error) {
	var out []model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+jobColumns+` FROM jobs WHERE active AND posted_at > $1 ORDER BY posted_at DESC, id`,
			since.UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Job])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find active jobs: %w", err)
	}
	return out, nil
}

// DeactivateExpired flips active=false on jobs posted before the cutoff and
// returns the number of rows affected.
func (r *JobRepo) DeactivateExpired(ctx context.Context, olderThan time.Time) (int, error) {
	var affected int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx,
			`UPDATE jobs SET active = FALSE, updated_at = $2 WHERE active AND posted_at < $1`,
			olderThan.UTC(), r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		affected = int(tag.RowsAffected())
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("deactivate expired jobs: %w", err)
	}
	return affected, nil
}

// buildJobFilters renders the WHERE clause and positional args for the
// given filters. Zero-value fields add no constraint.
func buildJobFilters(filters core.JobFilters) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	next := func() string { return "$" + strconv.Itoa(len(args)) }

	if filters.SourceAPI != "" {
		args = append(args, filters.SourceAPI)
		clauses = append(clauses, next()+" = ANY(source_apis)")
	}
	if filters.ActiveOnly {
		clauses = append(clauses, "active")
	}
	if !filters.PostedAfter.IsZero() {
		args = append(args, filters.PostedAfter.UTC())
		clauses = append(clauses, "posted_at > "+next())
	}
	if filters.Technology != "" {
		args = append(args, filters.Technology)
		clauses = append(clauses, next()+" = ANY(technologies)")
	}
	if filters.RegionID != "" {
		args = append(args, filters.RegionID)
		clauses = append(clauses, "region_id = "+next())
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
