package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jobpulse/jobpulse/internal/core"
	"github.com/jobpulse/jobpulse/internal/data/pgxutil"
	"github.com/jobpulse/jobpulse/internal/domain/model"
)

// RegionRepo provides read access to the regions table.
type RegionRepo struct {
	DB *sql.DB
}

// NewRegionRepo creates a new RegionRepo.
func NewRegionRepo(db *sql.DB) *RegionRepo {
	return &RegionRepo{DB: db}
}

var _ core.RegionRepository = (*RegionRepo)(nil)

// FindByCode resolves a region by its code. Unknown codes return (nil, nil)
// so callers can cache the negative result.
func (r *RegionRepo) FindByCode(ctx context.Context, code string) (*model.Region, error) {
	if code == "" {
		return nil, nil
	}
	var out model.Region
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT id, code, name FROM regions WHERE code = $1`, code)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Region])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find region %q: %w", code, err)
	}
	return &out, nil
}
