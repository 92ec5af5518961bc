package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jobpulse/jobpulse/internal/core"
	"github.com/jobpulse/jobpulse/internal/data/pgxutil"
	"github.com/jobpulse/jobpulse/internal/domain/model"
)

// TechnologyRepo provides read access to the technology vocabulary table.
type TechnologyRepo struct {
	DB *sql.DB
}

// NewTechnologyRepo creates a new TechnologyRepo.
func NewTechnologyRepo(db *sql.DB) *TechnologyRepo {
	return &TechnologyRepo{DB: db}
}

var _ core.TechnologyRepository = (*TechnologyRepo)(nil)

// FindAll returns every known technology, ordered by name.
func (r *TechnologyRepo) FindAll(ctx context.Context) ([]model.Technology, error) {
	var out []model.Technology
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT id, name FROM technologies ORDER BY name`)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Technology])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find technologies: %w", err)
	}
	return out, nil
}
