package repository

import (
	"context"
	"database/sql"

	"github.com/serhatk/campus-occupancy/internal/model"
)

// DensityLogRepo appends and reads the density report history.  The
// table is append-only; rows are never updated or deleted.
type DensityLogRepo struct {
	db *sql.DB
}

// NewDensityLogRepo returns a DensityLogRepo bound to the given database.
func NewDensityLogRepo(db *sql.DB) *DensityLogRepo { return &DensityLogRepo{db: db} }

// AppendTx inserts one report row within the transaction and returns
// its generated ID.  The timestamp is assigned by the database.
func (r *DensityLogRepo) AppendTx(ctx context.Context, tx *sql.Tx, locationID uint64, level, source string) (uint64, error) {
	const q = `INSERT INTO density_logs (location_id, density_level, source, created_at)
	           VALUES (?, ?, ?, UTC_TIMESTAMP())`
	res, err := tx.ExecContext(ctx, q, locationID, level, source)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByLocation returns the newest reports for a location, capped at
// limit rows.  Read-path callers degrade to an empty result on error.
func (r *DensityLogRepo) ListByLocation(ctx context.Context, locationID uint64, limit int) ([]model.DensityLog, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT id, location_id, density_level, source, created_at
	           FROM density_logs
	           WHERE location_id = ?
	           ORDER BY created_at DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, locationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.DensityLog, 0)
	for rows.Next() {
		var l model.DensityLog
		if err := rows.Scan(&l.ID, &l.LocationID, &l.DensityLevel, &l.Source, &l.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
