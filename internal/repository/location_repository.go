package repository

import (
	"context"
	"database/sql"

	"github.com/serhatk/campus-occupancy/internal/model"
)

// LocationRepo provides read access to locations and the seat-counter
// mutations used by desk accounting.  Counter updates are expressed as
// atomic SQL deltas clamped inside the statement, never as
// read-modify-write from Go, so concurrent check-ins and check-outs
// cannot lose updates or push available_seats outside [0, total_seats].
type LocationRepo struct {
	db *sql.DB
}

// NewLocationRepo returns a LocationRepo bound to the given database.
func NewLocationRepo(db *sql.DB) *LocationRepo { return &LocationRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *LocationRepo) DB() *sql.DB { return r.db }

const locationCols = `id, name, type, current_density, total_seats, available_seats, entrance_qr_code, exit_qr_code, last_updated`

func scanLocation(row interface{ Scan(...interface{}) error }) (*model.Location, error) {
	var loc model.Location
	var entrance, exit sql.NullString
	if err := row.Scan(
		&loc.ID, &loc.Name, &loc.Type, &loc.CurrentDensity,
		&loc.TotalSeats, &loc.AvailableSeats,
		&entrance, &exit, &loc.LastUpdated,
	); err != nil {
		return nil, err
	}
	if entrance.Valid {
		v := entrance.String
		loc.EntranceQRCode = &v
	}
	if exit.Valid {
		v := exit.String
		loc.ExitQRCode = &v
	}
	return &loc, nil
}

// GetByID returns a single location or sql.ErrNoRows when absent.
func (r *LocationRepo) GetByID(ctx context.Context, id uint64) (*model.Location, error) {
	const q = `SELECT ` + locationCols + ` FROM locations WHERE id = ?`
	return scanLocation(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDTx is GetByID within an existing transaction.
func (r *LocationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Location, error) {
	const q = `SELECT ` + locationCols + ` FROM locations WHERE id = ?`
	return scanLocation(tx.QueryRowContext(ctx, q, id))
}

// List returns all locations ordered by name.  Callers on the read path
// are expected to degrade to an empty result on error.
func (r *LocationRepo) List(ctx context.Context) ([]model.Location, error) {
	const q = `SELECT ` + locationCols + ` FROM locations ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Location, 0)
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TakeSeatTx decrements available_seats by one within the transaction.
// The decrement is conditional on a seat being free; when the counter
// is already zero the statement matches no row and ErrConflict is
// returned.
func (r *LocationRepo) TakeSeatTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE locations
	           SET available_seats = available_seats - 1, last_updated = UTC_TIMESTAMP()
	           WHERE id = ? AND available_seats > 0`
	res, err := tx.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// ReturnSeatTx increments available_seats by one within the transaction,
// capped at total_seats.  Releasing beyond capacity is silently ignored
// rather than treated as an error: the cap is a safety net, the caller
// guarantees exactly-once release per completed check-in.
func (r *LocationRepo) ReturnSeatTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE locations
	           SET available_seats = available_seats + 1, last_updated = UTC_TIMESTAMP()
	           WHERE id = ? AND available_seats < total_seats`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

// UpdateDensityTx sets the current density level and refreshes
// last_updated.  Existence of the location is checked by the caller
// before the transaction starts; repeated reports with the same level
// are a legal no-op here (rows-affected is not inspected because MySQL
// reports zero when nothing changed).
func (r *LocationRepo) UpdateDensityTx(ctx context.Context, tx *sql.Tx, id uint64, level string) error {
	const q = `UPDATE locations
	           SET current_density = ?, last_updated = UTC_TIMESTAMP()
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, level, id)
	return err
}
