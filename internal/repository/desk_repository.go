package repository

import (
	"context"
	"database/sql"

	"github.com/serhatk/campus-occupancy/internal/model"
)

// DeskRepo provides data access to the desks table.  Status changes go
// through conditional writes keyed on the current status: two
// concurrent check-ins racing for the same desk both read it as
// available, but only one UPDATE matches the `status = 'available'`
// predicate, so the loser surfaces ErrConflict instead of silently
// double-booking.
type DeskRepo struct {
	db *sql.DB
}

// NewDeskRepo returns a DeskRepo bound to the given database.
func NewDeskRepo(db *sql.DB) *DeskRepo { return &DeskRepo{db: db} }

const deskCols = `id, location_id, table_number, status, qr_code, last_updated`

func scanDesk(row interface{ Scan(...interface{}) error }) (*model.Desk, error) {
	var d model.Desk
	var qr sql.NullString
	if err := row.Scan(&d.ID, &d.LocationID, &d.TableNumber, &d.Status, &qr, &d.LastUpdated); err != nil {
		return nil, err
	}
	if qr.Valid {
		v := qr.String
		d.QRCode = &v
	}
	return &d, nil
}

// GetByID returns a single desk or sql.ErrNoRows when absent.
func (r *DeskRepo) GetByID(ctx context.Context, id uint64) (*model.Desk, error) {
	const q = `SELECT ` + deskCols + ` FROM desks WHERE id = ?`
	return scanDesk(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDTx is GetByID within an existing transaction.
func (r *DeskRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Desk, error) {
	const q = `SELECT ` + deskCols + ` FROM desks WHERE id = ?`
	return scanDesk(tx.QueryRowContext(ctx, q, id))
}

// GetByLocationAndTable resolves a desk from a scanned table number.
// Returns sql.ErrNoRows when no such desk exists in the location.
func (r *DeskRepo) GetByLocationAndTable(ctx context.Context, locationID uint64, table uint32) (*model.Desk, error) {
	const q = `SELECT ` + deskCols + ` FROM desks WHERE location_id = ? AND table_number = ?`
	return scanDesk(r.db.QueryRowContext(ctx, q, locationID, table))
}

// ListByLocation returns all desks of a location ordered by table
// number.  Read-path callers degrade to an empty result on error.
func (r *DeskRepo) ListByLocation(ctx context.Context, locationID uint64) ([]model.Desk, error) {
	const q = `SELECT ` + deskCols + ` FROM desks WHERE location_id = ? ORDER BY table_number`
	rows, err := r.db.QueryContext(ctx, q, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Desk, 0)
	for rows.Next() {
		d, err := scanDesk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// OccupyTx transitions the desk to occupied within the transaction.
// The write is conditional on the desk currently being available;
// when another session already holds it the statement matches no row
// and ErrConflict is returned.
func (r *DeskRepo) OccupyTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE desks
	           SET status = 'occupied', last_updated = UTC_TIMESTAMP()
	           WHERE id = ? AND status = 'available'`
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

// ReleaseTx transitions the desk back to available.  Conditional on the
// desk being occupied so a duplicate release (which the state machine
// already prevents via the terminal "completed" status) cannot flip a
// reserved desk to available.
func (r *DeskRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE desks
	           SET status = 'available', last_updated = UTC_TIMESTAMP()
	           WHERE id = ? AND status = 'occupied'`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}
