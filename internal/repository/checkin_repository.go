package repository

import (
	"context"
	"database/sql"

	"github.com/serhatk/campus-occupancy/internal/model"
)

// CheckInRepo provides data access to the check_ins table.  Lifecycle
// transitions (active -> break -> active -> completed) are written as
// compare-and-swap updates conditioned on the current status, so a
// transition raced by another request fails with ErrInvalidState
// instead of overwriting the newer state.  All timestamps are written
// with UTC_TIMESTAMP() so clock authority stays with the database.
type CheckInRepo struct {
	db *sql.DB
}

// NewCheckInRepo returns a CheckInRepo bound to the given database.
func NewCheckInRepo(db *sql.DB) *CheckInRepo { return &CheckInRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *CheckInRepo) DB() *sql.DB { return r.db }

const checkInCols = `id, user_id, desk_id, location_id, check_in_time, check_out_time, break_start_time, break_end_time, break_type, status`

func scanCheckIn(row interface{ Scan(...interface{}) error }) (*model.CheckIn, error) {
	var c model.CheckIn
	var deskID sql.NullInt64
	var checkOut, breakStart, breakEnd sql.NullTime
	var breakType sql.NullString
	if err := row.Scan(
		&c.ID, &c.UserID, &deskID, &c.LocationID, &c.CheckInTime,
		&checkOut, &breakStart, &breakEnd, &breakType, &c.Status,
	); err != nil {
		return nil, err
	}
	if deskID.Valid {
		v := uint64(deskID.Int64)
		c.DeskID = &v
	}
	if checkOut.Valid {
		t := checkOut.Time
		c.CheckOutTime = &t
	}
	if breakStart.Valid {
		t := breakStart.Time
		c.BreakStartTime = &t
	}
	if breakEnd.Valid {
		t := breakEnd.Time
		c.BreakEndTime = &t
	}
	if breakType.Valid {
		v := breakType.String
		c.BreakType = &v
	}
	return &c, nil
}

// GetByID returns a single check-in or sql.ErrNoRows when absent.
func (r *CheckInRepo) GetByID(ctx context.Context, id uint64) (*model.CheckIn, error) {
	const q = `SELECT ` + checkInCols + ` FROM check_ins WHERE id = ?`
	return scanCheckIn(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDTx is GetByID within an existing transaction.
func (r *CheckInRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.CheckIn, error) {
	const q = `SELECT ` + checkInCols + ` FROM check_ins WHERE id = ?`
	return scanCheckIn(tx.QueryRowContext(ctx, q, id))
}

// HasOpenSessionTx reports whether the user already has a check-in in
// the active or break state.  Evaluated inside the check-in transaction
// so two simultaneous check-ins by the same user cannot both pass.
func (r *CheckInRepo) HasOpenSessionTx(ctx context.Context, tx *sql.Tx, userID uint64) (bool, error) {
	const q = `SELECT EXISTS(
	             SELECT 1 FROM check_ins
	             WHERE user_id = ? AND status IN ('active','break'))`
	var exists bool
	if err := tx.QueryRowContext(ctx, q, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// GetOpenByUser returns the user's session in the active or break
// state, or sql.ErrNoRows when the user has no open session.  At most
// one such row exists per user.
func (r *CheckInRepo) GetOpenByUser(ctx context.Context, userID uint64) (*model.CheckIn, error) {
	const q = `SELECT ` + checkInCols + ` FROM check_ins
	           WHERE user_id = ? AND status IN ('active','break')
	           LIMIT 1`
	return scanCheckIn(r.db.QueryRowContext(ctx, q, userID))
}

// CreateTx inserts a new active check-in within the transaction and
// reads the row back to populate the generated ID and the
// server-assigned check-in timestamp.
func (r *CheckInRepo) CreateTx(ctx context.Context, tx *sql.Tx, userID uint64, deskID *uint64, locationID uint64) (*model.CheckIn, error) {
	const ins = `INSERT INTO check_ins (user_id, desk_id, location_id, check_in_time, status)
	             VALUES (?, ?, ?, UTC_TIMESTAMP(), 'active')`
	res, err := tx.ExecContext(ctx, ins, userID, deskID, locationID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	const sel = `SELECT ` + checkInCols + ` FROM check_ins WHERE id = ?`
	return scanCheckIn(tx.QueryRowContext(ctx, sel, uint64(id)))
}

// StartBreakTx flips the session into the break state.  The update is
// conditional on status still being 'active' with no open break; a
// zero row count after the caller's own guards means a concurrent
// request won the race, reported as ErrInvalidState.
func (r *CheckInRepo) StartBreakTx(ctx context.Context, tx *sql.Tx, id uint64, breakType string) error {
	const q = `UPDATE check_ins
	           SET break_start_time = UTC_TIMESTAMP(), break_end_time = NULL,
	               break_type = ?, status = 'break'
	           WHERE id = ? AND status = 'active'
	             AND (break_start_time IS NULL OR break_end_time IS NOT NULL)`
	res, err := tx.ExecContext(ctx, q, breakType, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidState
	}
	return nil
}

// EndBreakTx closes the open break and returns the session to active.
func (r *CheckInRepo) EndBreakTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE check_ins
	           SET break_end_time = UTC_TIMESTAMP(), status = 'active'
	           WHERE id = ? AND status = 'break'
	             AND break_start_time IS NOT NULL AND break_end_time IS NULL`
	res, err := tx.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidState
	}
	return nil
}

// CompleteTx terminates the session.  Conditional on status 'active':
// checking out during a break is rejected upstream, and a duplicate
// checkout cannot match a second time, which is what guarantees the
// desk release and seat increment run exactly once per session.
func (r *CheckInRepo) CompleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE check_ins
	           SET check_out_time = UTC_TIMESTAMP(), status = 'completed'
	           WHERE id = ? AND status = 'active'`
	res, err := tx.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidState
	}
	return nil
}

// ListByUser returns the user's check-ins newest first, optionally
// filtered by status.  Used by the dashboard history view.
func (r *CheckInRepo) ListByUser(ctx context.Context, userID uint64, status string) ([]model.CheckIn, error) {
	q := `SELECT ` + checkInCols + ` FROM check_ins WHERE user_id = ?`
	args := []interface{}{userID}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY check_in_time DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.CheckIn, 0)
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
