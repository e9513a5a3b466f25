package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func checkInRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "desk_id", "location_id", "check_in_time",
		"check_out_time", "break_start_time", "break_end_time", "break_type", "status",
	})
}

func TestCheckInRepo_CreateTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCheckInRepo(db)

	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	deskID := uint64(7)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO check_ins")).
		WithArgs(42, 7, 3).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT .+ FROM check_ins WHERE id = ?").
		WithArgs(11).
		WillReturnRows(checkInRows().AddRow(11, 42, 7, 3, now, nil, nil, nil, nil, "active"))

	tx, err := db.Begin()
	require.NoError(t, err)

	rec, err := repo.CreateTx(context.Background(), tx, 42, &deskID, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), rec.ID)
	assert.Equal(t, "active", rec.Status)
	require.NotNil(t, rec.DeskID)
	assert.Equal(t, uint64(7), *rec.DeskID)
	assert.Nil(t, rec.CheckOutTime)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInRepo_HasOpenSessionTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCheckInRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	tx, err := db.Begin()
	require.NoError(t, err)

	open, err := repo.HasOpenSessionTx(context.Background(), tx, 42)
	require.NoError(t, err)
	assert.True(t, open)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInRepo_StartBreakTx_RaceLost(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCheckInRepo(db)

	mock.ExpectBegin()
	// Another request flipped the row first: the conditional update
	// matches nothing.
	mock.ExpectExec("UPDATE check_ins").
		WithArgs("lunch", 11).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Begin()
	require.NoError(t, err)

	err = repo.StartBreakTx(context.Background(), tx, 11, "lunch")
	assert.ErrorIs(t, err, ErrInvalidState)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInRepo_StartBreakTx_OK(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCheckInRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE check_ins").
		WithArgs("regular", 11).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Begin()
	require.NoError(t, err)

	require.NoError(t, repo.StartBreakTx(context.Background(), tx, 11, "regular"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInRepo_EndBreakTx_NoOpenBreak(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCheckInRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE check_ins").
		WithArgs(11).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Begin()
	require.NoError(t, err)

	err = repo.EndBreakTx(context.Background(), tx, 11)
	assert.ErrorIs(t, err, ErrInvalidState)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInRepo_CompleteTx_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCheckInRepo(db)

	// First checkout matches, second one does not: the conditional on
	// status = 'active' makes completion exactly-once.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE check_ins").
		WithArgs(11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE check_ins").
		WithArgs(11).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Begin()
	require.NoError(t, err)

	require.NoError(t, repo.CompleteTx(context.Background(), tx, 11))
	assert.ErrorIs(t, repo.CompleteTx(context.Background(), tx, 11), ErrInvalidState)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInRepo_ListByUser_StatusFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCheckInRepo(db)

	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .+ FROM check_ins WHERE user_id = \\? AND status = \\?").
		WithArgs(42, "completed").
		WillReturnRows(checkInRows().
			AddRow(12, 42, 7, 3, now, now.Add(2*time.Hour), nil, nil, nil, "completed").
			AddRow(9, 42, 5, 3, now.Add(-24*time.Hour), now.Add(-22*time.Hour), nil, nil, nil, "completed"))

	items, err := repo.ListByUser(context.Background(), 42, "completed")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, uint64(12), items[0].ID)
	assert.NotNil(t, items[0].CheckOutTime)
}

func TestCheckInRepo_GetOpenByUser_None(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCheckInRepo(db)

	mock.ExpectQuery("SELECT .+ FROM check_ins").
		WithArgs(42).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetOpenByUser(context.Background(), 42)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
