package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serhatk/campus-occupancy/internal/config"
	"github.com/serhatk/campus-occupancy/internal/repository"
)

func newTestHandler(t *testing.T) (*CheckInHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{BreakLunchMin: 90, BreakRegularMin: 20, DeskQRLocationID: 1}
	h := NewCheckInHandler(cfg,
		repository.NewCheckInRepo(db),
		repository.NewDeskRepo(db),
		repository.NewLocationRepo(db))
	return h, mock
}

func newRequest(t *testing.T, method, target, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("role", "STUDENT")
	return c, rec
}

func checkInRow(id, userID, deskID, locID uint64, status string, now time.Time) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "desk_id", "location_id", "check_in_time",
		"check_out_time", "break_start_time", "break_end_time", "break_type", "status",
	})
	switch status {
	case "break":
		rows.AddRow(id, userID, deskID, locID, now, nil, now.Add(30*time.Minute), nil, "regular", status)
	case "completed":
		rows.AddRow(id, userID, deskID, locID, now, now.Add(2*time.Hour), nil, nil, nil, status)
	default:
		rows.AddRow(id, userID, deskID, locID, now, nil, nil, nil, nil, status)
	}
	return rows
}

func deskRow(id, locID uint64, table uint32, status string, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "location_id", "table_number", "status", "qr_code", "last_updated"}).
		AddRow(id, locID, table, status, nil, now)
}

func TestCheckIn_Success(t *testing.T) {
	h, mock := newTestHandler(t)
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("SELECT .+ FROM desks WHERE id = \\?").WithArgs(31).
		WillReturnRows(deskRow(31, 2, 15, "available", now))
	mock.ExpectExec("UPDATE desks").WithArgs(31).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE locations").WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO check_ins").WithArgs(42, 31, 2).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT .+ FROM check_ins WHERE id = \\?").WithArgs(11).
		WillReturnRows(checkInRow(11, 42, 31, 2, "active", now))
	mock.ExpectCommit()

	c, rec := newRequest(t, http.MethodPost, "/v1/check-ins", `{"desk_id":31}`, 42)
	require.NoError(t, h.CheckIn(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		CheckIn checkInView `json:"check_in"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(11), resp.CheckIn.ID)
	assert.Equal(t, "active", resp.CheckIn.Status)
	assert.Equal(t, "2026-03-10T09:30:00Z", resp.CheckIn.CheckInTime)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckIn_OpenSessionExists(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	c, rec := newRequest(t, http.MethodPost, "/v1/check-ins", `{"desk_id":31}`, 42)
	require.NoError(t, h.CheckIn(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckIn_DeskTakenRace(t *testing.T) {
	h, mock := newTestHandler(t)
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	// The desk still reads as available inside this transaction, but the
	// conditional occupy loses the race.
	mock.ExpectQuery("SELECT .+ FROM desks WHERE id = \\?").WithArgs(31).
		WillReturnRows(deskRow(31, 2, 15, "available", now))
	mock.ExpectExec("UPDATE desks").WithArgs(31).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	c, rec := newRequest(t, http.MethodPost, "/v1/check-ins", `{"desk_id":31}`, 42)
	require.NoError(t, h.CheckIn(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckIn_NoSeatsLeft(t *testing.T) {
	h, mock := newTestHandler(t)
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("SELECT .+ FROM desks WHERE id = \\?").WithArgs(31).
		WillReturnRows(deskRow(31, 2, 15, "available", now))
	mock.ExpectExec("UPDATE desks").WithArgs(31).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE locations").WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	c, rec := newRequest(t, http.MethodPost, "/v1/check-ins", `{"desk_id":31}`, 42)
	require.NoError(t, h.CheckIn(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckIn_DeskNotFound(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("SELECT .+ FROM desks WHERE id = \\?").WithArgs(31).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	c, rec := newRequest(t, http.MethodPost, "/v1/check-ins", `{"desk_id":31}`, 42)
	require.NoError(t, h.CheckIn(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStartBreak_Lunch(t *testing.T) {
	h, mock := newTestHandler(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM check_ins WHERE id = \\?").WithArgs(11).
		WillReturnRows(checkInRow(11, 42, 31, 2, "active", now))
	mock.ExpectExec("UPDATE check_ins").WithArgs("lunch", 11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	breakRows := sqlmock.NewRows([]string{
		"id", "user_id", "desk_id", "location_id", "check_in_time",
		"check_out_time", "break_start_time", "break_end_time", "break_type", "status",
	}).AddRow(11, 42, 31, 2, now.Add(-2*time.Hour), nil, now, nil, "lunch", "break")
	mock.ExpectQuery("SELECT .+ FROM check_ins WHERE id = \\?").WithArgs(11).
		WillReturnRows(breakRows)
	mock.ExpectCommit()

	c, rec := newRequest(t, http.MethodPost, "/v1/check-ins/11/break", `{"break_type":"lunch"}`, 42)
	c.SetParamNames("id")
	c.SetParamValues("11")
	require.NoError(t, h.StartBreak(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		CheckIn      checkInView `json:"check_in"`
		BreakMinutes int         `json:"break_minutes"`
		AllowedUntil string      `json:"allowed_until"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "break", resp.CheckIn.Status)
	assert.Equal(t, 90, resp.BreakMinutes)
	assert.Equal(t, "2026-03-10T13:30:00Z", resp.AllowedUntil)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStartBreak_AlreadyOnBreak(t *testing.T) {
	h, mock := newTestHandler(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM check_ins WHERE id = \\?").WithArgs(11).
		WillReturnRows(checkInRow(11, 42, 31, 2, "break", now))
	mock.ExpectRollback()

	c, rec := newRequest(t, http.MethodPost, "/v1/check-ins/11/break", `{"break_type":"regular"}`, 42)
	c.SetParamNames("id")
	c.SetParamValues("11")
	require.NoError(t, h.StartBreak(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStartBreak_UnknownType(t *testing.T) {
	h, _ := newTestHandler(t)

	c, rec := newRequest(t, http.MethodPost, "/v1/check-ins/11/break", `{"break_type":"coffee"}`, 42)
	c.SetParamNames("id")
	c.SetParamValues("11")
	require.NoError(t, h.StartBreak(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEndBreak_Success(t *testing.T) {
	h, mock := newTestHandler(t)
	now := time.Date(2026, 3, 10, 12, 45, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM check_ins WHERE id = \\?").WithArgs(11).
		WillReturnRows(checkInRow(11, 42, 31, 2, "break", now))
	mock.ExpectExec("UPDATE check_ins").WithArgs(11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .+ FROM check_ins WHERE id = \\?").WithArgs(11).
		WillReturnRows(checkInRow(11, 42, 31, 2, "active", now))
	mock.ExpectCommit()

	c, rec := newRequest(t, http.MethodPost, "/v1/check-ins/11/break/end", "", 42)
	c.SetParamNames("id")
	c.SetParamValues("11")
	require.NoError(t, h.EndBreak(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEndBreak_NotOnBreak(t *testing.T) {
	h, mock := newTestHandler(t)
	now := time.Date(2026, 3, 10, 12, 45, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM check_ins WHERE id = \\?").WithArgs(11).
		WillReturnRows(checkInRow(11, 42, 31, 2, "active", now))
	mock.ExpectRollback()

	c, rec := newRequest(t, http.MethodPost, "/v1/check-ins/11/break/end", "", 42)
	c.SetParamNames("id")
	c.SetParamValues("11")
	require.NoError(t, h.EndBreak(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckOut_RejectedDuringBreak(t *testing.T) {
	h, mock := newTestHandler(t)
	now := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM check_ins WHERE id = \\?").WithArgs(11).
		WillReturnRows(checkInRow(11, 42, 31, 2, "break", now))
	mock.ExpectRollback()

	c, rec := newRequest(t, http.MethodPost, "/v1/check-ins/11/checkout", "", 42)
	c.SetParamNames("id")
	c.SetParamValues("11")
	require.NoError(t, h.CheckOut(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckOut_AlreadyCompleted(t *testing.T) {
	h, mock := newTestHandler(t)
	now := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM check_ins WHERE id = \\?").WithArgs(11).
		WillReturnRows(checkInRow(11, 42, 31, 2, "completed", now))
	mock.ExpectRollback()

	c, rec := newRequest(t, http.MethodPost, "/v1/check-ins/11/checkout", "", 42)
	c.SetParamNames("id")
	c.SetParamValues("11")
	require.NoError(t, h.CheckOut(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckOut_NotOwner(t *testing.T) {
	h, mock := newTestHandler(t)
	now := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM check_ins WHERE id = \\?").WithArgs(11).
		WillReturnRows(checkInRow(11, 99, 31, 2, "active", now))
	mock.ExpectRollback()

	c, rec := newRequest(t, http.MethodPost, "/v1/check-ins/11/checkout", "", 42)
	c.SetParamNames("id")
	c.SetParamValues("11")
	require.NoError(t, h.CheckOut(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckOut_Success(t *testing.T) {
	h, mock := newTestHandler(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM check_ins WHERE id = \\?").WithArgs(11).
		WillReturnRows(checkInRow(11, 42, 31, 2, "active", now))
	mock.ExpectExec("UPDATE check_ins").WithArgs(11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE desks").WithArgs(31).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE locations").WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .+ FROM check_ins WHERE id = \\?").WithArgs(11).
		WillReturnRows(checkInRow(11, 42, 31, 2, "completed", now))
	locRows := sqlmock.NewRows([]string{
		"id", "name", "type", "current_density", "total_seats", "available_seats",
		"entrance_qr_code", "exit_qr_code", "last_updated",
	}).AddRow(2, "Central Library", "library", "medium", 120, 38, nil, nil, now)
	mock.ExpectQuery("SELECT .+ FROM locations WHERE id = \\?").WithArgs(2).
		WillReturnRows(locRows)
	mock.ExpectCommit()
	// Table-number lookup for the published event, outside the tx.
	mock.ExpectQuery("SELECT .+ FROM desks WHERE id = \\?").WithArgs(31).
		WillReturnRows(deskRow(31, 2, 15, "available", now))

	c, rec := newRequest(t, http.MethodPost, "/v1/check-ins/11/checkout", "", 42)
	c.SetParamNames("id")
	c.SetParamValues("11")
	require.NoError(t, h.CheckOut(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		CheckIn checkInView `json:"check_in"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.CheckIn.Status)
	require.NotNil(t, resp.CheckIn.CheckOutTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListCheckIns_BadStatusFilter(t *testing.T) {
	h, _ := newTestHandler(t)

	c, rec := newRequest(t, http.MethodGet, "/v1/check-ins?status=bogus", "", 42)
	require.NoError(t, h.ListCheckIns(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListCheckIns_DegradesToEmpty(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery("SELECT .+ FROM check_ins").WithArgs(42).
		WillReturnError(sql.ErrConnDone)

	c, rec := newRequest(t, http.MethodGet, "/v1/check-ins", "", 42)
	require.NoError(t, h.ListCheckIns(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}
