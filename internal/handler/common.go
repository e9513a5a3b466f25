package handler // handler defines the HTTP handlers of the service

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/serhatk/campus-occupancy/internal/model"
	"github.com/serhatk/campus-occupancy/internal/repository"
)

// getUserID extracts the authenticated user from echo.Context and
// converts it to uint64.  The JWT middleware stores the raw claim, so
// the value may arrive as float64 (JSON number) or string.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// apiError carries an HTTP status alongside a user-facing message so
// shared flows (check-in proper and check-in via scan) map failures to
// responses exactly once.
type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string { return e.msg }

func newAPIError(status int, msg string) *apiError {
	return &apiError{status: status, msg: msg}
}

// writeError renders err as a JSON error response.  Repository
// sentinels map to their HTTP classes; unclassified errors become
// opaque 500s.
func writeError(c echo.Context, err error) error {
	var ae *apiError
	switch {
	case errors.As(err, &ae):
		return c.JSON(ae.status, echo.Map{"error": ae.msg})
	case errors.Is(err, sql.ErrNoRows):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your session"})
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrValidation):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// isoTime formats a database timestamp as RFC3339 in UTC.
func isoTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// isoTimePtr is isoTime for nullable timestamps.
func isoTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := isoTime(*t)
	return &s
}

// checkInView is the JSON shape of a check-in returned to clients.
// All timestamps are RFC3339 strings.
type checkInView struct {
	ID             uint64  `json:"id"`
	UserID         uint64  `json:"user_id"`
	DeskID         *uint64 `json:"desk_id,omitempty"`
	LocationID     uint64  `json:"location_id"`
	CheckInTime    string  `json:"check_in_time"`
	CheckOutTime   *string `json:"check_out_time,omitempty"`
	BreakStartTime *string `json:"break_start_time,omitempty"`
	BreakEndTime   *string `json:"break_end_time,omitempty"`
	BreakType      *string `json:"break_type,omitempty"`
	Status         string  `json:"status"`
}

func newCheckInView(ci *model.CheckIn) checkInView {
	return checkInView{
		ID:             ci.ID,
		UserID:         ci.UserID,
		DeskID:         ci.DeskID,
		LocationID:     ci.LocationID,
		CheckInTime:    isoTime(ci.CheckInTime),
		CheckOutTime:   isoTimePtr(ci.CheckOutTime),
		BreakStartTime: isoTimePtr(ci.BreakStartTime),
		BreakEndTime:   isoTimePtr(ci.BreakEndTime),
		BreakType:      ci.BreakType,
		Status:         ci.Status,
	}
}

// locationView is the JSON shape of a location.
type locationView struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	CurrentDensity string `json:"current_density"`
	TotalSeats     uint32 `json:"total_seats"`
	AvailableSeats uint32 `json:"available_seats"`
	LastUpdated    string `json:"last_updated"`
}

func newLocationView(l *model.Location) locationView {
	return locationView{
		ID:             l.ID,
		Name:           l.Name,
		Type:           l.Type,
		CurrentDensity: l.CurrentDensity,
		TotalSeats:     l.TotalSeats,
		AvailableSeats: l.AvailableSeats,
		LastUpdated:    isoTime(l.LastUpdated),
	}
}

// deskView is the JSON shape of a desk.
type deskView struct {
	ID          uint64 `json:"id"`
	LocationID  uint64 `json:"location_id"`
	TableNumber uint32 `json:"table_number"`
	Status      string `json:"status"`
	LastUpdated string `json:"last_updated"`
}

func newDeskView(d *model.Desk) deskView {
	return deskView{
		ID:          d.ID,
		LocationID:  d.LocationID,
		TableNumber: d.TableNumber,
		Status:      d.Status,
		LastUpdated: isoTime(d.LastUpdated),
	}
}
