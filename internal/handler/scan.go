package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/serhatk/campus-occupancy/internal/qr"
	"github.com/serhatk/campus-occupancy/internal/repository"
)

type scanReq struct {
	Code string `json:"code"`
}

// Scan handles POST /v1/scan: the single entry point for every QR code
// on campus.  Desk codes resolve to a desk and open a session through
// the same transaction as a direct check-in; venue codes acknowledge an
// entry or exit; anything unrecognized is rejected rather than guessed
// at.
func (h *CheckInHandler) Scan(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req scanReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "code is required"})
	}

	switch p := qr.Parse(req.Code).(type) {
	case qr.DeskCode:
		locID := p.LocationID
		if locID == 0 {
			// Bare legacy desk codes carry no location of their own.
			locID = h.Cfg.DeskQRLocationID
		}
		desk, err := h.DeskRepo.GetByLocationAndTable(c.Request().Context(), locID, p.Table)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "desk not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
		rec, err := h.performCheckIn(c.Request().Context(), userID, desk.ID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, echo.Map{
			"action":   "desk_check_in",
			"check_in": newCheckInView(rec),
		})

	case qr.LocationEvent:
		action := "location_entry"
		if p.Direction == qr.DirectionExit {
			action = "location_exit"
		}
		return c.JSON(http.StatusOK, echo.Map{
			"action": action,
			"venue":  p.Venue,
		})

	case qr.LegacyCode:
		return c.JSON(http.StatusOK, echo.Map{
			"action":  "none",
			"message": "legacy code acknowledged",
		})

	default:
		return writeError(c, fmt.Errorf("unrecognized code: %w", repository.ErrValidation))
	}
}
