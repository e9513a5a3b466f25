package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/serhatk/campus-occupancy/internal/config"
	"github.com/serhatk/campus-occupancy/internal/model"
	"github.com/serhatk/campus-occupancy/internal/queue"
	"github.com/serhatk/campus-occupancy/internal/repository"
	queue_publisher "github.com/serhatk/campus-occupancy/internal/service"
)

// CheckInHandler bundles the repositories of the desk session lifecycle:
// check in, break, resume, check out.  Every mutation runs inside a
// single transaction so the session row, the desk status and the seat
// counter move together or not at all.
type CheckInHandler struct {
	Cfg          config.Config
	CheckInRepo  *repository.CheckInRepo
	DeskRepo     *repository.DeskRepo
	LocationRepo *repository.LocationRepo
}

// NewCheckInHandler wires the handler with its dependencies.
func NewCheckInHandler(cfg config.Config, ci *repository.CheckInRepo, d *repository.DeskRepo, l *repository.LocationRepo) *CheckInHandler {
	return &CheckInHandler{Cfg: cfg, CheckInRepo: ci, DeskRepo: d, LocationRepo: l}
}

type checkInRequest struct {
	DeskID uint64 `json:"desk_id"`
}

// CheckIn handles POST /v1/check-ins.  The desk is claimed with a
// conditional write and the location seat counter is decremented in the
// same transaction, so two users scanning the same desk at once cannot
// both succeed.
func (h *CheckInHandler) CheckIn(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req checkInRequest
	if err := c.Bind(&req); err != nil || req.DeskID == 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "desk_id is required"})
	}

	rec, err := h.performCheckIn(c.Request().Context(), userID, req.DeskID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"check_in": newCheckInView(rec)})
}

// performCheckIn opens a desk session for the user.  Shared between the
// direct check-in endpoint and the QR scan endpoint, which resolves the
// desk first and then funnels into the same transaction.
func (h *CheckInHandler) performCheckIn(ctx context.Context, userID, deskID uint64) (*model.CheckIn, error) {
	tx, err := h.CheckInRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	open, err := h.CheckInRepo.HasOpenSessionTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, newAPIError(http.StatusConflict, "an open session already exists; check out first")
	}

	desk, err := h.DeskRepo.GetByIDTx(ctx, tx, deskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newAPIError(http.StatusNotFound, "desk not found")
		}
		return nil, err
	}

	if err := h.DeskRepo.OccupyTx(ctx, tx, desk.ID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, newAPIError(http.StatusConflict, "desk is not available")
		}
		return nil, err
	}
	if err := h.LocationRepo.TakeSeatTx(ctx, tx, desk.LocationID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, newAPIError(http.StatusConflict, "no seats available at this location")
		}
		return nil, err
	}

	rec, err := h.CheckInRepo.CreateTx(ctx, tx, userID, &desk.ID, desk.LocationID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return rec, nil
}

type breakRequest struct {
	BreakType string `json:"break_type"`
}

// StartBreak handles POST /v1/check-ins/:id/break.  The desk stays
// occupied for the whole break; the response carries an advisory
// allowed_until hint derived from the configured break duration.
func (h *CheckInHandler) StartBreak(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid check-in id"})
	}

	var req breakRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid request body"})
	}
	if req.BreakType != model.BreakLunch && req.BreakType != model.BreakRegular {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "break_type must be 'lunch' or 'regular'"})
	}

	ctx := c.Request().Context()
	tx, err := h.CheckInRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rec, err := h.loadOwnSessionTx(ctx, tx, id, userID)
	if err != nil {
		return writeError(c, err)
	}
	if rec.Status == model.CheckInBreak || rec.OnBreak() {
		return c.JSON(http.StatusConflict, echo.Map{"error": "a break is already in progress"})
	}
	if rec.Status != model.CheckInActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "session is not active"})
	}

	if err := h.CheckInRepo.StartBreakTx(ctx, tx, id, req.BreakType); err != nil {
		if errors.Is(err, repository.ErrInvalidState) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "session is not active"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	rec, err = h.CheckInRepo.GetByIDTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	committed = true

	minutes := h.Cfg.BreakRegularMin
	if req.BreakType == model.BreakLunch {
		minutes = h.Cfg.BreakLunchMin
	}
	resp := echo.Map{
		"check_in":      newCheckInView(rec),
		"break_minutes": minutes,
	}
	if rec.BreakStartTime != nil {
		resp["allowed_until"] = isoTime(rec.BreakStartTime.Add(time.Duration(minutes) * time.Minute))
	}
	return c.JSON(http.StatusOK, resp)
}

// EndBreak handles POST /v1/check-ins/:id/break/end and returns the
// session to the active state.
func (h *CheckInHandler) EndBreak(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid check-in id"})
	}

	ctx := c.Request().Context()
	tx, err := h.CheckInRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rec, err := h.loadOwnSessionTx(ctx, tx, id, userID)
	if err != nil {
		return writeError(c, err)
	}
	if rec.Status != model.CheckInBreak {
		return c.JSON(http.StatusConflict, echo.Map{"error": "no break in progress"})
	}

	if err := h.CheckInRepo.EndBreakTx(ctx, tx, id); err != nil {
		if errors.Is(err, repository.ErrInvalidState) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "no break in progress"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	rec, err = h.CheckInRepo.GetByIDTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{"check_in": newCheckInView(rec)})
}

// CheckOut handles POST /v1/check-ins/:id/checkout.  The conditional
// status flip in CompleteTx is what makes the desk release and seat
// increment run exactly once even when two checkout requests race.
func (h *CheckInHandler) CheckOut(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid check-in id"})
	}

	ctx := c.Request().Context()
	tx, err := h.CheckInRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rec, err := h.loadOwnSessionTx(ctx, tx, id, userID)
	if err != nil {
		return writeError(c, err)
	}
	switch rec.Status {
	case model.CheckInBreak:
		return c.JSON(http.StatusConflict, echo.Map{"error": "end your break before checking out"})
	case model.CheckInCompleted:
		return c.JSON(http.StatusConflict, echo.Map{"error": "session is already completed"})
	}

	if err := h.CheckInRepo.CompleteTx(ctx, tx, id); err != nil {
		if errors.Is(err, repository.ErrInvalidState) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "session is not active"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if rec.DeskID != nil {
		if err := h.DeskRepo.ReleaseTx(ctx, tx, *rec.DeskID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
		if err := h.LocationRepo.ReturnSeatTx(ctx, tx, rec.LocationID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}

	rec, err = h.CheckInRepo.GetByIDTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	loc, err := h.LocationRepo.GetByIDTx(ctx, tx, rec.LocationID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	committed = true

	// Best effort: a broker outage must not fail the checkout.
	ev := queue.CheckInCompletedEvent{
		CheckInID:    rec.ID,
		UserID:       rec.UserID,
		LocationID:   rec.LocationID,
		LocationName: loc.Name,
		DeskID:       rec.DeskID,
		CheckedInAt:  isoTime(rec.CheckInTime),
	}
	if rec.CheckOutTime != nil {
		ev.CheckedOutAt = isoTime(*rec.CheckOutTime)
	}
	if rec.DeskID != nil {
		if desk, derr := h.DeskRepo.GetByID(ctx, *rec.DeskID); derr == nil {
			ev.TableNumber = &desk.TableNumber
		}
	}
	if err := queue_publisher.PublishCheckInCompleted(ctx, ev); err != nil {
		log.Printf("checkout: publish event failed: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"check_in": newCheckInView(rec)})
}

// ListCheckIns handles GET /v1/check-ins with an optional ?status=
// filter.  History reads degrade to an empty list on storage failure.
func (h *CheckInHandler) ListCheckIns(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	status := c.QueryParam("status")
	switch status {
	case "", model.CheckInActive, model.CheckInBreak, model.CheckInCompleted:
	default:
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "unknown status filter"})
	}

	items, err := h.CheckInRepo.ListByUser(c.Request().Context(), userID, status)
	if err != nil {
		log.Printf("list check-ins: %v", err)
		items = []model.CheckIn{}
	}
	views := make([]checkInView, 0, len(items))
	for i := range items {
		views = append(views, newCheckInView(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": views})
}

// GetCurrent handles GET /v1/check-ins/current and returns the user's
// open session, if any.
func (h *CheckInHandler) GetCurrent(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rec, err := h.CheckInRepo.GetOpenByUser(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusOK, echo.Map{"check_in": nil})
		}
		log.Printf("get current check-in: %v", err)
		return c.JSON(http.StatusOK, echo.Map{"check_in": nil})
	}
	return c.JSON(http.StatusOK, echo.Map{"check_in": newCheckInView(rec)})
}

// loadOwnSessionTx fetches the check-in and enforces ownership.
func (h *CheckInHandler) loadOwnSessionTx(ctx context.Context, tx *sql.Tx, id, userID uint64) (*model.CheckIn, error) {
	rec, err := h.CheckInRepo.GetByIDTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newAPIError(http.StatusNotFound, "check-in not found")
		}
		return nil, err
	}
	if rec.UserID != userID {
		return nil, repository.ErrForbidden
	}
	return rec, nil
}
