package handler

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/serhatk/campus-occupancy/internal/model"
	"github.com/serhatk/campus-occupancy/internal/queue"
	"github.com/serhatk/campus-occupancy/internal/repository"
	queue_publisher "github.com/serhatk/campus-occupancy/internal/service"
)

// DensityHandler accepts crowding reports and serves their history.
// A report does two writes in one transaction: last-write-wins on the
// location's current level, append-only on the history table.
type DensityHandler struct {
	LocationRepo *repository.LocationRepo
	LogRepo      *repository.DensityLogRepo
}

func NewDensityHandler(l *repository.LocationRepo, d *repository.DensityLogRepo) *DensityHandler {
	return &DensityHandler{LocationRepo: l, LogRepo: d}
}

type densityReportReq struct {
	Level string `json:"level"`
}

// SubmitReport handles POST /v1/locations/:id/density-reports.
func (h *DensityHandler) SubmitReport(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	locID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid location id"})
	}

	var req densityReportReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid request body"})
	}
	if !model.ValidDensity(req.Level) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "level must be 'low', 'medium' or 'high'"})
	}

	ctx := c.Request().Context()
	loc, err := h.LocationRepo.GetByID(ctx, locID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	tx, err := h.LocationRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.LocationRepo.UpdateDensityTx(ctx, tx, locID, req.Level); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	logID, err := h.LogRepo.AppendTx(ctx, tx, locID, req.Level, model.SourceUser)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	committed = true

	// Best effort: the report is already durable.
	ev := queue.DensityReportedEvent{
		LocationID:   locID,
		LocationName: loc.Name,
		DensityLevel: req.Level,
		Source:       model.SourceUser,
		ReportedAt:   isoTime(loc.LastUpdated),
	}
	if fresh, lerr := h.LocationRepo.GetByID(ctx, locID); lerr == nil {
		ev.ReportedAt = isoTime(fresh.LastUpdated)
	}
	if err := queue_publisher.PublishDensityReported(ctx, ev); err != nil {
		log.Printf("density report: publish event failed: %v", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"log_id":      logID,
		"location_id": locID,
		"level":       req.Level,
	})
}

// densityLogView is the JSON shape of one history row.
type densityLogView struct {
	ID         uint64 `json:"id"`
	LocationID uint64 `json:"location_id"`
	Level      string `json:"level"`
	Source     string `json:"source"`
	Timestamp  string `json:"timestamp"`
}

// GetLocationLogs handles GET /v1/locations/:id/density-reports with an
// optional ?limit=.  History reads degrade to an empty list on failure.
func (h *DensityHandler) GetLocationLogs(c echo.Context) error {
	locID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid location id"})
	}
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	items, err := h.LogRepo.ListByLocation(c.Request().Context(), locID, limit)
	if err != nil {
		log.Printf("list density logs: %v", err)
		items = []model.DensityLog{}
	}
	views := make([]densityLogView, 0, len(items))
	for _, l := range items {
		views = append(views, densityLogView{
			ID:         l.ID,
			LocationID: l.LocationID,
			Level:      l.DensityLevel,
			Source:     l.Source,
			Timestamp:  isoTime(l.Timestamp),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": views})
}
