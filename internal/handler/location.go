package handler

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/serhatk/campus-occupancy/internal/model"
	"github.com/serhatk/campus-occupancy/internal/repository"
)

// LocationHandler serves the public browse surface: locations, their
// live seat counters and their desks.  Reads never propagate storage
// errors to the client; a failing list degrades to an empty result so
// the availability dashboard stays up during database trouble.
type LocationHandler struct {
	LocationRepo *repository.LocationRepo
	DeskRepo     *repository.DeskRepo
}

func NewLocationHandler(l *repository.LocationRepo, d *repository.DeskRepo) *LocationHandler {
	return &LocationHandler{LocationRepo: l, DeskRepo: d}
}

// ListLocations handles GET /v1/locations.
func (h *LocationHandler) ListLocations(c echo.Context) error {
	items, err := h.LocationRepo.List(c.Request().Context())
	if err != nil {
		log.Printf("list locations: %v", err)
		items = []model.Location{}
	}
	views := make([]locationView, 0, len(items))
	for i := range items {
		views = append(views, newLocationView(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": views})
}

// GetLocation handles GET /v1/locations/:id.
func (h *LocationHandler) GetLocation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid location id"})
	}
	loc, err := h.LocationRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		}
		log.Printf("get location: %v", err)
		return c.JSON(http.StatusOK, echo.Map{"item": nil})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": newLocationView(loc)})
}

// ListDesks handles GET /v1/locations/:id/desks.
func (h *LocationHandler) ListDesks(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid location id"})
	}
	items, err := h.DeskRepo.ListByLocation(c.Request().Context(), id)
	if err != nil {
		log.Printf("list desks: %v", err)
		items = []model.Desk{}
	}
	views := make([]deskView, 0, len(items))
	for i := range items {
		views = append(views, newDeskView(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": views})
}
