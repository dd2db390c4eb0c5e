package api

import (
	"net/http"
	"strconv"

	"voyago/travel-planner/internal/domain"
	"voyago/travel-planner/internal/repository"
	"voyago/travel-planner/internal/sync"

	"github.com/gin-gonic/gin"
)

// TripHandler holds the engine registry and catalog dependencies.
type TripHandler struct {
	registry *sync.Registry
	catalog  *sync.Catalog
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(registry *sync.Registry, catalog *sync.Catalog) *TripHandler {
	return &TripHandler{registry: registry, catalog: catalog}
}

// --- DTOs for API (Data Transfer Objects) ---

// CreateTripRequest defines the expected JSON for creating a trip.
type CreateTripRequest struct {
	Country   string `json:"country" binding:"required"`
	City      string `json:"city" binding:"required"`
	StartDate string `json:"startDate" binding:"required"` // ISO-8601 date
	Duration  int    `json:"duration"`                     // days; values below 1 are coerced to 1
}

// AddSpotRequest defines the expected JSON for appending a spot to a day.
type AddSpotRequest struct {
	Time string `json:"time"`
	Name string `json:"name" binding:"required"`
	Note string `json:"note"`
}

// MoveSpotRequest defines the expected JSON for moving a spot one
// position. Moves past either end of the list are silent no-ops.
type MoveSpotRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

// EditSpotRequest defines the expected JSON for replacing a spot's
// editable fields. The spot id itself is immutable.
type EditSpotRequest struct {
	Time string `json:"time"`
	Name string `json:"name" binding:"required"`
	Note string `json:"note"`
}

// --- Handler Methods ---

// ListTrips returns the catalog: every trip, newest first.
func (h *TripHandler) ListTrips(c *gin.Context) {
	trips := h.catalog.Snapshot()
	resp := gin.H{"trips": trips}
	if notice := h.catalog.Notice(); notice != "" {
		resp["notice"] = notice
	}
	c.JSON(http.StatusOK, resp)
}

// CreateTrip creates a trip and its paired itinerary, then selects it for
// the caller's session.
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	engine, ok := h.sessionEngine(c)
	if !ok {
		return
	}
	trip, err := engine.CreateTrip(c.Request.Context(), sync.TripInfo{
		Country:   req.Country,
		City:      req.City,
		StartDate: req.StartDate,
		Duration:  req.Duration,
	})
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to create trip.")
		return
	}
	c.JSON(http.StatusCreated, trip)
}

// SelectTrip points the caller's session at a trip, replacing any prior
// subscription pair.
func (h *TripHandler) SelectTrip(c *gin.Context) {
	engine, ok := h.sessionEngine(c)
	if !ok {
		return
	}
	if err := engine.Select(c.Param("id")); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to subscribe to trip.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected": c.Param("id")})
}

// GetSnapshot returns the session's last-observed view of the selected
// trip. It does not query the store: the view is whatever the
// subscriptions last pushed.
func (h *TripHandler) GetSnapshot(c *gin.Context) {
	engine, ok := h.sessionEngine(c)
	if !ok {
		return
	}
	snap := engine.Snapshot()
	if snap.TripID != c.Param("id") {
		abortWithError(c, http.StatusConflict, "This trip is not selected; select it first.")
		return
	}
	c.JSON(http.StatusOK, snap)
}

// AddSpot appends a new spot to one day's list. The response is 202: the
// updated list arrives through the subscription push, not here.
func (h *TripHandler) AddSpot(c *gin.Context) {
	var req AddSpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	h.mutateSpots(c, func(spots []domain.Spot) []domain.Spot {
		return domain.AppendSpot(spots, domain.Spot{
			ID:   domain.NewSpotID(),
			Time: req.Time,
			Name: req.Name,
			Note: req.Note,
		})
	})
}

// MoveSpot swaps a spot with its neighbor above or below.
func (h *TripHandler) MoveSpot(c *gin.Context) {
	var req MoveSpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	spotID := c.Param("spotId")
	h.mutateSpots(c, func(spots []domain.Spot) []domain.Spot {
		idx := -1
		for i := range spots {
			if spots[i].ID == spotID {
				idx = i
				break
			}
		}
		if idx < 0 {
			// Unknown id: the spot may have been removed remotely since
			// this client last saw the list. Tolerated, not an error.
			return spots
		}
		if req.Direction == "up" {
			return domain.SwapUp(spots, idx)
		}
		return domain.SwapDown(spots, idx)
	})
}

// EditSpot replaces a spot's editable fields in place.
func (h *TripHandler) EditSpot(c *gin.Context) {
	var req EditSpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	spotID := c.Param("spotId")
	h.mutateSpots(c, func(spots []domain.Spot) []domain.Spot {
		return domain.EditSpot(spots, domain.Spot{
			ID:   spotID,
			Time: req.Time,
			Name: req.Name,
			Note: req.Note,
		})
	})
}

// RemoveSpot deletes a spot from one day's list.
func (h *TripHandler) RemoveSpot(c *gin.Context) {
	spotID := c.Param("spotId")
	h.mutateSpots(c, func(spots []domain.Spot) []domain.Spot {
		return domain.RemoveSpot(spots, spotID)
	})
}

// mutateSpots runs one pure list transformation against the session's
// last-observed spot list for the addressed day and writes the full
// replacement through the engine. Callers get 202 Accepted: there is no
// optimistic update, the new state becomes visible via push.
func (h *TripHandler) mutateSpots(c *gin.Context, transform func([]domain.Spot) []domain.Spot) {
	engine, ok := h.sessionEngine(c)
	if !ok {
		return
	}
	if engine.Snapshot().TripID != c.Param("id") {
		abortWithError(c, http.StatusConflict, "This trip is not selected; select it first.")
		return
	}
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil || day < 1 {
		abortWithError(c, http.StatusBadRequest, "Day must be a positive integer.")
		return
	}
	spots, ok := engine.DaySpots(day)
	if !ok {
		abortWithError(c, http.StatusNotFound, "No such day in the selected trip.")
		return
	}

	next := transform(spots)
	engine.WriteField(c.Request.Context(), repository.DaySpotsPath(day), next)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h *TripHandler) sessionEngine(c *gin.Context) (*sync.Engine, bool) {
	subject, err := getSubjectFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify session.")
		return nil, false
	}
	return h.registry.Engine(subject), true
}
