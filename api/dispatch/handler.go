// Package dispatch exposes the engine over HTTP. Every resolved outcome,
// success or documented failure, returns 200 with a DispatchResult body; 5xx
// is reserved for unexpected internal faults.
package dispatch

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	coremetrics "github.com/tambula/dispatch/core/metrics"
	"github.com/tambula/dispatch/core/model"
)

// Engine is the surface the handler needs from the dispatch engine.
type Engine interface {
	Dispatch(ctx context.Context, req model.DispatchRequest) model.DispatchResult
	Metrics(windowHours int) coremetrics.WindowStats
}

// DriverFeed accepts driver position updates from the ingestion endpoints.
type DriverFeed interface {
	UpdateLocation(ctx context.Context, loc model.DriverLocation) error
	SetOffline(ctx context.Context, driverID string) error
}

// DemandMarker records incoming requests for surge demand counting.
type DemandMarker interface {
	MarkRequest(ctx context.Context, requestID string, at time.Time) error
}

// Handler serves the dispatch API. feed and marker are optional; their
// routes and side effects are skipped when nil.
type Handler struct {
	engine Engine
	feed   DriverFeed
	marker DemandMarker
}

// NewHandler creates a Handler over the engine.
func NewHandler(engine Engine, feed DriverFeed, marker DemandMarker) *Handler {
	return &Handler{engine: engine, feed: feed, marker: marker}
}

// RegisterRoutes registers the API routes on the given router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/dispatch", h.Dispatch)
	r.GET("/api/metrics", h.Metrics)
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	if h.feed != nil {
		r.POST("/drivers/location", h.UpdateLocation)
		r.POST("/drivers/:id/offline", h.SetOffline)
	}
}

// Dispatch handles POST /dispatch.
func (h *Handler) Dispatch(c *gin.Context) {
	var req model.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if h.marker != nil {
		// Best effort: a missed demand tick must not delay the dispatch.
		_ = h.marker.MarkRequest(c.Request.Context(), req.ID, time.Now())
	}
	result := h.engine.Dispatch(c.Request.Context(), req)
	c.JSON(http.StatusOK, result)
}

// Metrics handles GET /api/metrics?window_hours=24.
func (h *Handler) Metrics(c *gin.Context) {
	window := 24
	if v := c.Query("window_hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window_hours must be a positive integer"})
			return
		}
		window = n
	}
	c.JSON(http.StatusOK, h.engine.Metrics(window))
}

type locationUpdate struct {
	DriverID     string  `json:"driver_id" binding:"required"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	VehicleClass string  `json:"vehicle_class"`
	Service      string  `json:"service_type" binding:"required"`
}

// UpdateLocation handles POST /drivers/location, the driver ping path.
func (h *Handler) UpdateLocation(c *gin.Context) {
	var upd locationUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if upd.Lat < -90 || upd.Lat > 90 || upd.Lng < -180 || upd.Lng > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": model.ErrInvalidCoordinate.Error()})
		return
	}
	loc := model.DriverLocation{
		DriverID:     upd.DriverID,
		Position:     model.Coordinate{Lat: upd.Lat, Lng: upd.Lng},
		VehicleClass: upd.VehicleClass,
		Service:      model.ServiceType(upd.Service),
		LastPing:     time.Now(),
	}
	if err := h.feed.UpdateLocation(c.Request.Context(), loc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// SetOffline handles POST /drivers/:id/offline.
func (h *Handler) SetOffline(c *gin.Context) {
	if err := h.feed.SetOffline(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
