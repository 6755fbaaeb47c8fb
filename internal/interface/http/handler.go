package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/uv-australia/internal/domain/dataset"
	"github.com/yanqian/uv-australia/internal/domain/mapsync"
	"github.com/yanqian/uv-australia/internal/domain/session"
	"github.com/yanqian/uv-australia/internal/domain/uvadvisor"
	"github.com/yanqian/uv-australia/internal/domain/uvindex"
	apperrors "github.com/yanqian/uv-australia/pkg/errors"
)

// SnapshotSource exposes the latest UV dataset.
type SnapshotSource interface {
	Current() *uvindex.Snapshot
}

// Refresher reports and triggers dataset polls.
type Refresher interface {
	Refresh(ctx context.Context) (dataset.Status, error)
	Status() dataset.Status
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	snapshots SnapshotSource
	poller    Refresher
	locator   session.Locator
	advisor   uvadvisor.Service
	sessions  *session.Manager
	logger    *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(snapshots SnapshotSource, poller Refresher, locator session.Locator, advisor uvadvisor.Service, sessions *session.Manager, logger *slog.Logger) *Handler {
	return &Handler{
		snapshots: snapshots,
		poller:    poller,
		locator:   locator,
		advisor:   advisor,
		sessions:  sessions,
		logger:    logger.With("component", "http.handler"),
	}
}

// Health reports liveness together with dataset freshness.
func (h *Handler) Health(c *gin.Context) {
	status := h.poller.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"readings": status.Count,
		"failing":  status.Failing,
		"sessions": h.sessions.Len(),
	})
}

// Snapshot returns every reading in the current dataset with its derived values.
func (h *Handler) Snapshot(c *gin.Context) {
	snapshot := h.snapshots.Current()
	derived := make([]uvindex.Derived, 0, snapshot.Len())
	if snapshot != nil {
		for _, r := range snapshot.Readings {
			derived = append(derived, uvindex.Derive(r))
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"readings": derived,
		"status":   h.poller.Status(),
	})
}

// Refresh triggers a dataset poll, joining one already in flight.
func (h *Handler) Refresh(c *gin.Context) {
	status, err := h.poller.Refresh(c.Request.Context())
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadGateway, apperrors.CodeFetch, "refresh failed: "+err.Error(), err))
		return
	}
	c.JSON(http.StatusOK, status)
}

// ByPostcode looks a postcode up in the current dataset.
func (h *Handler) ByPostcode(c *gin.Context) {
	reading, err := h.locator.ByPostcode(c.Request.Context(), c.Param("postcode"))
	h.respondReading(c, reading, err)
}

// ByCity looks a city name up in the current dataset.
func (h *Handler) ByCity(c *gin.Context) {
	reading, err := h.locator.ByCityName(c.Request.Context(), c.Param("name"))
	h.respondReading(c, reading, err)
}

// ByCoordinates finds the reading nearest to a position.
func (h *Handler) ByCoordinates(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(c.Query("lat")), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(c.Query("lng")), 64)
	if latErr != nil || lngErr != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "lat and lng must be numbers", nil))
		return
	}
	reading, err := h.locator.ByCoordinates(c.Request.Context(), lat, lng)
	h.respondReading(c, reading, err)
}

func (h *Handler) respondReading(c *gin.Context, reading uvindex.Reading, err error) {
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, uvindex.Derive(reading))
}

// Markers lists the map markers for the current dataset.
func (h *Handler) Markers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"markers": mapsync.Markers(h.snapshots.Current())})
}

// SkinTypes lists the Fitzpatrick phototypes.
func (h *Handler) SkinTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"skinTypes": uvadvisor.Phototypes()})
}

// Recommend answers a stateless uv + skin type query.
func (h *Handler) Recommend(c *gin.Context) {
	var req uvadvisor.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	advice, err := h.advisor.Recommend(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, advice)
}

// TrendingSearches lists the most frequent successful searches.
func (h *Handler) TrendingSearches(c *gin.Context) {
	items, err := h.sessions.TopSearches(c.Request.Context())
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "trending_failed", errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"searches": items})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
