package http

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/uv-australia/internal/domain/mapsync"
	"github.com/yanqian/uv-australia/internal/domain/session"
	"github.com/yanqian/uv-australia/internal/domain/uvadvisor"
)

type searchRequest struct {
	Query string `json:"query"`
}

type markerRequest struct {
	LocationID string `json:"locationId" binding:"required"`
}

type geolocationRequest struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Error string   `json:"error"`
}

type skinTypeRequest struct {
	SkinType *int     `json:"skinType"`
	Slider   *float64 `json:"slider"`
}

// CreateSession starts an Idle session.
func (h *Handler) CreateSession(c *gin.Context) {
	sess := h.sessions.Create()
	c.JSON(http.StatusCreated, sess.View(c.Request.Context()))
}

// GetSession renders the session view.
func (h *Handler) GetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.View(c.Request.Context()))
}

// Search resolves a postcode or city name for the session.
func (h *Handler) Search(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	view, err := sess.Search(c.Request.Context(), req.Query)
	h.respondView(c, view, err)
}

// MarkerClicked selects a station from the map.
func (h *Handler) MarkerClicked(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req markerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	view, err := sess.MarkerClicked(c.Request.Context(), req.LocationID)
	h.respondView(c, view, err)
}

// Geolocation reports the device position or its failure.
func (h *Handler) Geolocation(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req geolocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if req.Error != "" {
		view, err := sess.LocationError(c.Request.Context(), req.Error)
		h.respondView(c, view, err)
		return
	}
	if req.Lat == nil || req.Lng == nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "lat and lng are required", nil))
		return
	}
	view, err := sess.LocationFound(c.Request.Context(), *req.Lat, *req.Lng)
	h.respondView(c, view, err)
}

// ResetSession clears the selection.
func (h *Handler) ResetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Reset(c.Request.Context()))
}

// SetSkinType accepts an exact phototype or a slider position.
func (h *Handler) SetSkinType(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req skinTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	var (
		view session.View
		err  error
	)
	switch {
	case req.SkinType != nil:
		view, err = sess.SetSkinType(c.Request.Context(), uvadvisor.Phototype(*req.SkinType))
	case req.Slider != nil:
		view, err = sess.SetSkinSlider(c.Request.Context(), *req.Slider)
	default:
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "skinType or slider is required", nil))
		return
	}
	h.respondView(c, view, err)
}

// Viewport reports the map container size.
func (h *Handler) Viewport(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req mapsync.Viewport
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, sess.Resize(c.Request.Context(), req))
}

// SessionEvents streams camera, alert and selection events using Server-Sent Events.
func (h *Handler) SessionEvents(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	events, cancel := sess.Subscribe()
	defer cancel()

	// Streams outlive the server write timeout.
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("write deadline not adjustable", "error", err)
	}
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.SSEvent("view", sess.View(c.Request.Context()))
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case evt, open := <-events:
			if !open {
				return false
			}
			c.SSEvent(evt.Type, evt.Data)
			return true
		}
	})
}

func (h *Handler) session(c *gin.Context) (*session.Session, bool) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return nil, false
	}
	return sess, true
}

// respondView writes the view, or the error when the operation failed. The
// failure is also kept on the session and visible through GET.
func (h *Handler) respondView(c *gin.Context, view session.View, err error) {
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, view)
}
