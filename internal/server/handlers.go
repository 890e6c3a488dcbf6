package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roach88/cinemad/internal/engine"
	"github.com/roach88/cinemad/internal/session"
)

// Handlers serves the HTTP API for one Session.
type Handlers struct {
	sess *session.Session
	cfg  Config
}

// NewHandlers creates handlers for sess.
func NewHandlers(sess *session.Session, cfg Config) *Handlers {
	return &Handlers{sess: sess, cfg: cfg}
}

func (h *Handlers) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.cfg.RequestTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
}

// HandleHealth handles GET /v1/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	db := h.sess.Database()
	c.JSON(http.StatusOK, HealthResponse{
		Status:   "healthy",
		Spec:     db.SpecURL(),
		SpecHash: db.SpecHash(),
		Displays: len(db.Displays()),
		Sources:  len(db.Sources()),
	})
}

// HandleListDisplays handles GET /v1/displays.
func (h *Handlers) HandleListDisplays(c *gin.Context) {
	displays := h.sess.Database().Displays()
	resp := DisplayListResponse{Displays: make([]DisplaySummary, 0, len(displays))}
	for _, d := range displays {
		resp.Displays = append(resp.Displays, DisplaySummary{
			ID:         d.ID(),
			Label:      d.Label(),
			Source:     d.SourceID(),
			Resolved:   d.Source() != nil,
			State:      d.State().String(),
			Structures: len(d.Structures()),
		})
	}
	c.JSON(http.StatusOK, resp)
}

// HandleGetDisplay handles GET /v1/displays/:id.
func (h *Handlers) HandleGetDisplay(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.sess.Snapshot(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res.Snapshot)
}

// HandleActivate handles POST /v1/displays/:id/activate.
func (h *Handlers) HandleActivate(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.sess.Activate(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ActivateResponse{Activation: res.Token, Display: res.Snapshot})
}

// HandleSelect handles POST /v1/displays/:id/structures/:sid/select.
func (h *Handlers) HandleSelect(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  CodeBadRequest,
		})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.sess.Select(ctx, c.Param("id"), c.Param("sid"), req.Value)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res.Snapshot)
}

// writeError maps session and engine errors to status codes.
func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, ""
	switch {
	case errors.Is(err, session.ErrUnknownDisplay), errors.Is(err, session.ErrUnknownStructure):
		status, code = http.StatusNotFound, CodeNotFound
	case errors.Is(err, session.ErrNotInput), errors.Is(err, engine.ErrNoControl), engine.IsSelectError(err):
		status, code = http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, session.ErrClosed), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status, code = http.StatusServiceUnavailable, CodeUnavailable
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}
