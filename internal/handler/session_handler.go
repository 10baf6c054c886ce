package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type sessionManager interface {
	Create(ctx context.Context, req dto.CreateSessionRequest) (*dto.SessionResponse, error)
	Get(ctx context.Context, id string) (*dto.SessionResponse, error)
	Delete(ctx context.Context, id string) error
	UpdateTiming(ctx context.Context, id string, req dto.UpdateTimingRequest) (*dto.GridResponse, error)
	Grid(ctx context.Context, id string) (*dto.GridResponse, error)
}

// SessionHandler exposes wizard session endpoints.
type SessionHandler struct {
	service sessionManager
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(svc *service.SessionService) *SessionHandler {
	return &SessionHandler{service: svc}
}

// Create godoc
// @Summary Create a timetable session from wizard data
// @Description Empty faculty or room lists are filled from the roster database when it is enabled.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest true "Wizard payload"
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if !bindJSON(c, &req, "session") {
		return
	}
	session, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetSessionVersion(c, session.Version)
	response.Created(c, session)
}

// Get godoc
// @Summary Session summary
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetSessionVersion(c, session.Version)
	response.JSON(c, http.StatusOK, session, nil, middleware.ExtractMeta(c))
}

// Delete godoc
// @Summary Drop a session and everything derived from it
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 204 {string} string "No Content"
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateTiming godoc
// @Summary Replace the bell schedule
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.UpdateTimingRequest true "Timing payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/timing [put]
func (h *SessionHandler) UpdateTiming(c *gin.Context) {
	var req dto.UpdateTimingRequest
	if !bindJSON(c, &req, "timing") {
		return
	}
	grid, err := h.service.UpdateTiming(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid, nil)
}

// Grid godoc
// @Summary Derived time grid
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/grid [get]
func (h *SessionHandler) Grid(c *gin.Context) {
	grid, err := h.service.Grid(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid, nil)
}
