package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type rosterLister interface {
	ListFaculty(ctx context.Context) ([]models.Faculty, error)
	ListRooms(ctx context.Context, kind string) ([]models.Room, error)
}

// RosterHandler exposes the department roster.
type RosterHandler struct {
	service rosterLister
}

// NewRosterHandler constructs the handler.
func NewRosterHandler(svc *service.RosterService) *RosterHandler {
	return &RosterHandler{service: svc}
}

// Faculty godoc
// @Summary List department faculty
// @Tags Roster
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /roster/faculty [get]
func (h *RosterHandler) Faculty(c *gin.Context) {
	faculty, err := h.service.ListFaculty(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculty, nil)
}

// Rooms godoc
// @Summary List department rooms
// @Tags Roster
// @Produce json
// @Param kind query string false "THEORY or LAB"
// @Success 200 {object} response.Envelope
// @Router /roster/rooms [get]
func (h *RosterHandler) Rooms(c *gin.Context) {
	rooms, err := h.service.ListRooms(c.Request.Context(), c.Query("kind"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}
