package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/internal/timetable"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type timetableManager interface {
	Load(ctx context.Context, id string, req dto.LoadTimetableRequest) (*dto.TimetableResponse, error)
	Snapshot(ctx context.Context, id string) (*dto.TimetableResponse, error)
	Entities(ctx context.Context, id, mode string) (*dto.EntitiesResponse, error)
	View(ctx context.Context, id, mode, entity string) (*dto.ViewResponse, bool, error)
	Cell(ctx context.Context, id string, query dto.CellQuery) (*dto.CellResponse, error)
	FreeRooms(ctx context.Context, id string, query dto.FreeRoomsQuery) (*timetable.RoomAvailability, error)
	AddEntry(ctx context.Context, id string, req dto.AddEntryRequest) (*dto.EditResponse, error)
	DeleteEntry(ctx context.Context, id string, req dto.DeleteEntryRequest) (*dto.EditResponse, error)
	Audit(ctx context.Context, id string, query dto.AuditQuery) ([]dto.AuditEntry, *models.Pagination, error)
	Revert(ctx context.Context, id, logID string) (*dto.EditResponse, error)
}

// TimetableHandler exposes schedule, projection and edit endpoints.
type TimetableHandler struct {
	service timetableManager
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Load godoc
// @Summary Load the solver result into a session
// @Description Replaces the schedule atomically. Overlapping or malformed entries reject the whole payload.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.LoadTimetableRequest true "Solver payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /sessions/{id}/timetable [put]
func (h *TimetableHandler) Load(c *gin.Context) {
	var req dto.LoadTimetableRequest
	if !bindJSON(c, &req, "timetable") {
		return
	}
	result, err := h.service.Load(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetSessionVersion(c, result.Version)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// Snapshot godoc
// @Summary Current schedule in the solver shape
// @Tags Timetable
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/timetable [get]
func (h *TimetableHandler) Snapshot(c *gin.Context) {
	result, err := h.service.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetSessionVersion(c, result.Version)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// Entities godoc
// @Summary Selectable entities for a view mode
// @Tags Views
// @Produce json
// @Param id path string true "Session ID"
// @Param mode query string true "MASTER, TEACHER, CLASSROOM or LAB"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/entities [get]
func (h *TimetableHandler) Entities(c *gin.Context) {
	result, err := h.service.Entities(c.Request.Context(), c.Param("id"), c.Query("mode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// View godoc
// @Summary Projected weekly grid for one entity
// @Tags Views
// @Produce json
// @Param id path string true "Session ID"
// @Param mode path string true "MASTER, TEACHER, CLASSROOM or LAB"
// @Param entity query string true "Division, teacher or room"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/views/{mode} [get]
func (h *TimetableHandler) View(c *gin.Context) {
	result, hit, err := h.service.View(c.Request.Context(), c.Param("id"), c.Param("mode"), c.Query("entity"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	middleware.SetSessionVersion(c, result.Version)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// Cell godoc
// @Summary Projection of a single day and slot
// @Tags Views
// @Produce json
// @Param id path string true "Session ID"
// @Param mode query string true "View mode"
// @Param entity query string true "Entity"
// @Param day query string true "Day"
// @Param slot query int true "Backend slot index"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/cell [get]
func (h *TimetableHandler) Cell(c *gin.Context) {
	var query dto.CellQuery
	if !bindQuery(c, &query, "cell") {
		return
	}
	result, err := h.service.Cell(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// FreeRooms godoc
// @Summary Rooms unused at a day and slot
// @Tags Views
// @Produce json
// @Param id path string true "Session ID"
// @Param day query string true "Day"
// @Param slot query int true "Backend slot index"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/rooms/free [get]
func (h *TimetableHandler) FreeRooms(c *gin.Context) {
	var query dto.FreeRoomsQuery
	if !bindQuery(c, &query, "free rooms") {
		return
	}
	result, err := h.service.FreeRooms(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AddEntry godoc
// @Summary Place an entry manually
// @Tags Edits
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.AddEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/entries [post]
func (h *TimetableHandler) AddEntry(c *gin.Context) {
	var req dto.AddEntryRequest
	if !bindJSON(c, &req, "entry") {
		return
	}
	result, err := h.service.AddEntry(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetSessionVersion(c, result.Version)
	response.JSON(c, http.StatusCreated, result, nil, middleware.ExtractMeta(c))
}

// DeleteEntry godoc
// @Summary Remove the entry covering a slot
// @Tags Edits
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.DeleteEntryRequest true "Location payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/entries [delete]
func (h *TimetableHandler) DeleteEntry(c *gin.Context) {
	var req dto.DeleteEntryRequest
	if !bindJSON(c, &req, "delete") {
		return
	}
	result, err := h.service.DeleteEntry(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetSessionVersion(c, result.Version)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// Audit godoc
// @Summary Edit history, newest first
// @Tags Edits
// @Produce json
// @Param id path string true "Session ID"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/audit [get]
func (h *TimetableHandler) Audit(c *gin.Context) {
	var query dto.AuditQuery
	if !bindQuery(c, &query, "audit") {
		return
	}
	entries, pagination, err := h.service.Audit(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Revert godoc
// @Summary Undo a logged edit
// @Tags Edits
// @Produce json
// @Param id path string true "Session ID"
// @Param entryId path string true "Audit log entry ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /sessions/{id}/audit/{entryId}/revert [post]
func (h *TimetableHandler) Revert(c *gin.Context) {
	result, err := h.service.Revert(c.Request.Context(), c.Param("id"), c.Param("entryId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetSessionVersion(c, result.Version)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}
