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

type workloadManager interface {
	Get(ctx context.Context, id string) (*dto.WorkloadResponse, error)
	Options(ctx context.Context, id string) (*dto.WorkloadOptionsResponse, error)
	AutoAssign(ctx context.Context, id string) (*dto.WorkloadResponse, error)
	SetPreference(ctx context.Context, id string, req dto.SetPreferenceRequest) (*dto.WorkloadResponse, error)
	Clear(ctx context.Context, id string) (*dto.WorkloadResponse, error)
	Allocations(ctx context.Context, id string) (*dto.AllocationsResponse, error)
	Rehydrate(ctx context.Context, id string, req dto.AllocationsRequest) (*dto.WorkloadResponse, error)
}

// WorkloadHandler exposes faculty allocation endpoints.
type WorkloadHandler struct {
	service workloadManager
}

// NewWorkloadHandler constructs the handler.
func NewWorkloadHandler(svc *service.WorkloadService) *WorkloadHandler {
	return &WorkloadHandler{service: svc}
}

// Get godoc
// @Summary Current allocation and unassigned theory options
// @Tags Workload
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/workload [get]
func (h *WorkloadHandler) Get(c *gin.Context) {
	h.respond(c, http.StatusOK)(h.service.Get(c.Request.Context(), c.Param("id")))
}

// Options godoc
// @Summary Assignable theory and lab options
// @Tags Workload
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/workload/options [get]
func (h *WorkloadHandler) Options(c *gin.Context) {
	options, err := h.service.Options(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, nil)
}

// AutoAssign godoc
// @Summary Distribute options round-robin across faculty
// @Description Capped at 5 theory and 3 lab options per faculty member. Replaces the current allocation.
// @Tags Workload
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/workload/auto-assign [post]
func (h *WorkloadHandler) AutoAssign(c *gin.Context) {
	h.respond(c, http.StatusOK)(h.service.AutoAssign(c.Request.Context(), c.Param("id")))
}

// SetPreference godoc
// @Summary Fill or clear one priority slot
// @Tags Workload
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SetPreferenceRequest true "Preference payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/workload/preferences [put]
func (h *WorkloadHandler) SetPreference(c *gin.Context) {
	var req dto.SetPreferenceRequest
	if !bindJSON(c, &req, "preference") {
		return
	}
	h.respond(c, http.StatusOK)(h.service.SetPreference(c.Request.Context(), c.Param("id"), req))
}

// Clear godoc
// @Summary Reset every priority slot
// @Tags Workload
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/workload [delete]
func (h *WorkloadHandler) Clear(c *gin.Context) {
	h.respond(c, http.StatusOK)(h.service.Clear(c.Request.Context(), c.Param("id")))
}

// Allocations godoc
// @Summary Solver-facing subject allocation records
// @Tags Workload
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/workload/allocations [get]
func (h *WorkloadHandler) Allocations(c *gin.Context) {
	records, err := h.service.Allocations(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetSessionVersion(c, records.Version)
	response.JSON(c, http.StatusOK, records, nil, middleware.ExtractMeta(c))
}

// Rehydrate godoc
// @Summary Rebuild the allocation from synchronized records
// @Tags Workload
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.AllocationsRequest true "Allocation records"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/workload/allocations [put]
func (h *WorkloadHandler) Rehydrate(c *gin.Context) {
	var req dto.AllocationsRequest
	if !bindJSON(c, &req, "allocations") {
		return
	}
	h.respond(c, http.StatusOK)(h.service.Rehydrate(c.Request.Context(), c.Param("id"), req))
}

func (h *WorkloadHandler) respond(c *gin.Context, status int) func(*dto.WorkloadResponse, error) {
	return func(state *dto.WorkloadResponse, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		middleware.SetSessionVersion(c, state.Version)
		response.JSON(c, status, state, nil, middleware.ExtractMeta(c))
	}
}
