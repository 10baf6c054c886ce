package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type exportRenderer interface {
	Render(ctx context.Context, sessionID string, query dto.ExportQuery) (*service.RenderedExport, error)
}

type exportJobManager interface {
	CreateJob(ctx context.Context, sessionID string, query dto.ExportQuery) (*dto.ExportJobResponse, error)
	GetStatus(ctx context.Context, id string) (*dto.ExportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// ExportHandler exposes synchronous and background export endpoints.
type ExportHandler struct {
	exporter exportRenderer
	jobs     exportJobManager
}

// NewExportHandler constructs the handler.
func NewExportHandler(exporter *service.ExportService, jobs *service.ExportJobService) *ExportHandler {
	return &ExportHandler{exporter: exporter, jobs: jobs}
}

// Export godoc
// @Summary Render a view as a file
// @Tags Exports
// @Produce octet-stream
// @Param id path string true "Session ID"
// @Param mode query string true "MASTER, TEACHER, CLASSROOM or LAB"
// @Param entity query string true "Entity"
// @Param format query string false "csv, pdf, xlsx or ics"
// @Param weekStart query string false "Calendar start (YYYY-MM-DD), ics only"
// @Param weeks query int false "Recurrence count, ics only"
// @Success 200 {file} file
// @Router /sessions/{id}/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if !bindQuery(c, &query, "export") {
		return
	}
	out, err := h.exporter.Render(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, out.Filename, out.ContentType, out.Data)
}

// CreateJob godoc
// @Summary Queue a background export
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.ExportQuery true "Export parameters"
// @Success 202 {object} response.Envelope
// @Router /sessions/{id}/exports [post]
func (h *ExportHandler) CreateJob(c *gin.Context) {
	var query dto.ExportQuery
	if !bindJSON(c, &query, "export") {
		return
	}
	job, err := h.jobs.CreateJob(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Status godoc
// @Summary Background export status
// @Tags Exports
// @Produce json
// @Param jobId path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{jobId} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	status, err := h.jobs.GetStatus(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a finished export through its signed link
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.jobs.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	var size int64 = -1
	if info, err := download.File.Stat(); err == nil {
		size = info.Size()
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Expires", download.ExpiresAt.UTC().Format(http.TimeFormat))
	c.DataFromReader(http.StatusOK, size, download.ContentType, io.Reader(download.File), map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", download.Filename),
	})
}
