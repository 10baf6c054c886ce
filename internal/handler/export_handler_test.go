package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type exportServiceMock struct {
	rendered *service.RenderedExport
	err      error
	query    dto.ExportQuery
}

func (m *exportServiceMock) Render(ctx context.Context, sessionID string, query dto.ExportQuery) (*service.RenderedExport, error) {
	m.query = query
	return m.rendered, m.err
}

type exportJobServiceMock struct {
	createResp  *dto.ExportJobResponse
	statusResp  *dto.ExportStatusResponse
	download    *service.ExportDownload
	err         error
	createQuery dto.ExportQuery
}

func (m *exportJobServiceMock) CreateJob(ctx context.Context, sessionID string, query dto.ExportQuery) (*dto.ExportJobResponse, error) {
	m.createQuery = query
	return m.createResp, m.err
}

func (m *exportJobServiceMock) GetStatus(ctx context.Context, id string) (*dto.ExportStatusResponse, error) {
	return m.statusResp, m.err
}

func (m *exportJobServiceMock) ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error) {
	return m.download, m.err
}

func TestExportHandlerExportStreamsAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &exportServiceMock{rendered: &service.RenderedExport{
		Filename:    "Timetable_MASTER_SE-A.csv",
		ContentType: "text/csv; charset=utf-8",
		Format:      models.ExportFormatCSV,
		Data:        []byte(`"Day"`),
	}}
	handler := &ExportHandler{exporter: exporter, jobs: &exportJobServiceMock{}}

	c, w := newGinContext(http.MethodGet, "/sessions/s1/export?mode=MASTER&entity=SE-A&format=csv", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="Timetable_MASTER_SE-A.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, `"Day"`, w.Body.String())
	assert.Equal(t, models.ExportFormatCSV, exporter.query.Format)
}

func TestExportHandlerExportPropagatesErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ExportHandler{exporter: &exportServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "unsupported format")}}

	c, w := newGinContext(http.MethodGet, "/sessions/s1/export?mode=MASTER&entity=SE-A&format=docx", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.Export(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportHandlerCreateJob(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jobs := &exportJobServiceMock{createResp: &dto.ExportJobResponse{ID: "job-1", Status: models.ExportStatusQueued}}
	handler := &ExportHandler{jobs: jobs}

	payload, _ := json.Marshal(dto.ExportQuery{Mode: "TEACHER", Entity: "Prof A", Format: models.ExportFormatPDF})
	c, w := newGinContext(http.MethodPost, "/sessions/s1/exports", payload)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.CreateJob(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "Prof A", jobs.createQuery.Entity)
}

func TestExportHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jobs := &exportJobServiceMock{statusResp: &dto.ExportStatusResponse{ID: "job-1", Status: models.ExportStatusFinished, Progress: 100}}
	handler := &ExportHandler{jobs: jobs}

	c, w := newGinContext(http.MethodGet, "/exports/job-1", nil)
	c.Params = gin.Params{{Key: "jobId", Value: "job-1"}}
	handler.Status(c)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestExportHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	file, err := os.CreateTemp("", "timetable*.csv")
	require.NoError(t, err)
	defer os.Remove(file.Name())
	_, _ = file.WriteString("data")
	_, _ = file.Seek(0, 0)

	jobs := &exportJobServiceMock{download: &service.ExportDownload{
		File:        file,
		Filename:    "Timetable_MASTER_SE-A.csv",
		ContentType: "text/csv; charset=utf-8",
		ExpiresAt:   time.Now().Add(time.Hour),
	}}
	handler := &ExportHandler{jobs: jobs}

	c, w := newGinContext(http.MethodGet, "/exports/download/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}
	handler.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "data", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Timetable_MASTER_SE-A.csv")
}

func TestExportHandlerDownloadForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ExportHandler{jobs: &exportJobServiceMock{err: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")}}

	c, w := newGinContext(http.MethodGet, "/exports/download/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}
	handler.Download(c)

	require.Equal(t, http.StatusForbidden, w.Code)
}
