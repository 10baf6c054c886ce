package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/storage"
)

func newExportServiceForTest(t *testing.T) (*ExportService, *testEnv, string) {
	t.Helper()
	env := newTestEnv(t)
	id := env.createSession(t)
	loadSolverPayload(t, env, id)

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewExportService(env.sessions, files, signer, ExportConfig{APIPrefix: "/api/v1"}, env.metrics, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC) }
	return svc, env, id
}

func TestExportServiceRenderCSV(t *testing.T) {
	svc, env, id := newExportServiceForTest(t)

	out, err := svc.Render(context.Background(), id, dto.ExportQuery{Mode: "master", Entity: "SE-A"})
	require.NoError(t, err)
	assert.Equal(t, "Timetable_MASTER_SE-A.csv", out.Filename)
	assert.Equal(t, models.ExportFormatCSV, out.Format)
	assert.Equal(t, "text/csv; charset=utf-8", out.ContentType)

	lines := strings.Split(string(out.Data), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], `"Day","09:00 - 10:00 (Slot 1)"`))
	assert.Contains(t, lines[0], `"Recess"`)
	assert.True(t, strings.HasPrefix(lines[1], `"Mon","DBMS - PA (701)",""`))
	assert.Contains(t, lines[1], `"CN Lab - PB (L1) | CN Lab - PA (L2)"`)
	assert.Equal(t, uint64(1), env.metrics.Snapshot().ExportsTotal)
}

func TestExportServiceRenderFormats(t *testing.T) {
	svc, _, id := newExportServiceForTest(t)
	ctx := context.Background()

	pdf, err := svc.Render(ctx, id, dto.ExportQuery{Mode: "TEACHER", Entity: "Prof B", Format: "pdf"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf.Data, []byte("%PDF")))
	assert.Equal(t, "Timetable_TEACHER_Prof_B.pdf", pdf.Filename)

	xlsx, err := svc.Render(ctx, id, dto.ExportQuery{Mode: "CLASSROOM", Entity: "701", Format: "XLSX"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(xlsx.Data, []byte("PK")))

	ics, err := svc.Render(ctx, id, dto.ExportQuery{Mode: "MASTER", Entity: "SE-A", Format: "ics", Weeks: 4})
	require.NoError(t, err)
	body := string(ics.Data)
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "FREQ=WEEKLY;COUNT=4")
	assert.Contains(t, body, "DTSTART:20261012T090000Z")
}

func TestExportServiceRejectsBadQueries(t *testing.T) {
	svc, _, id := newExportServiceForTest(t)
	ctx := context.Background()

	_, err := svc.Render(ctx, id, dto.ExportQuery{Mode: "MASTER", Entity: "SE-A", Format: "docx"})
	requireAppError(t, err, appErrors.ErrValidation)
	_, err = svc.Render(ctx, id, dto.ExportQuery{Mode: "ROOMS", Entity: "SE-A"})
	requireAppError(t, err, appErrors.ErrValidation)
	_, err = svc.Render(ctx, id, dto.ExportQuery{Mode: "MASTER"})
	requireAppError(t, err, appErrors.ErrValidation)
	_, err = svc.Render(ctx, "missing", dto.ExportQuery{Mode: "MASTER", Entity: "SE-A"})
	requireAppError(t, err, appErrors.ErrSessionExpired)
}

func TestExportServiceGenerateStoresSignedFile(t *testing.T) {
	svc, _, id := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:        "job-1",
		SessionID: id,
		Params:    models.ExportJobParams{Mode: "MASTER", Entity: "SE-B", Format: models.ExportFormatCSV},
	}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, id+"/job-1_Timetable_MASTER_SE-B.csv", result.RelativePath)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/exports/download/"))
	assert.Equal(t, result.Token, extractToken(result.URL))

	jobID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, result.RelativePath, relPath)

	file, err := svc.Open(relPath)
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "AI - PB (702) | IoT - Prof C (703)")
}

func TestExportServiceGenerateRequiresStorage(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)
	svc := NewExportService(env.sessions, nil, nil, ExportConfig{}, nil, nil)

	_, err := svc.Generate(context.Background(), &models.ExportJob{ID: "job", SessionID: id, Params: models.ExportJobParams{Mode: "MASTER", Entity: "SE-A", Format: models.ExportFormatCSV}})
	requireAppError(t, err, appErrors.ErrNotConfigured)
}

func TestExportServiceWeekStartDefaultsToMonday(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t)

	start, err := svc.weekStart("")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC), start)

	start, err = svc.weekStart("2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, time.January, start.Month())

	_, err = svc.weekStart("05/01/2026")
	requireAppError(t, err, appErrors.ErrValidation)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "na", sanitizeFilename(""))
	assert.Equal(t, "Prof_A", sanitizeFilename("Prof A"))
	assert.Equal(t, "a-b-c", sanitizeFilename("a/b:c"))
}
