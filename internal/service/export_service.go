package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/export"
	"github.com/noah-isme/timetable-api/pkg/storage"
)

const defaultExportWeeks = 15

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type xlsxRenderer interface {
	Render(data export.Dataset, sheet string) ([]byte, error)
}

type icsRenderer interface {
	Render(name string, events []export.CalendarEvent) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	Location  *time.Location
}

// RenderedExport is a view rendered in memory.
type RenderedExport struct {
	Filename    string
	ContentType string
	Format      models.ExportFormat
	Data        []byte
}

// ExportResult captures a stored export and its signed download link.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders timetable views into files. Storage and signer are
// only needed for background exports.
type ExportService struct {
	sessions *SessionService
	storage  fileStorage
	signer   *storage.SignedURLSigner
	csv      csvRenderer
	pdf      pdfRenderer
	xlsx     xlsxRenderer
	ics      icsRenderer
	metrics  *MetricsService
	validate *validator.Validate
	logger   *zap.Logger
	cfg      ExportConfig
	now      func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(sessions *SessionService, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, metrics *MetricsService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &ExportService{
		sessions: sessions,
		storage:  files,
		signer:   signer,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		xlsx:     export.NewXLSXExporter(),
		ics:      export.NewICSExporter(),
		metrics:  metrics,
		validate: validator.New(),
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Render produces one view of a session in the requested format.
func (s *ExportService) Render(_ context.Context, sessionID string, query dto.ExportQuery) (*RenderedExport, error) {
	params, err := s.normalize(query)
	if err != nil {
		return nil, err
	}
	out, err := s.render(sessionID, params)
	s.metrics.RecordExport(string(params.Format), params.Mode, err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("timetable exported",
		zap.String("session_id", sessionID),
		zap.String("mode", params.Mode),
		zap.String("entity", params.Entity),
		zap.String("format", string(params.Format)),
		zap.Int("bytes", len(out.Data)),
	)
	return out, nil
}

// Generate renders a job's view, stores it and signs a download link.
func (s *ExportService) Generate(_ context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotConfigured, "export storage not configured")
	}
	out, err := s.render(job.SessionID, job.Params)
	s.metrics.RecordExport(string(job.Params.Format), job.Params.Mode, err)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(path.Join(sanitizeFilename(job.SessionID), job.ID+"_"+out.Filename), out.Data)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// Normalize validates an export request into job parameters.
func (s *ExportService) Normalize(query dto.ExportQuery) (models.ExportJobParams, error) {
	return s.normalize(query)
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	if s.signer == nil {
		return "", "", time.Time{}, storage.ErrInvalidToken
	}
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) normalize(query dto.ExportQuery) (models.ExportJobParams, error) {
	if err := s.validate.Struct(query); err != nil {
		return models.ExportJobParams{}, validationError(err)
	}
	mode, err := timetable.ParseViewMode(query.Mode)
	if err != nil {
		return models.ExportJobParams{}, domainError(err, "")
	}
	format := models.ExportFormat(strings.ToLower(string(query.Format)))
	if format == "" {
		format = models.ExportFormatCSV
	}
	if !format.Valid() {
		return models.ExportJobParams{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", query.Format))
	}
	return models.ExportJobParams{
		Mode:      string(mode),
		Entity:    strings.TrimSpace(query.Entity),
		Format:    format,
		WeekStart: query.WeekStart,
		Weeks:     query.Weeks,
	}, nil
}

// render snapshots the view under the session lock and encodes it outside.
func (s *ExportService) render(sessionID string, params models.ExportJobParams) (*RenderedExport, error) {
	mode, err := timetable.ParseViewMode(params.Mode)
	if err != nil {
		return nil, domainError(err, "")
	}
	weekStart, err := s.weekStart(params.WeekStart)
	if err != nil {
		return nil, err
	}
	weeks := params.Weeks
	if weeks <= 0 {
		weeks = defaultExportWeeks
	}

	session, err := s.sessions.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	if !session.grid.Configured() {
		session.mu.Unlock()
		return nil, appErrors.ErrNotConfigured
	}
	var (
		dataset export.Dataset
		events  []export.CalendarEvent
	)
	if params.Format == models.ExportFormatICS {
		events = timetable.BuildEvents(session.editor.Store(), session.grid, mode, params.Entity, session.faculty, weekStart, weeks, s.cfg.Location)
	} else {
		dataset = timetable.BuildTable(session.editor.Store(), session.grid, mode, params.Entity, session.faculty)
	}
	session.mu.Unlock()

	var payload []byte
	switch params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, dataset.Title)
	case models.ExportFormatXLSX:
		payload, err = s.xlsx.Render(dataset, string(mode))
	case models.ExportFormatICS:
		payload, err = s.ics.Render(fmt.Sprintf("Timetable %s %s", mode, params.Entity), events)
	default:
		err = fmt.Errorf("unsupported format %s", params.Format)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &RenderedExport{
		Filename:    exportFilename(mode, params.Entity, params.Format),
		ContentType: params.Format.ContentType(),
		Format:      params.Format,
		Data:        payload,
	}, nil
}

// weekStart parses YYYY-MM-DD or falls back to the Monday of the current week.
func (s *ExportService) weekStart(raw string) (time.Time, error) {
	if raw != "" {
		t, err := time.ParseInLocation("2006-01-02", raw, s.cfg.Location)
		if err != nil {
			return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "weekStart must be YYYY-MM-DD")
		}
		return t, nil
	}
	now := s.now().In(s.cfg.Location)
	offset := (int(now.Weekday()) + 6) % 7
	monday := now.AddDate(0, 0, -offset)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, s.cfg.Location), nil
}

func exportFilename(mode timetable.ViewMode, entity string, format models.ExportFormat) string {
	return fmt.Sprintf("Timetable_%s_%s.%s", mode, sanitizeFilename(entity), format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
