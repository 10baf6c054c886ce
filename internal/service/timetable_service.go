package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

const (
	defaultAuditPageSize = 20
	maxAuditPageSize     = 100

	assignedTeacher = "Assigned"
	departmentRoom  = "Dept"
)

// TimetableService exposes the schedule of a session: loading, projection
// and manual edits.
type TimetableService struct {
	sessions *SessionService
	cache    *CacheService
	metrics  *MetricsService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewTimetableService constructs the timetable service.
func NewTimetableService(sessions *SessionService, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{sessions: sessions, cache: cache, metrics: metrics, validate: validate, logger: logger}
}

// Load replaces the schedule with a solver result. The payload is rejected
// as a whole when any entry is malformed or overlaps another.
func (s *TimetableService) Load(_ context.Context, id string, req dto.LoadTimetableRequest) (*dto.TimetableResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	session, err := s.sessions.acquire(id)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()

	if err := session.editor.Load(req.Timetable); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedPayload.Code, appErrors.ErrMalformedPayload.Status, err.Error())
	}
	stats := req.Stats()
	session.stats = &stats
	session.bump()
	s.logger.Info("timetable loaded",
		zap.String("session_id", id),
		zap.Int("entries", session.editor.Store().Count()),
		zap.Int("unplaced", stats.UnplacedLectures),
	)
	return &dto.TimetableResponse{Version: session.version, Stats: session.stats, Timetable: session.editor.Store().Snapshot()}, nil
}

// Snapshot returns the schedule in the solver's shape.
func (s *TimetableService) Snapshot(_ context.Context, id string) (*dto.TimetableResponse, error) {
	session, err := s.sessions.acquire(id)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()
	return &dto.TimetableResponse{Version: session.version, Stats: session.stats, Timetable: session.editor.Store().Snapshot()}, nil
}

// Entities lists the selectable entities of a view mode.
func (s *TimetableService) Entities(_ context.Context, id, rawMode string) (*dto.EntitiesResponse, error) {
	mode, err := timetable.ParseViewMode(rawMode)
	if err != nil {
		return nil, domainError(err, "")
	}
	session, err := s.sessions.acquire(id)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()
	entities := timetable.Entities(mode, session.editor.Store(), session.faculty, session.infra)
	if entities == nil {
		entities = []string{}
	}
	return &dto.EntitiesResponse{Mode: mode, Entities: entities}, nil
}

// View projects the whole grid for one entity. The boolean reports a cache hit.
func (s *TimetableService) View(ctx context.Context, id, rawMode, entity string) (*dto.ViewResponse, bool, error) {
	mode, err := timetable.ParseViewMode(rawMode)
	if err != nil {
		return nil, false, domainError(err, "")
	}
	if strings.TrimSpace(entity) == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "entity is required")
	}
	session, err := s.sessions.acquire(id)
	if err != nil {
		return nil, false, err
	}
	defer session.mu.Unlock()
	if !session.grid.Configured() {
		return nil, false, appErrors.ErrNotConfigured
	}

	var cached dto.ViewResponse
	if s.cache.LookupView(ctx, id, session.version, mode, entity, &cached) {
		return &cached, true, nil
	}

	var infra *models.Infrastructure
	if mode == timetable.ViewMaster {
		infra = &session.infra
	}
	resp := &dto.ViewResponse{
		Version: session.version,
		View:    timetable.BuildView(session.editor.Store(), session.grid, mode, entity, infra),
	}
	s.cache.StoreView(ctx, id, session.version, mode, entity, resp)
	return resp, false, nil
}

// Cell resolves one (day, slot) for an entity.
func (s *TimetableService) Cell(_ context.Context, id string, query dto.CellQuery) (*dto.CellResponse, error) {
	if err := s.validate.Struct(query); err != nil {
		return nil, validationError(err)
	}
	mode, err := timetable.ParseViewMode(query.Mode)
	if err != nil {
		return nil, domainError(err, "")
	}
	session, err := s.sessions.acquire(id)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()
	cell, ok := timetable.Resolve(session.editor.Store(), mode, query.Entity, query.Day, query.Slot)
	if !ok {
		return &dto.CellResponse{Found: false}, nil
	}
	return &dto.CellResponse{Found: true, Cell: &cell}, nil
}

// FreeRooms lists the catalog rooms unused at (day, slot) across all divisions.
func (s *TimetableService) FreeRooms(_ context.Context, id string, query dto.FreeRoomsQuery) (*timetable.RoomAvailability, error) {
	if err := s.validate.Struct(query); err != nil {
		return nil, validationError(err)
	}
	session, err := s.sessions.acquire(id)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()
	free := timetable.FreeRooms(session.editor.Store(), session.infra, query.Day, query.Slot)
	return &free, nil
}

// AddEntry places a manual entry. Blank teacher and room fields take the
// dialog defaults for the entry type.
func (s *TimetableService) AddEntry(_ context.Context, id string, req dto.AddEntryRequest) (*dto.EditResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	entry, err := entryFromRequest(req)
	if err != nil {
		return nil, domainError(err, "")
	}
	session, err := s.sessions.acquire(id)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()
	if err := checkPlacement(session.grid, req.Day, entry); err != nil {
		return nil, err
	}

	rec, err := session.editor.Add(req.Division, req.Day, entry)
	s.metrics.RecordEdit(string(timetable.ActionAdd), err)
	if err != nil {
		return nil, domainError(err, "failed to add entry")
	}
	version := session.bump()
	s.logger.Info("entry added", zap.String("session_id", id), zap.String("log_id", rec.ID), zap.String("details", rec.Details))
	return &dto.EditResponse{Version: version, LogEntry: rec}, nil
}

// DeleteEntry removes the entry covering a slot.
func (s *TimetableService) DeleteEntry(_ context.Context, id string, req dto.DeleteEntryRequest) (*dto.EditResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	session, err := s.sessions.acquire(id)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()

	rec, err := session.editor.Delete(req.Division, req.Day, req.Slot)
	s.metrics.RecordEdit(string(timetable.ActionDelete), err)
	if err != nil {
		return nil, domainError(err, "failed to delete entry")
	}
	version := session.bump()
	s.logger.Info("entry deleted", zap.String("session_id", id), zap.String("log_id", rec.ID), zap.String("details", rec.Details))
	return &dto.EditResponse{Version: version, LogEntry: rec}, nil
}

// Audit pages through the edit log, newest first.
func (s *TimetableService) Audit(_ context.Context, id string, query dto.AuditQuery) ([]dto.AuditEntry, *models.Pagination, error) {
	page := query.Page
	if page <= 0 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 {
		size = defaultAuditPageSize
	}
	if size > maxAuditPageSize {
		size = maxAuditPageSize
	}
	session, err := s.sessions.acquire(id)
	if err != nil {
		return nil, nil, err
	}
	log := session.editor.Log()
	session.mu.Unlock()

	start := (page - 1) * size
	if start > len(log) {
		start = len(log)
	}
	end := start + size
	if end > len(log) {
		end = len(log)
	}
	out := make([]dto.AuditEntry, 0, end-start)
	for _, rec := range log[start:end] {
		out = append(out, dto.AuditEntry{
			ID:            rec.ID,
			Timestamp:     rec.Timestamp,
			Action:        rec.Action,
			Details:       rec.Details,
			OriginalEntry: rec.OriginalEntry,
			SlotInfo:      rec.SlotInfo,
		})
	}
	return out, &models.Pagination{Page: page, PageSize: size, TotalCount: len(log)}, nil
}

// Revert undoes one logged edit.
func (s *TimetableService) Revert(_ context.Context, id, logID string) (*dto.EditResponse, error) {
	session, err := s.sessions.acquire(id)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()

	rec, err := session.editor.Revert(logID)
	s.metrics.RecordRevert(err)
	if err != nil {
		return nil, domainError(err, "failed to revert edit")
	}
	version := session.bump()
	s.logger.Info("edit reverted", zap.String("session_id", id), zap.String("log_id", rec.ID), zap.String("action", string(rec.Action)))
	return &dto.EditResponse{Version: version, LogEntry: rec}, nil
}

func entryFromRequest(req dto.AddEntryRequest) (timetable.Entry, error) {
	typ, err := timetable.ParseEntryType(req.Type)
	if err != nil {
		return timetable.Entry{}, err
	}
	teacherDefault, roomDefault := timetable.Placeholder, timetable.Placeholder
	if typ == timetable.TypeProject || typ == timetable.TypeRemedial {
		teacherDefault, roomDefault = assignedTeacher, departmentRoom
	}

	entry := timetable.Entry{
		Slot:     req.Slot,
		Duration: req.Duration,
		Type:     typ,
		Subject:  strings.TrimSpace(req.Subject),
		Teacher:  orDefault(req.Teacher, teacherDefault),
		Room:     orDefault(req.Room, roomDefault),
	}

	switch typ.Kind() {
	case timetable.KindSplit:
		groups := make([]timetable.Group, 0, len(req.Groups))
		for _, g := range req.Groups {
			groups = append(groups, timetable.Group{
				Subject: strings.TrimSpace(g.Subject),
				Teacher: orDefault(g.Teacher, teacherDefault),
				Room:    orDefault(g.Room, roomDefault),
			})
		}
		if len(groups) == 0 {
			if groups, err = timetable.SplitGroups(entry.Subject, entry.Teacher, entry.Room); err != nil {
				return timetable.Entry{}, err
			}
		}
		entry = timetable.NewSplitEntry(req.Slot, req.Duration, groups)
	case timetable.KindBatched:
		for _, b := range req.Batches {
			entry.Batches = append(entry.Batches, timetable.Batch{
				Batch:   strings.TrimSpace(b.Batch),
				Subject: orDefault(b.Subject, entry.Subject),
				Teacher: orDefault(b.Teacher, teacherDefault),
				Room:    orDefault(b.Room, roomDefault),
			})
		}
	}
	if err := entry.Validate(); err != nil {
		return timetable.Entry{}, err
	}
	return entry, nil
}

// checkPlacement keeps manual entries on teaching slots of a working day.
func checkPlacement(grid timetable.Grid, day string, entry timetable.Entry) error {
	if !grid.Configured() {
		return nil
	}
	known := false
	for _, d := range grid.Days {
		if d == day {
			known = true
			break
		}
	}
	if !known {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is not a working day", day))
	}
	if _, ok := grid.VisualIndex(entry.Slot); !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("slot %d is not a teaching slot", entry.Slot))
	}
	if last := grid.Slots[len(grid.Slots)-1].BackendIndex; entry.End()-1 > last {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("entry runs past the last slot %d", last))
	}
	return nil
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
