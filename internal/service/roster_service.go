package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type rosterReader interface {
	ListFaculty(ctx context.Context) ([]models.Faculty, error)
	ListRooms(ctx context.Context, kind models.RoomKind) ([]models.Room, error)
	Infrastructure(ctx context.Context) (models.Infrastructure, error)
}

// RosterService reads department faculty and rooms from PostgreSQL. It also
// serves as the session roster fallback.
type RosterService struct {
	repo    rosterReader
	metrics *MetricsService
	logger  *zap.Logger
}

// NewRosterService constructs the roster service. A nil repo disables it.
func NewRosterService(repo rosterReader, metrics *MetricsService, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{repo: repo, metrics: metrics, logger: logger}
}

// Enabled reports whether a roster database is wired.
func (s *RosterService) Enabled() bool {
	return s != nil && s.repo != nil
}

// ListFaculty returns every faculty member.
func (s *RosterService) ListFaculty(ctx context.Context) ([]models.Faculty, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrNotConfigured, "roster database disabled")
	}
	start := time.Now()
	faculty, err := s.repo.ListFaculty(ctx)
	s.metrics.ObserveDBQuery("roster_faculty", time.Since(start))
	if err != nil {
		s.logger.Error("failed to list faculty", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	if faculty == nil {
		faculty = []models.Faculty{}
	}
	return faculty, nil
}

// ListRooms returns rooms of one kind, or all rooms for an empty kind.
func (s *RosterService) ListRooms(ctx context.Context, rawKind string) ([]models.Room, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrNotConfigured, "roster database disabled")
	}
	kind := models.RoomKind(strings.ToUpper(strings.TrimSpace(rawKind)))
	switch kind {
	case "", models.RoomKindTheory, models.RoomKindLab:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "kind must be THEORY or LAB")
	}
	start := time.Now()
	rooms, err := s.repo.ListRooms(ctx, kind)
	s.metrics.ObserveDBQuery("roster_rooms", time.Since(start))
	if err != nil {
		s.logger.Error("failed to list rooms", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	return rooms, nil
}

// Infrastructure returns the room catalogs in display order.
func (s *RosterService) Infrastructure(ctx context.Context) (models.Infrastructure, error) {
	if !s.Enabled() {
		return models.Infrastructure{}, appErrors.Clone(appErrors.ErrNotConfigured, "roster database disabled")
	}
	start := time.Now()
	infra, err := s.repo.Infrastructure(ctx)
	s.metrics.ObserveDBQuery("roster_infrastructure", time.Since(start))
	if err != nil {
		s.logger.Error("failed to load room catalogs", zap.Error(err))
		return models.Infrastructure{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room catalogs")
	}
	return infra, nil
}
