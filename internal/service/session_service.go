package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/timetable"
	"github.com/noah-isme/timetable-api/internal/workload"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type rosterSource interface {
	ListFaculty(ctx context.Context) ([]models.Faculty, error)
	Infrastructure(ctx context.Context) (models.Infrastructure, error)
}

// SessionServiceConfig governs workspace lifetime.
type SessionServiceConfig struct {
	TTL             time.Duration
	JanitorInterval time.Duration
	AuditLogLimit   int
}

// SessionService owns the registry of wizard workspaces.
type SessionService struct {
	store    *sessionStore
	roster   rosterSource
	cache    *CacheService
	metrics  *MetricsService
	validate *validator.Validate
	logger   *zap.Logger
	cfg      SessionServiceConfig
	newID    func() string
	onDrop   []func(ctx context.Context, id string)
}

// NewSessionService constructs the session service. roster may be nil.
func NewSessionService(roster rosterSource, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg SessionServiceConfig) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AuditLogLimit <= 0 {
		cfg.AuditLogLimit = timetable.DefaultLogLimit
	}
	return &SessionService{
		store:    newSessionStore(cfg.TTL),
		roster:   roster,
		cache:    cache,
		metrics:  metrics,
		validate: validate,
		logger:   logger,
		cfg:      cfg,
		newID:    uuid.NewString,
	}
}

// Create opens a workspace from wizard data. Missing faculty or rooms are
// filled from the roster when one is configured.
func (s *SessionService) Create(ctx context.Context, req dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	timing := models.DefaultTiming()
	if req.Timing != nil {
		timing = *req.Timing
	}
	grid, err := timetable.BuildGrid(timing)
	if err != nil {
		return nil, domainError(err, "failed to build time grid")
	}

	faculty := req.Faculty
	var infra models.Infrastructure
	if req.Infrastructure != nil {
		infra = *req.Infrastructure
	}
	if s.rosterEnabled() {
		if len(faculty) == 0 {
			if faculty, err = s.roster.ListFaculty(ctx); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty roster")
			}
		}
		if req.Infrastructure == nil {
			if infra, err = s.roster.Infrastructure(ctx); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room roster")
			}
		}
	}

	session := &Session{
		ID:         s.newID(),
		Department: req.Department,
		CreatedAt:  time.Now().UTC(),
		timing:     timing,
		grid:       grid,
		classes:    req.Classes,
		curriculum: req.Curriculum,
		faculty:    faculty,
		infra:      infra,
		editor:     timetable.NewEditor(timetable.NewStore(), s.cfg.AuditLogLimit),
	}
	session.allocation = workload.NewAllocation(session.facultyIDs())
	s.store.Save(session)
	s.metrics.SetActiveSessions(s.store.Len())
	s.logger.Info("session created", zap.String("session_id", session.ID), zap.Int("faculty", len(faculty)), zap.Int("classes", len(req.Classes)))

	return s.summary(session), nil
}

// Get returns a workspace summary.
func (s *SessionService) Get(_ context.Context, id string) (*dto.SessionResponse, error) {
	session, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()
	return s.summary(session), nil
}

// Delete drops a workspace and its cached views.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if !s.store.Delete(id) {
		return appErrors.ErrSessionExpired
	}
	s.forget(ctx, id)
	return nil
}

// UpdateTiming replaces the bell schedule and rebuilds the grid. Entries keep
// their backend indices.
func (s *SessionService) UpdateTiming(_ context.Context, id string, req dto.UpdateTimingRequest) (*dto.GridResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	grid, err := timetable.BuildGrid(req.Timing())
	if err != nil {
		return nil, domainError(err, "failed to build time grid")
	}
	session, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()
	session.timing = req.Timing()
	session.grid = grid
	session.bump()
	return &dto.GridResponse{Configured: grid.Configured(), Grid: grid, Timing: session.timing}, nil
}

// Grid returns the derived slot layout.
func (s *SessionService) Grid(_ context.Context, id string) (*dto.GridResponse, error) {
	session, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()
	return &dto.GridResponse{Configured: session.grid.Configured(), Grid: session.grid, Timing: session.timing}, nil
}

// StartJanitor evicts idle workspaces until ctx is cancelled.
func (s *SessionService) StartJanitor(ctx context.Context) {
	s.store.StartJanitor(ctx, s.cfg.JanitorInterval, s.logger, func(id string) {
		s.forget(ctx, id)
	})
}

// OnDrop registers fn to run after a session is deleted or expires.
// Register before serving requests.
func (s *SessionService) OnDrop(fn func(ctx context.Context, id string)) {
	s.onDrop = append(s.onDrop, fn)
}

func (s *SessionService) forget(ctx context.Context, id string) {
	s.metrics.SetActiveSessions(s.store.Len())
	_ = s.cache.ForgetSession(ctx, id)
	for _, fn := range s.onDrop {
		fn(ctx, id)
	}
}

func (s *SessionService) rosterEnabled() bool {
	if s.roster == nil {
		return false
	}
	if r, ok := s.roster.(interface{ Enabled() bool }); ok {
		return r.Enabled()
	}
	return true
}

// acquire returns the session locked or ErrSessionExpired. A session found
// idle past its TTL is dropped here exactly as the janitor would drop it.
func (s *SessionService) acquire(id string) (*Session, error) {
	session, err := s.store.Acquire(id)
	if err != nil {
		if errors.Is(err, errSessionStale) {
			s.logger.Info("session expired on access", zap.String("session_id", id))
			s.forget(context.Background(), id)
		}
		return nil, appErrors.ErrSessionExpired
	}
	return session, nil
}

func (s *SessionService) summary(session *Session) *dto.SessionResponse {
	store := session.editor.Store()
	return &dto.SessionResponse{
		ID:             session.ID,
		Department:     session.Department,
		Version:        session.version,
		Timing:         session.timing,
		Classes:        session.classes,
		Faculty:        session.faculty,
		Infrastructure: session.infra,
		Divisions:      store.Divisions(),
		EntryCount:     store.Count(),
		AuditCount:     len(session.editor.Log()),
		Stats:          session.stats,
		CreatedAt:      session.CreatedAt,
		ExpiresAt:      session.lastAccess.Add(s.store.ttl).UTC(),
	}
}
