package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/workload"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

// WorkloadService manages the per-session faculty allocation.
type WorkloadService struct {
	sessions *SessionService
	metrics  *MetricsService
	validate *validator.Validate
	logger   *zap.Logger

	distMu      sync.Mutex
	distributor *workload.Distributor
}

// NewWorkloadService constructs the workload service. A nil distributor
// selects a time-seeded one.
func NewWorkloadService(sessions *SessionService, distributor *workload.Distributor, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *WorkloadService {
	if distributor == nil {
		distributor = workload.NewDistributor(nil)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkloadService{sessions: sessions, distributor: distributor, metrics: metrics, validate: validate, logger: logger}
}

// Options lists what can be assigned from the session's classes and curriculum.
func (s *WorkloadService) Options(_ context.Context, id string) (*dto.WorkloadOptionsResponse, error) {
	session, err := s.sessions.acquire(id)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()
	theory, lab := workload.BuildOptions(session.classes, session.curriculum)
	return &dto.WorkloadOptionsResponse{Theory: nonNilOptions(theory), Lab: nonNilOptions(lab)}, nil
}

// Get returns the allocation and the theory options nobody holds.
func (s *WorkloadService) Get(_ context.Context, id string) (*dto.WorkloadResponse, error) {
	session, err := s.sessions.acquire(id)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()
	return s.state(session), nil
}

// AutoAssign replaces the allocation with a fresh round-robin distribution.
func (s *WorkloadService) AutoAssign(_ context.Context, id string) (*dto.WorkloadResponse, error) {
	session, err := s.sessions.acquire(id)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()

	theory, lab := workload.BuildOptions(session.classes, session.curriculum)
	s.distMu.Lock()
	alloc := s.distributor.Distribute(theory, lab, session.facultyIDs())
	s.distMu.Unlock()
	session.allocation = alloc
	session.bump()

	placedTheory, placedLab := 0, 0
	for key := range alloc.Assigned() {
		if key.Kind == workload.KindLab {
			placedLab++
		} else {
			placedTheory++
		}
	}
	s.metrics.RecordDistribution(placedTheory, placedLab)
	s.logger.Info("workload distributed",
		zap.String("session_id", id),
		zap.Int("theory_options", len(theory)),
		zap.Int("lab_options", len(lab)),
		zap.Int("theory_placed", placedTheory),
		zap.Int("lab_placed", placedLab),
	)
	return s.state(session), nil
}

// SetPreference fills or clears one priority slot of a faculty member.
func (s *WorkloadService) SetPreference(_ context.Context, id string, req dto.SetPreferenceRequest) (*dto.WorkloadResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	kind, err := workload.ParseKind(req.Kind)
	if err != nil {
		return nil, domainError(err, "")
	}
	var key workload.OptionKey
	if err := key.UnmarshalText([]byte(req.Value)); err != nil {
		return nil, domainError(err, "")
	}

	session, err := s.sessions.acquire(id)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()

	if !hasFaculty(session, req.FacultyID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("faculty %s not found", req.FacultyID))
	}
	if !key.IsZero() && !offered(session, key) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is not an assignable option", key))
	}
	if err := session.allocation.Set(req.FacultyID, kind, req.Index, key); err != nil {
		return nil, domainError(err, "failed to set preference")
	}
	session.bump()
	return s.state(session), nil
}

// Clear empties every faculty member's lists.
func (s *WorkloadService) Clear(_ context.Context, id string) (*dto.WorkloadResponse, error) {
	session, err := s.sessions.acquire(id)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()
	session.allocation.Clear(session.facultyIDs())
	session.bump()
	return s.state(session), nil
}

// Allocations flattens the lists into solver-facing subject records.
func (s *WorkloadService) Allocations(_ context.Context, id string) (*dto.AllocationsResponse, error) {
	session, err := s.sessions.acquire(id)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()
	records := session.allocation.Synchronize()
	if records == nil {
		records = []models.SubjectAllocation{}
	}
	return &dto.AllocationsResponse{Version: session.version, Allocations: records}, nil
}

// Rehydrate rebuilds the lists from subject records.
func (s *WorkloadService) Rehydrate(_ context.Context, id string, req dto.AllocationsRequest) (*dto.WorkloadResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	session, err := s.sessions.acquire(id)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()
	session.allocation = workload.Rehydrate(req.Allocations, session.facultyIDs())
	session.bump()
	return s.state(session), nil
}

func (s *WorkloadService) state(session *Session) *dto.WorkloadResponse {
	theory, _ := workload.BuildOptions(session.classes, session.curriculum)
	missing := make([]string, 0)
	for _, opt := range session.allocation.Missing(theory) {
		missing = append(missing, opt.Label)
	}
	return &dto.WorkloadResponse{
		Version:     session.version,
		Preferences: session.allocation.Snapshot(),
		Missing:     missing,
	}
}

func hasFaculty(session *Session, facultyID string) bool {
	for _, f := range session.faculty {
		if f.ID == facultyID {
			return true
		}
	}
	return false
}

func offered(session *Session, key workload.OptionKey) bool {
	theory, lab := workload.BuildOptions(session.classes, session.curriculum)
	pool := theory
	if key.Kind == workload.KindLab {
		pool = lab
	}
	for _, opt := range pool {
		if opt.Key == key {
			return true
		}
	}
	return false
}

func nonNilOptions(opts []workload.Option) []workload.Option {
	if opts == nil {
		return []workload.Option{}
	}
	return opts
}
