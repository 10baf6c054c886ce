package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/timetable"
	"github.com/noah-isme/timetable-api/internal/workload"
)

// Session is one wizard workspace: configuration, the edited schedule and
// the workload allocation. All fields behind mu.
type Session struct {
	ID         string
	Department string
	CreatedAt  time.Time

	mu         sync.Mutex
	lastAccess time.Time
	version    int64
	timing     models.TimingConfig
	grid       timetable.Grid
	classes    []models.ClassConfig
	curriculum models.Curriculum
	faculty    []models.Faculty
	infra      models.Infrastructure
	editor     *timetable.Editor
	allocation *workload.Allocation
	stats      *models.SolverStats
}

func (s *Session) facultyIDs() []string {
	ids := make([]string, 0, len(s.faculty))
	for _, f := range s.faculty {
		ids = append(ids, f.ID)
	}
	return ids
}

func (s *Session) bump() int64 {
	s.version++
	return s.version
}

var (
	errSessionMissing = errors.New("session not found")
	// errSessionStale means this call found the session idle past its TTL
	// and removed it.
	errSessionStale = errors.New("session expired")
)

// sessionStore is a TTL registry of sessions. Access slides the expiry.
type sessionStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]*Session
}

func newSessionStore(ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &sessionStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]*Session),
	}
}

func (s *sessionStore) Save(session *Session) {
	session.lastAccess = s.now()
	s.mu.Lock()
	s.items[session.ID] = session
	s.mu.Unlock()
}

// Acquire returns the session locked. The caller must Unlock it.
func (s *sessionStore) Acquire(id string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errSessionMissing
	}
	session.mu.Lock()
	if s.now().Sub(session.lastAccess) > s.ttl {
		session.mu.Unlock()
		if s.Delete(id) {
			return nil, errSessionStale
		}
		return nil, errSessionMissing
	}
	session.lastAccess = s.now()
	return session, nil
}

func (s *sessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	return true
}

func (s *sessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Sweep drops expired sessions and returns their ids.
func (s *sessionStore) Sweep() []string {
	s.mu.RLock()
	candidates := make([]*Session, 0, len(s.items))
	for _, session := range s.items {
		candidates = append(candidates, session)
	}
	s.mu.RUnlock()

	var expired []string
	for _, session := range candidates {
		session.mu.Lock()
		stale := s.now().Sub(session.lastAccess) > s.ttl
		session.mu.Unlock()
		if stale && s.Delete(session.ID) {
			expired = append(expired, session.ID)
		}
	}
	return expired
}

// StartJanitor sweeps on an interval until ctx is cancelled. onExpire runs
// for every dropped session.
func (s *sessionStore) StartJanitor(ctx context.Context, interval time.Duration, logger *zap.Logger, onExpire func(id string)) {
	if interval <= 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				expired := s.Sweep()
				for _, id := range expired {
					if onExpire != nil {
						onExpire(id)
					}
				}
				if len(expired) > 0 {
					logger.Info("expired sessions swept", zap.Int("count", len(expired)), zap.Int("remaining", s.Len()))
				}
			}
		}
	}()
}
