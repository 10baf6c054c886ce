package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

func wizardRequest() dto.CreateSessionRequest {
	return dto.CreateSessionRequest{
		Department: "Computer Engineering",
		Classes:    []models.ClassConfig{{Name: "SE", Selected: true, Divisions: 2}, {Name: "TE", Selected: false, Divisions: 1}},
		Curriculum: models.Curriculum{
			TheorySubjects: []models.TheorySubject{
				{ID: "s1", Name: "DBMS", Year: "SE", WeeklyLoad: 3, Type: models.SubjectTypeTheory},
				{ID: "s2", Name: "OS", Year: "SE", WeeklyLoad: 3, Type: models.SubjectTypeTheory},
				{ID: "s3", Name: "ML", Year: "TE", WeeklyLoad: 3, Type: models.SubjectTypeTheory},
			},
			LabSubjects: []models.LabSubject{
				{ID: "l1", Name: "CN Lab", Year: "SE", BatchCount: 2, LabsPerWeek: 1},
			},
		},
		Faculty: []models.Faculty{
			{ID: "f1", Name: "Prof A", ShortCode: "PA"},
			{ID: "f2", Name: "Prof B", ShortCode: "PB"},
		},
		Infrastructure: &models.Infrastructure{
			TheoryRooms: []string{"701", "702"},
			LabRooms:    []string{"L1", "L2"},
		},
	}
}

type rosterStub struct {
	faculty []models.Faculty
	infra   models.Infrastructure
	err     error
}

func (r rosterStub) ListFaculty(ctx context.Context) ([]models.Faculty, error) {
	return r.faculty, r.err
}

func (r rosterStub) Infrastructure(ctx context.Context) (models.Infrastructure, error) {
	return r.infra, r.err
}

// memoryCacheRepo is a CacheRepository backed by a map of JSON payloads.
type memoryCacheRepo struct {
	mu      sync.Mutex
	items   map[string][]byte
	deleted []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, pattern)
	return nil
}

type testEnv struct {
	metrics   *MetricsService
	cacheRepo *memoryCacheRepo
	cache     *CacheService
	sessions  *SessionService
	timetable *TimetableService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	metrics := NewMetricsService()
	repo := newMemoryCacheRepo()
	cacheSvc := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)
	sessions := NewSessionService(nil, cacheSvc, metrics, nil, zap.NewNop(), SessionServiceConfig{TTL: time.Hour})
	seq := 0
	sessions.newID = func() string {
		seq++
		return fmt.Sprintf("session-%d", seq)
	}
	return &testEnv{
		metrics:   metrics,
		cacheRepo: repo,
		cache:     cacheSvc,
		sessions:  sessions,
		timetable: NewTimetableService(sessions, cacheSvc, metrics, nil, zap.NewNop()),
	}
}

func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	resp, err := e.sessions.Create(context.Background(), wizardRequest())
	require.NoError(t, err)
	return resp.ID
}

func requireAppError(t *testing.T, err error, want *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, want.Code, appErr.Code, "error: %v", err)
	require.Equal(t, want.Status, appErr.Status)
}
