package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/timetable"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/sessions/:id", http.StatusOK, 20*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordEdit("ADD", nil)
	m.RecordEdit("ADD", errors.New("occupied"))
	m.RecordRevert(nil)
	m.RecordExport("csv", "MASTER", nil)
	m.SetActiveSessions(3)

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.RequestsTotal)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.0001)
	assert.Equal(t, uint64(1), snap.EditsTotal)
	assert.Equal(t, uint64(1), snap.RevertsTotal)
	assert.Equal(t, uint64(1), snap.ExportsTotal)
	assert.Equal(t, int64(3), snap.ActiveSessions)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.edits.WithLabelValues("ADD", "error")))
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.RecordDistribution(4, 2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `workload_options_distributed_total{kind="theory"} 4`)
	assert.Contains(t, rec.Body.String(), "timetable_sessions_active")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordEdit("ADD", nil)
	m.SetActiveSessions(1)
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), false)
	ctx := context.Background()

	svc.StoreView(ctx, "s1", 1, timetable.ViewTeacher, "Prof A", "v")
	var out string
	assert.False(t, svc.LookupView(ctx, "s1", 1, timetable.ViewTeacher, "Prof A", &out))
	require.NoError(t, svc.ForgetSession(ctx, "s1"))
	assert.Empty(t, repo.items)
	assert.Empty(t, repo.deleted)
}

func TestCacheServiceViewsAreVersioned(t *testing.T) {
	repo := newMemoryCacheRepo()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, nil, true)
	ctx := context.Background()

	svc.StoreView(ctx, "s1", 2, timetable.ViewLab, "Lab 1", map[string]int{"a": 1})
	var out map[string]int
	assert.True(t, svc.LookupView(ctx, "s1", 2, timetable.ViewLab, "Lab 1", &out))
	assert.Equal(t, 1, out["a"])
	assert.False(t, svc.LookupView(ctx, "s1", 3, timetable.ViewLab, "Lab 1", &out))

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)

	require.NoError(t, svc.ForgetSession(ctx, "s1"))
	assert.Equal(t, []string{"timetable:views:s1:*"}, repo.deleted)
}

func TestViewKeyEscapesSeparators(t *testing.T) {
	assert.Equal(t, "timetable:views:s1:4:CLASSROOM:SE_A", ViewKey("s1", 4, timetable.ViewClassroom, "SE:A"))
	assert.Equal(t, "timetable:views:s1:4:MASTER:-", ViewKey("s1", 4, timetable.ViewMaster, " "))
}
