package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/timetable"
	"github.com/noah-isme/timetable-api/pkg/cache"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

const viewNamespace = "views"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService keeps projected views keyed by session, version, mode and
// entity. A bumped version makes older entries unreachable, so edits never
// need to purge. A disabled service is a no-op.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// ViewKey names the cache slot for one projection of one session version.
func ViewKey(sessionID string, version int64, mode timetable.ViewMode, entity string) string {
	return cache.Key(viewNamespace, sessionID, strconv.FormatInt(version, 10), string(mode), entity)
}

// LookupView loads a cached projection into dest and reports a hit. Backend
// failures count as misses.
func (s *CacheService) LookupView(ctx context.Context, sessionID string, version int64, mode timetable.ViewMode, entity string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	key := ViewKey(sessionID, version, mode, entity)
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("view cache read failed", zap.String("key", key), zap.Error(err))
	}
	return err == nil
}

// StoreView caches a projection for the given session version.
func (s *CacheService) StoreView(ctx context.Context, sessionID string, version int64, mode timetable.ViewMode, entity string, view interface{}) {
	if !s.Enabled() {
		return
	}
	key := ViewKey(sessionID, version, mode, entity)
	start := time.Now()
	err := s.repo.Set(ctx, key, view, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("view cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// ForgetSession drops every cached projection of a session, whatever its version.
func (s *CacheService) ForgetSession(ctx context.Context, sessionID string) error {
	if !s.Enabled() {
		return nil
	}
	pattern := cache.Pattern(viewNamespace, sessionID)
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("view cache purge failed", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}
	return nil
}
