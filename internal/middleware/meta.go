package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// VersionHeader carries the session version a response was built from.
	VersionHeader = "X-Session-Version"

	metaContextKey    = "timetable_meta"
	startedContextKey = "timetable_started"
	versionContextKey = "session_version"

	versionMetaKey = "version"
	cacheHitKey    = "cache_hit"
	elapsedMetaKey = "processing_time_ms"
)

// WithResponseMeta prepares the per-request meta block that view and edit
// responses carry in their envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(startedContextKey, time.Now())
		c.Set(metaContextKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit marks whether a projected view came from the view cache.
func SetCacheHit(c *gin.Context, hit bool) {
	if c == nil {
		return
	}
	ensureMeta(c)[cacheHitKey] = hit
}

// SetSessionVersion tags the response with the session version. Call it
// before the body is written.
func SetSessionVersion(c *gin.Context, version int64) {
	if c == nil {
		return
	}
	c.Writer.Header().Set(VersionHeader, strconv.FormatInt(version, 10))
	c.Set(versionContextKey, version)
	ensureMeta(c)[versionMetaKey] = version
}

// SessionVersion returns the version recorded for the current request.
func SessionVersion(c *gin.Context) (int64, bool) {
	if c == nil {
		return 0, false
	}
	version, ok := c.Value(versionContextKey).(int64)
	return version, ok
}

// ExtractMeta returns the meta block for the envelope, stamped with the time
// spent so far. Nil when nothing was recorded.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta, ok := c.Value(metaContextKey).(map[string]interface{})
	if !ok || len(meta) == 0 {
		return nil
	}
	if started, ok := c.Value(startedContextKey).(time.Time); ok {
		meta[elapsedMetaKey] = time.Since(started).Milliseconds()
	}
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta, ok := c.Value(metaContextKey).(map[string]interface{}); ok {
		return meta
	}
	meta := map[string]interface{}{}
	c.Set(metaContextKey, meta)
	return meta
}
