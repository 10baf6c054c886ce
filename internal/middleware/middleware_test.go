package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/service"
)

func TestSetSessionVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}

	recorder := httptest.NewRecorder()
	router := gin.New()
	router.Use(WithResponseMeta())
	router.GET("/", func(c *gin.Context) {
		SetSessionVersion(c, 7)
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusNoContent)
	})
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if got := recorder.Header().Get(VersionHeader); got != "7" {
		t.Fatalf("unexpected version header: %s", got)
	}
	if meta[versionMetaKey] != int64(7) || meta[cacheHitKey] != true {
		t.Fatalf("unexpected meta: %v", meta)
	}
	if _, ok := meta[elapsedMetaKey]; !ok {
		t.Fatalf("expected processing time in meta: %v", meta)
	}
}

func TestExtractMetaEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if meta := ExtractMeta(c); meta != nil {
		t.Fatalf("expected nil meta, got %v", meta)
	}
}

func TestSessionVersionExtraction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if _, ok := SessionVersion(c); ok {
		t.Fatalf("expected no version before it is set")
	}
	SetSessionVersion(c, 3)
	version, ok := SessionVersion(c)
	if !ok || version != 3 {
		t.Fatalf("unexpected version: %d %v", version, ok)
	}
}

func TestMetricsMiddlewareLabelsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()

	router := gin.New()
	router.Use(Metrics(metrics))
	router.GET("/sessions/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sessions/abc", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := metrics.Snapshot().RequestsTotal; got != 2 {
		t.Fatalf("unexpected request count: %d", got)
	}
}
