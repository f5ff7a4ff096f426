package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/interfaces/http/routes"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
)

type checker struct{ err error }

func (c checker) Health(context.Context) error { return c.err }

func newTestServer(t *testing.T, checks map[string]HealthChecker) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		App:    config.AppConfig{Version: "1.2.3", Environment: "test"},
		Server: config.ServerConfig{Port: "0", RequestTimeout: time.Second, MaxBodyBytes: 1 << 20},
		JWT:    config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", AccessTokenExpiry: time.Minute},
	}
	registry := prometheus.NewRegistry()

	s, err := NewServer(cfg, Deps{
		Log:      logger.Discard(),
		Handlers: &routes.Handlers{},
		Tokens:   auth.NewJWTManager(cfg.JWT, "storefront"),
		Metrics:  metrics.New(registry),
		Gatherer: registry,
		Checks:   checks,
	})
	require.NoError(t, err)
	return s
}

func TestHealthReportsEachDependency(t *testing.T) {
	s := newTestServer(t, map[string]HealthChecker{
		"database": checker{},
		"redis":    checker{err: errors.New("dial tcp: refused")},
	})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, map[string]string{"database": "healthy", "redis": "unhealthy"}, body.Checks)
}

func TestReadyMetricsAndProtectedRoutes(t *testing.T) {
	s := newTestServer(t, map[string]HealthChecker{"database": checker{}})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/api/v1/cart",status="401"} 1`)
}
