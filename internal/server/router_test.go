package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hachiran/ramensite/internal/auth"
	"github.com/hachiran/ramensite/internal/config"
	"github.com/hachiran/ramensite/internal/hero"
	"github.com/hachiran/ramensite/internal/image"
	"github.com/hachiran/ramensite/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

func testDeps(t *testing.T) Dependencies {
	t.Helper()
	gin.SetMode(gin.TestMode)

	authService, err := auth.NewService(config.AuthConfig{
		AdminPassword:     "StrongPass1!",
		AccessTokenSecret: "secret",
		AccessTokenTTL:    time.Minute,
		BcryptCost:        4,
	})
	require.NoError(t, err)

	heroHandler, err := hero.NewHandler(hero.DefaultContent())
	require.NoError(t, err)

	return Dependencies{
		Config: config.Config{
			Server:  config.ServerConfig{AllowedOrigins: []string{"http://admin.local"}},
			Metrics: config.MetricsConfig{PrometheusPath: "/metrics"},
		},
		DB:          stubPinger{},
		ObjectStore: stubPinger{},
		AuthService: authService,
		Tracker:     image.NewTracker(config.UploadConfig{}),
		Hero:        heroHandler,
	}
}

func TestLiveness(t *testing.T) {
	router := NewRouter(testDeps(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(logger.CorrelationIDHeader))
}

func TestReadinessReportsFailingComponent(t *testing.T) {
	deps := testDeps(t)
	deps.ObjectStore = stubPinger{err: errors.New("bucket unreachable")}
	router := NewRouter(deps)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "object_store", body["component"])
}

func TestReadinessOK(t *testing.T) {
	router := NewRouter(testDeps(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHeroServedAtRoot(t *testing.T) {
	router := NewRouter(testDeps(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Hachiran Ramen")
}

func TestLoginIsPublic(t *testing.T) {
	router := NewRouter(testDeps(t))

	body, _ := json.Marshal(map[string]string{"password": "StrongPass1!"})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := NewRouter(testDeps(t))

	req := httptest.NewRequest(http.MethodOptions, "/v1/auth/login", nil)
	req.Header.Set("Origin", "http://admin.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, "http://admin.local", rr.Header().Get("Access-Control-Allow-Origin"))
}
