package gateway

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/infrastructure/gateway/breaker"
)

type stubTokenService struct{}

func (s *stubTokenService) GenerateAccessToken(claims outbound.TokenClaims) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubTokenService) ValidateAccessToken(token string) (*outbound.TokenClaims, error) {
	if token != "good-token" {
		return nil, errors.New("invalid token")
	}
	return &outbound.TokenClaims{
		UserID:   "u1",
		TenantID: "t1",
		Role:     "student",
	}, nil
}

func testLogger() *logrus.Logger {
	logg := logrus.New()
	logg.SetOutput(io.Discard)
	return logg
}

func newTestGateway(t *testing.T, upstreams []Upstream) (http.Handler, *breaker.Registry) {
	t.Helper()
	registry := breaker.NewRegistry(breaker.DefaultThreshold, breaker.DefaultResetTimeout)
	gw := New(registry, &stubTokenService{}, testLogger(), "test", time.Second)
	handler, err := gw.Handler(upstreams)
	require.NoError(t, err)
	return handler, registry
}

func TestGatewayProxiesPublicAuthPath(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	handler, _ := newTestGateway(t, []Upstream{{Name: "auth", Prefix: "auth", Target: upstream.URL}})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/login", gotPath, "the public prefix must be stripped before forwarding")
}

func TestGatewayRejectsMissingToken(t *testing.T) {
	var hits int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
	}))
	defer upstream.Close()

	handler, _ := newTestGateway(t, []Upstream{{Name: "audit", Prefix: "audit", Target: upstream.URL}})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audit/failed-logins", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.EqualValues(t, 0, hits, "an unauthenticated request must never reach the upstream")
}

func TestGatewayForwardsVerifiedIdentity(t *testing.T) {
	var userID, tenantID, role string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = r.Header.Get("X-User-ID")
		tenantID = r.Header.Get("X-Tenant-ID")
		role = r.Header.Get("X-User-Role")
	}))
	defer upstream.Close()

	handler, _ := newTestGateway(t, []Upstream{{Name: "audit", Prefix: "audit", Target: upstream.URL}})

	req := httptest.NewRequest(http.MethodGet, "/api/audit/t1/logs", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "t1", tenantID)
	assert.Equal(t, "student", role)
}

func TestGatewayShortCircuitsOpenBreaker(t *testing.T) {
	var hits int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
	}))
	defer upstream.Close()

	handler, registry := newTestGateway(t, []Upstream{{Name: "audit", Prefix: "audit", Target: upstream.URL}})

	for i := 0; i < breaker.DefaultThreshold; i++ {
		registry.ReportFailure("audit")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit/failed-logins", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.EqualValues(t, 0, hits, "an open breaker must fail fast without touching the upstream")
}

func TestGatewayRecordsUpstreamFailures(t *testing.T) {
	// Nothing listens here, so every forward fails at the transport.
	handler, registry := newTestGateway(t, []Upstream{{Name: "auth", Prefix: "auth", Target: "http://127.0.0.1:1"}})

	for i := 0; i < breaker.DefaultThreshold; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	}

	assert.True(t, registry.Get("auth").IsOpen(), "repeated transport failures must open the breaker")
}

func TestGatewaySuccessClosesFailureWindow(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	handler, registry := newTestGateway(t, []Upstream{{Name: "auth", Prefix: "auth", Target: upstream.URL}})

	for i := 0; i < breaker.DefaultThreshold-1; i++ {
		registry.ReportFailure("auth")
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// The success above cleared the stale failures.
	registry.ReportFailure("auth")
	assert.False(t, registry.Get("auth").IsOpen())
}

func TestGatewayUnknownRoute(t *testing.T) {
	handler, _ := newTestGateway(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
