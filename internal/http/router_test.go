package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/eventhub-auth/internal/auth"
	"github.com/redmonkez12/eventhub-auth/internal/config"
	"github.com/redmonkez12/eventhub-auth/internal/logging"
	"github.com/redmonkez12/eventhub-auth/internal/metrics"
	"github.com/redmonkez12/eventhub-auth/internal/token"
	"github.com/redmonkez12/eventhub-auth/internal/user"
)

type capturingDispatcher struct {
	last string
}

func (d *capturingDispatcher) Send(_ context.Context, _, tok string, _ token.Purpose) {
	d.last = tok
}

type routerEnv struct {
	handler    http.Handler
	dispatcher *capturingDispatcher
}

func newRouterEnv(t *testing.T, env string, checks map[string]HealthCheck) *routerEnv {
	t.Helper()

	links, err := token.NewJWTCodec([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	sessions, err := token.NewPasetoCodec([]byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	dispatcher := &capturingDispatcher{}
	svc := auth.NewService(
		user.NewMemoryDirectory(),
		auth.NewArgon2Hasher(auth.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}),
		links,
		sessions,
		dispatcher,
		metrics.New(reg),
		logging.Discard(),
		auth.Config{
			SessionTokenDuration:      time.Hour,
			VerificationTokenDuration: time.Hour,
			ResetTokenDuration:        time.Hour,
			MinPasswordLength:         3,
		},
	)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Env:            env,
			TrustedOrigins: []string{"https://app.example.com"},
		},
	}

	router := NewRouter(cfg, auth.NewHandler(svc, "https://app.example.com"), auth.NewMiddleware(svc), reg, checks, logging.Discard())
	return &routerEnv{handler: router, dispatcher: dispatcher}
}

func (e *routerEnv) do(t *testing.T, method, target string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	for k, v := range header {
		req.Header[k] = v
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	e := newRouterEnv(t, "prod", nil)

	rec := e.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRouter_HealthReportsFailingCheck(t *testing.T) {
	e := newRouterEnv(t, "prod", map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	rec := e.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, map[string]string{"database": "ok", "redis": "unavailable"}, resp.Checks)
}

func TestRouter_FullAccountFlow(t *testing.T) {
	e := newRouterEnv(t, "prod", nil)

	rec := e.do(t, http.MethodPost, "/auth/signup", auth.SignupBody{Email: "a@x.com", Password: "pw1"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = e.do(t, http.MethodGet, "/auth/verify?token="+url.QueryEscape(e.dispatcher.last), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/auth/login", auth.LoginRequest{Email: "a@x.com", Password: "pw1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tokens auth.AuthTokens
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokens))

	rec = e.do(t, http.MethodGet, "/auth/me", nil, http.Header{"Authorization": {"Bearer " + tokens.AccessToken}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	e := newRouterEnv(t, "prod", nil)

	e.do(t, http.MethodPost, "/auth/check-email", auth.EmailRequest{Email: "a@x.com"}, nil)

	rec := e.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `eventhub_auth_flows_total{flow="check_email",outcome="success"} 1`)
}

func TestRouter_SecurityHeaders(t *testing.T) {
	prod := newRouterEnv(t, "prod", nil)
	rec := prod.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Empty(t, rec.Header().Get("Cache-Control"))

	dev := newRouterEnv(t, "dev", nil)
	rec = dev.do(t, http.MethodGet, "/health", nil, nil)
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRouter_SwaggerOnlyInDevelopment(t *testing.T) {
	prod := newRouterEnv(t, "prod", nil)
	rec := prod.do(t, http.MethodGet, "/swagger/index.html", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	dev := newRouterEnv(t, "dev", nil)
	rec = dev.do(t, http.MethodGet, "/swagger/index.html", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	e := newRouterEnv(t, "prod", nil)

	rec := e.do(t, http.MethodOptions, "/auth/login", nil, http.Header{
		"Origin":                        {"https://app.example.com"},
		"Access-Control-Request-Method": {"POST"},
	})
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
