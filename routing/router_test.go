package routing_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/go-spring/routing"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func do(t *testing.T, router *routing.Router, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// ── Routes ───────────────────────────────────────────────────────────────────

func TestRouter_Get(t *testing.T) {
	r := routing.New(nil)
	r.Get("/hello", okHandler)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/hello").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, r, http.MethodPost, "/hello").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/not-registered").Code)
}

func TestRouter_Param(t *testing.T) {
	r := routing.New(nil)
	r.Get("/beans/{name}", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(routing.Param(req, "name")))
	})

	rr := do(t, r, http.MethodGet, "/beans/productService")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "productService", rr.Body.String())
}

func TestRouter_Prefix(t *testing.T) {
	r := routing.New(nil)
	r.Prefix("/actuator", func(a *routing.Router) {
		a.Get("/health", okHandler)
	})

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/actuator/health").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/health").Code)
}

func TestRouter_Mount(t *testing.T) {
	r := routing.New(nil)
	r.Mount("/metrics", http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/metrics").Code)
}

func TestRouter_Group_Middleware(t *testing.T) {
	called := false
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			next.ServeHTTP(w, r)
		})
	}

	r := routing.New(nil)
	r.Group(func(g *routing.Router) {
		g.Middleware(mw)
		g.Get("/protected", okHandler)
	})
	r.Get("/open", okHandler)

	do(t, r, http.MethodGet, "/open")
	assert.False(t, called)
	do(t, r, http.MethodGet, "/protected")
	assert.True(t, called)
}

func TestRouter_RecoversPanics(t *testing.T) {
	r := routing.New(nil)
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	assert.Equal(t, http.StatusInternalServerError, do(t, r, http.MethodGet, "/boom").Code)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := routing.New(zap.New(core))
	r.Get("/hello", okHandler)

	do(t, r, http.MethodGet, "/hello")

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/hello", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestRouter_HandlerInterface(t *testing.T) {
	r := routing.New(nil)
	var _ http.Handler = r.Handler()
}
