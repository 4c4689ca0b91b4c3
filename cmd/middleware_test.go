package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/siahsang/conduit/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	t.Run("malformed header", func(t *testing.T) {
		app, _ := newTestApplication(t)

		req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
		req.Header.Set("Authorization", "Bearer abc")
		w := httptest.NewRecorder()
		app.routes().ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		app, _ := newTestApplication(t)

		w := doRequest(t, app, http.MethodGet, "/api/user", "not.a.jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("user no longer exists", func(t *testing.T) {
		app, mock := newTestApplication(t)
		userID := uuid.New()
		token, err := app.auth.IssueToken(userID, time.Now())
		require.NoError(t, err)
		mock.ExpectQuery("WHERE id = ").WithArgs(userID.String()).WillReturnRows(userRows())

		w := doRequest(t, app, http.MethodGet, "/api/user", token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		app, _ := newTestApplication(t)
		token, err := app.auth.IssueToken(uuid.New(), time.Now().Add(-2*time.Hour))
		require.NoError(t, err)

		w := doRequest(t, app, http.MethodGet, "/api/user", token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("exhausted bucket answers 429", func(t *testing.T) {
		app, _ := newTestApplication(t)
		app.limiter = ratelimit.New(0.001, 1)

		w := doRequest(t, app, http.MethodGet, "/api/articles/not-a-uuid", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doRequest(t, app, http.MethodGet, "/api/articles/not-a-uuid", "", nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("forwarded header from an untrusted peer is ignored", func(t *testing.T) {
		app, _ := newTestApplication(t)
		app.limiter = ratelimit.New(0.001, 1)

		limited := 0
		for i := range 100 {
			req := httptest.NewRequest(http.MethodGet, "/api/articles/not-a-uuid", nil)
			req.RemoteAddr = "192.0.2.1:1234"
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
			w := httptest.NewRecorder()
			app.routes().ServeHTTP(w, req)
			if w.Code == http.StatusTooManyRequests {
				limited++
			}
		}

		assert.Equal(t, 99, limited)
		assert.Equal(t, 1, app.limiter.Len())
	})

	t.Run("rejects before the token is looked up", func(t *testing.T) {
		app, mock := newTestApplication(t)
		app.limiter = ratelimit.New(0.001, 1)
		jake := newTestUser(t, app, "jake", "jakejake")
		token := login(t, app, mock, jake)

		w := doRequest(t, app, http.MethodGet, "/api/user", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		// No second user lookup is expected; reaching the database would fail with 500.
		w = doRequest(t, app, http.MethodGet, "/api/user", token, nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClientIP(t *testing.T) {
	trusted := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("127.0.0.1/32"),
	}

	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{name: "peer address", remoteAddr: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "spoofed header from untrusted peer", remoteAddr: "192.0.2.1:1234", forwarded: "203.0.113.7", want: "192.0.2.1"},
		{name: "trusted proxy without header", remoteAddr: "10.0.0.5:80", want: "10.0.0.5"},
		{name: "trusted proxy", remoteAddr: "10.0.0.5:80", forwarded: "203.0.113.7", want: "203.0.113.7"},
		{name: "client prepends a fake hop", remoteAddr: "10.0.0.5:80", forwarded: "198.51.100.1, 203.0.113.7", want: "203.0.113.7"},
		{name: "chain of trusted proxies", remoteAddr: "127.0.0.1:80", forwarded: "203.0.113.7, 10.1.1.1", want: "203.0.113.7"},
		{name: "garbage hop stops the walk", remoteAddr: "10.0.0.5:80", forwarded: "203.0.113.7, nonsense", want: "10.0.0.5"},
		{name: "ipv6 peer", remoteAddr: "[2001:db8::1]:443", forwarded: "203.0.113.7", want: "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, clientIP(req, trusted))
		})
	}

	t.Run("no trusted proxies configured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.5:80"
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		assert.Equal(t, "10.0.0.5", clientIP(req, nil))
	})
}

func TestRecoverPanic(t *testing.T) {
	app, _ := newTestApplication(t)

	handler := app.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "close", w.Header().Get("Connection"))
}

func TestUnknownRoutes(t *testing.T) {
	app, _ := newTestApplication(t)

	assert.Equal(t, http.StatusNotFound, doRequest(t, app, http.MethodGet, "/api/nothing-here", "", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, doRequest(t, app, http.MethodPatch, "/api/tags", "", nil).Code)
}

func TestHealthcheck(t *testing.T) {
	app, _ := newTestApplication(t)

	w := doRequest(t, app, http.MethodGet, "/api/healthcheck", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status": "available"`)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Run("counts by route", func(t *testing.T) {
		app, mock := newTestApplication(t)
		mock.ExpectQuery("FROM tags").WillReturnRows(sqlmock.NewRows([]string{"name"}))

		doRequest(t, app, http.MethodGet, "/api/tags", "", nil)

		w := doRequest(t, app, http.MethodGet, "/metrics", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `conduit_http_requests_total{method="GET",route="/api/tags",status="200"} 1`)
	})

	t.Run("feed has its own route label", func(t *testing.T) {
		app, _ := newTestApplication(t)

		w := doRequest(t, app, http.MethodGet, "/api/articles/feed", "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)

		w = doRequest(t, app, http.MethodGet, "/metrics", "", nil)
		assert.Contains(t, w.Body.String(), `conduit_http_requests_total{method="GET",route="/api/articles/feed",status="401"} 1`)
		assert.NotContains(t, w.Body.String(), `route="/api/articles/:id"`)
	})

	t.Run("panics are counted as 500", func(t *testing.T) {
		app, _ := newTestApplication(t)
		handler := app.routeHandler("/api/boom", func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/boom", nil))
		require.Equal(t, http.StatusInternalServerError, w.Code)

		w = doRequest(t, app, http.MethodGet, "/metrics", "", nil)
		assert.Contains(t, w.Body.String(), `conduit_http_requests_total{method="GET",route="/api/boom",status="500"} 1`)
	})
}

func TestRequestID(t *testing.T) {
	app, _ := newTestApplication(t)

	w := doRequest(t, app, http.MethodGet, "/api/healthcheck", "", nil)
	generated := w.Header().Get("X-Request-ID")
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/healthcheck", nil)
	req.Header.Set("X-Request-ID", "trace-42")
	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)
	assert.Equal(t, "trace-42", rec.Header().Get("X-Request-ID"))
}
