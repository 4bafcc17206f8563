package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"fieldquote/quotesync/internal/domain/session"
)

func TestSession(t *testing.T) {
	var got session.Session
	h := Session("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = session.FromContext(r.Context())
	}))

	for _, tc := range []struct {
		name   string
		auth   string
		owner  string
		status int
	}{
		{name: "missing token", owner: "u1", status: http.StatusUnauthorized},
		{name: "not bearer", auth: "Basic abc", owner: "u1", status: http.StatusUnauthorized},
		{name: "missing owner", auth: "Bearer jwt", status: http.StatusUnauthorized},
		{name: "ok", auth: "Bearer jwt", owner: "u1", status: http.StatusOK},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/quotes", nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			if tc.owner != "" {
				req.Header.Set("X-Owner-Id", tc.owner)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
	assert.Equal(t, session.Session{OwnerID: "u1", AccessToken: "jwt"}, got)
}

func TestSession_APIToken(t *testing.T) {
	h := Session("local-secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, tc := range []struct {
		auth   string
		status int
	}{
		{auth: "Bearer someone-elses-jwt", status: http.StatusUnauthorized},
		{auth: "Bearer local-secret", status: http.StatusOK},
	} {
		req := httptest.NewRequest(http.MethodGet, "/v1/quotes", nil)
		req.Header.Set("Authorization", tc.auth)
		req.Header.Set("X-Owner-Id", "u2")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, tc.auth)
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS("https://app.example")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/quotes", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called)
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "http", entry.LoggerName)
	assert.Equal(t, int64(http.StatusTeapot), entry.ContextMap()["status"])
	assert.Equal(t, "/health", entry.ContextMap()["path"])
}
