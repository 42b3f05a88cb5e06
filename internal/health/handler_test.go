// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthy() Checker {
	return pingFunc(func(context.Context) error { return nil })
}

func failing() Checker {
	return pingFunc(func(context.Context) error { return errors.New("down") })
}

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLiveness(t *testing.T) {
	h := NewHandler("1.2.3")

	rec := serve(h, "/livez")
	require.Equal(t, http.StatusOK, rec.Code)

	var body StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "1.2.3", body.Version)

	h.SetShutdown(true)
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, "/healthz").Code)
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		deps       []Dependency
		wantStatus int
		wantBody   string
	}{
		{
			name: "all healthy",
			deps: []Dependency{
				{Name: "database", Checker: healthy()},
				{Name: "redis", Checker: healthy()},
			},
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name: "optional redis down",
			deps: []Dependency{
				{Name: "database", Checker: healthy()},
				{Name: "redis", Checker: failing(), Optional: true},
			},
			wantStatus: http.StatusOK,
			wantBody:   "degraded",
		},
		{
			name: "database down",
			deps: []Dependency{
				{Name: "database", Checker: failing()},
				{Name: "redis", Checker: healthy(), Optional: true},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unavailable",
		},
		{
			name:       "missing checker",
			deps:       []Dependency{{Name: "database"}},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(NewHandler("test", tt.deps...), "/readyz")
			require.Equal(t, tt.wantStatus, rec.Code)

			var body ReadinessResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body.Status)
			assert.Len(t, body.Checks, len(tt.deps))
		})
	}
}

func TestReadinessNotReady(t *testing.T) {
	h := NewHandler("test")
	h.SetReady(false)

	assert.Equal(t, http.StatusServiceUnavailable, serve(h, "/readyz").Code)
}
