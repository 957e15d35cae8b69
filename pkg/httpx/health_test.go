package httpx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ghuser/itemsapi/pkg/httpx"
)

type stubChecker struct{ err error }

func (s *stubChecker) Ping(_ context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	down := errors.New("conn refused")

	tests := []struct {
		name       string
		checks     httpx.HealthChecks
		wantStatus int
		want       map[string]string
	}{
		{
			name:       "all healthy",
			checks:     httpx.HealthChecks{Database: &stubChecker{}, Redis: &stubChecker{}, EventBus: &stubChecker{}},
			wantStatus: http.StatusOK,
			want:       map[string]string{"status": "ok", "database": "ok", "redis": "ok", "event_bus": "ok"},
		},
		{
			name:       "cache disabled stays healthy",
			checks:     httpx.HealthChecks{Database: &stubChecker{}, EventBus: &stubChecker{}},
			wantStatus: http.StatusOK,
			want:       map[string]string{"status": "ok", "redis": "disabled"},
		},
		{
			name:       "database down",
			checks:     httpx.HealthChecks{Database: &stubChecker{err: down}, Redis: &stubChecker{}, EventBus: &stubChecker{}},
			wantStatus: http.StatusServiceUnavailable,
			want:       map[string]string{"status": "unavailable", "database": "unreachable"},
		},
		{
			name:       "redis down degrades without failing",
			checks:     httpx.HealthChecks{Database: &stubChecker{}, Redis: &stubChecker{err: down}, EventBus: &stubChecker{}},
			wantStatus: http.StatusOK,
			want:       map[string]string{"status": "degraded", "redis": "unreachable"},
		},
		{
			name:       "event bus down",
			checks:     httpx.HealthChecks{Database: &stubChecker{}, Redis: &stubChecker{}, EventBus: &stubChecker{err: down}},
			wantStatus: http.StatusServiceUnavailable,
			want:       map[string]string{"status": "unavailable", "event_bus": "unreachable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			httpx.HealthHandler(tt.checks).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
			var resp map[string]string
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			for k, v := range tt.want {
				if resp[k] != v {
					t.Errorf("%s: got %q, want %q", k, resp[k], v)
				}
			}
		})
	}
}
