package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finlens/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf, Level: slog.LevelDebug, Format: "json"})
	m := NewMiddleware(func(*http.Request) string { return "1.2.3.4" }, logger)

	var seenID string
	var seenLogger *log.Logger
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		seenLogger = log.FromContext(r.Context())
		w.WriteHeader(http.StatusInternalServerError)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/budgets?x=1", nil))

	if !strings.HasPrefix(seenID, "req_") {
		t.Fatalf("request id = %q", seenID)
	}
	if rec.Header().Get(HeaderRequestID) != seenID {
		t.Errorf("response header = %q, want %q", rec.Header().Get(HeaderRequestID), seenID)
	}
	if seenLogger == nil || seenLogger.Component() != log.ComponentHTTP {
		t.Errorf("request logger not attached to context")
	}
	out := buf.String()
	if !strings.Contains(out, `"status_code":500`) || !strings.Contains(out, `"level":"ERROR"`) {
		t.Errorf("completion log missing status or level: %s", out)
	}
	if got := m.GetMetrics(); got.TotalRequests != 1 || got.ServerErrors != 1 {
		t.Errorf("metrics = %+v", got)
	}
}

func TestMiddlewareKeepsUpstreamID(t *testing.T) {
	m := NewMiddleware(nil, nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"valid upstream id", "abc-123", true},
		{"header injection", "bad id\nwith newline", false},
		{"too long", strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderRequestID, tt.incoming)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			got := rec.Header().Get(HeaderRequestID)
			if (got == tt.incoming) != tt.keep {
				t.Errorf("response id = %q (incoming %q, keep %v)", got, tt.incoming, tt.keep)
			}
		})
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
