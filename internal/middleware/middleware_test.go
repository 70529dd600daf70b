package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"med-reminder/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireToken(t *testing.T) {
	h := RequireToken("s3cret", "/health", "/swagger/")(okHandler())

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{name: "missing token", path: "/medications", want: http.StatusUnauthorized},
		{name: "wrong token", path: "/medications", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "not bearer", path: "/medications", header: "Basic s3cret", want: http.StatusUnauthorized},
		{name: "valid token", path: "/medications", header: "Bearer s3cret", want: http.StatusOK},
		{name: "case-insensitive scheme", path: "/alarm", header: "bearer s3cret", want: http.StatusOK},
		{name: "exempt exact", path: "/health", want: http.StatusOK},
		{name: "exempt prefix", path: "/swagger/index.html", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestRequireToken_DevModeWithoutToken(t *testing.T) {
	h := RequireToken("")(okHandler())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/medications", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", rr.Code)
	}
}

func TestRequestLogger_LogsServerErrors(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: logger.Info, Format: logger.FormatJSON, Output: &buf})

	h := chimw.RequestID(RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/alarm/acknowledge", nil))

	out := buf.String()
	for _, want := range []string{`"status":500`, `"path":"/alarm/acknowledge"`, `"request_id":`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line missing %s: %s", want, out)
		}
	}
}
