package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("%q: expected %v, got %v (%v)", in, want, got, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentBudget, Output: &buf})
	l.With(FieldBudgetID, 7).Info("Budget updated")
	l.WithComponent(ComponentCache).Debug("hit")

	out := buf.String()
	if !strings.Contains(out, "component=budget") || !strings.Contains(out, "budget_id=7") {
		t.Fatalf("missing fields in %q", out)
	}
	if !strings.Contains(out, "component=cache") {
		t.Fatalf("missing component override in %q", out)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Output: &buf})

	var seen string
	h := Middleware(logger)(RequestIDMiddleware()(AccessLog(func(*http.Request) string { return "10.0.0.1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
			FromContext(r.Context()).InfoContext(r.Context(), "handling")
			w.WriteHeader(http.StatusNotFound)
		}),
	)))

	req := httptest.NewRequest(http.MethodGet, "/api/expenses/9", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("request id not propagated: %q / %q", seen, rec.Header().Get(RequestIDHeader))
	}
	out := buf.String()
	if !strings.Contains(out, "request_id=abc-123") || !strings.Contains(out, "status_code=404") || !strings.Contains(out, "level=WARN") {
		t.Fatalf("unexpected log output %q", out)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(rec.Header().Get(RequestIDHeader)) != 36 {
		t.Fatalf("expected generated uuid, got %q", rec.Header().Get(RequestIDHeader))
	}
}

func TestFromContextDefault(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("expected fallback logger")
	}
}
