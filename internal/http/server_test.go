package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tasknest/internal/budget"
	"tasknest/internal/cache"
	"tasknest/internal/log"
	"tasknest/internal/services"
	"tasknest/internal/storage/memory"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, rateLimit int, health Pinger) *Server {
	t.Helper()
	store := memory.New()
	logger := log.New(log.Config{Output: io.Discard})
	budgets := services.NewBudgetService(store, nil, nil, cache.NewLRUCache[budget.Stats](8, time.Minute), logger)
	expenses := services.NewExpenseService(store, budgets, logger)
	if health == nil {
		health = store
	}
	srv := NewServer(":0", Deps{
		Budgets:            budgets,
		Expenses:           expenses,
		Health:             health,
		Logger:             logger,
		RateLimitPerMinute: rateLimit,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, 0, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(t, srv, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	down := newTestServer(t, 0, fakePinger{err: errors.New("database is locked")})
	if rr := do(t, down, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestBudgetEndpoints(t *testing.T) {
	srv := newTestServer(t, 0, nil)

	rr := do(t, srv, http.MethodGet, "/api/budgets/ann@example.com/2025-03", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get budget status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got := decode(t, rr); got["budgetID"] != float64(1) || got["month"] != "2025-03" {
		t.Fatalf("unexpected budget %v", got)
	}
	if rr.Header().Get(log.RequestIDHeader) == "" || rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing middleware headers %v", rr.Header())
	}

	rr = do(t, srv, http.MethodPut, "/api/budgets/1/addFunds?amount=1000", "")
	if rr.Code != http.StatusOK || decode(t, rr)["monthlyBudget"] != "1000" {
		t.Fatalf("add funds status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/api/budgets/1/distribution", "")
	if rr.Code != http.StatusOK || decode(t, rr)["custom"] != false {
		t.Fatalf("distribution status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodPut, "/api/budgets/1/distribution", `{"food": 60, "rent": 40}`)
	if rr.Code != http.StatusOK || decode(t, rr)["custom"] != true {
		t.Fatalf("set distribution status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodPost, "/api/expenses",
		`{"userEmail":"ann@example.com","description":"groceries","category":"food","amount":"700","purchaseDate":"2025-03-04"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create expense status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/api/budgets/1/overview", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("overview status=%d body=%s", rr.Code, rr.Body.String())
	}
	overview := decode(t, rr)
	if overspent, _ := overview["overspent"].([]any); len(overspent) != 1 {
		t.Fatalf("expected one overspent category, got %v", overview["overspent"])
	}

	rr = do(t, srv, http.MethodPost, "/api/budgets/1/auto-adjust", "")
	if rr.Code != http.StatusOK || decode(t, rr)["changed"] != true {
		t.Fatalf("auto-adjust status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/api/budgets/stats/ann@example.com/2025-03", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("stats status=%d body=%s", rr.Code, rr.Body.String())
	}
	if st := decode(t, rr); st["totalSpent"] != "700" || st["mostSpentCategory"] != "food" {
		t.Fatalf("unexpected stats %v", st)
	}

	rr = do(t, srv, http.MethodDelete, "/api/budgets/1/distribution", "")
	if rr.Code != http.StatusOK || decode(t, rr)["custom"] != false {
		t.Fatalf("reset status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t, 0, nil)
	do(t, srv, http.MethodGet, "/api/budgets/ann@example.com/2025-03", "")

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantField  string
	}{
		{"bad month", http.MethodGet, "/api/budgets/ann@example.com/March", "", http.StatusUnprocessableEntity, "month"},
		{"non-numeric amount", http.MethodPut, "/api/budgets/1/addFunds?amount=abc", "", http.StatusUnprocessableEntity, "amount"},
		{"missing amount", http.MethodPut, "/api/budgets/1/addFunds", "", http.StatusUnprocessableEntity, "amount"},
		{"over-removal", http.MethodPut, "/api/budgets/1/addFunds?amount=-5", "", http.StatusUnprocessableEntity, "amount"},
		{"unknown budget", http.MethodPut, "/api/budgets/42/addFunds?amount=5", "", http.StatusNotFound, ""},
		{"malformed id", http.MethodGet, "/api/budgets/abc/overview", "", http.StatusBadRequest, ""},
		{"bad total", http.MethodPut, "/api/budgets/1/distribution", `{"food": 10}`, http.StatusUnprocessableEntity, "percentages"},
		{"malformed json", http.MethodPost, "/api/expenses", `{"amount":`, http.StatusBadRequest, ""},
		{"empty body", http.MethodPost, "/api/expenses", "", http.StatusBadRequest, ""},
		{"bad date", http.MethodPost, "/api/expenses", `{"userEmail":"a@b.c","category":"food","amount":"1","purchaseDate":"yesterday"}`, http.StatusUnprocessableEntity, "date"},
		{"invalid expense", http.MethodPost, "/api/expenses", `{"userEmail":"a@b.c","category":"food","amount":"0","purchaseDate":"2025-03-01"}`, http.StatusUnprocessableEntity, "amount"},
		{"unknown expense", http.MethodGet, "/api/expenses/7", "", http.StatusNotFound, ""},
		{"bad window", http.MethodGet, "/api/expenses/analysis?window=decade", "", http.StatusUnprocessableEntity, "window"},
		{"wrong method", http.MethodPatch, "/api/expenses/1", "", http.StatusMethodNotAllowed, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.path, tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if tt.wantField != "" {
				if got := decode(t, rr)["field"]; got != tt.wantField {
					t.Fatalf("expected field %q, got %v", tt.wantField, got)
				}
			}
		})
	}
}

func TestExpenseEndpoints(t *testing.T) {
	srv := newTestServer(t, 0, nil)

	for _, body := range []string{
		`{"userEmail":"ann@example.com","description":"lunch","category":"food","amount":"12.50","purchaseDate":"2025-03-04"}`,
		`{"userEmail":"bob@example.com","description":"bus","category":"transport","amount":"2,50","purchaseDate":"2025-03-05"}`,
	} {
		if rr := do(t, srv, http.MethodPost, "/api/expenses", body); rr.Code != http.StatusCreated {
			t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
		}
	}

	rr := do(t, srv, http.MethodGet, "/api/expenses", "")
	var list []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil || len(list) != 2 {
		t.Fatalf("unexpected list %s (%v)", rr.Body.String(), err)
	}

	rr = do(t, srv, http.MethodGet, "/api/expenses/user/bob@example.com", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil || len(list) != 1 || list[0]["amount"] != "2.5" {
		t.Fatalf("unexpected user list %s (%v)", rr.Body.String(), err)
	}

	rr = do(t, srv, http.MethodPut, "/api/expenses/1",
		`{"userEmail":"ann@example.com","description":"dinner","category":"food","amount":"20","purchaseDate":"2025-03-04"}`)
	if rr.Code != http.StatusOK || decode(t, rr)["description"] != "dinner" {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/api/expenses/analysis?category=food", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("analysis status=%d body=%s", rr.Code, rr.Body.String())
	}
	if s := decode(t, rr); s["total"] != "20" || s["count"] != float64(1) {
		t.Fatalf("unexpected summary %v", s)
	}

	if rr := do(t, srv, http.MethodDelete, "/api/expenses/1", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/expenses/1", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, 2, nil)
	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodGet, "/api/expenses", ""); rr.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodGet, "/api/expenses", "")
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 429 with Retry-After, got %d %v", rr.Code, rr.Header())
	}
	if m := srv.RateLimitMetrics(); m.Rejected != 1 {
		t.Fatalf("expected one rejection, got %+v", m)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"direct", "203.0.113.7:4000", nil, "203.0.113.7"},
		{"untrusted forwarder", "203.0.113.7:4000", map[string]string{"X-Forwarded-For": "198.51.100.1"}, "203.0.113.7"},
		{"trusted proxy", "10.0.0.2:4000", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.2"}, "198.51.100.1"},
		{"trusted real ip", "127.0.0.1:4000", map[string]string{"X-Real-IP": "198.51.100.9"}, "198.51.100.9"},
		{"garbage header", "192.168.1.1:4000", map[string]string{"X-Forwarded-For": "not-an-ip"}, "192.168.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
