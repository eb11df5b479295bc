package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	ports "tasknest/internal/sheets"
)

type fakeSheets struct {
	mu       sync.Mutex
	appended [][]any
	paths    []string
	queries  []string
	hasRows  bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, r.URL.Path)
	f.queries = append(f.queries, r.URL.RawQuery)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.appended = append(f.appended, vr.Values...)
		f.hasRows = true
		_ = json.NewEncoder(w).Encode(map[string]any{
			"spreadsheetId": "sheet-id",
			"updates":       map[string]any{"updatedRange": "'Budget Report'!A2:H2", "updatedRows": 1},
		})
	case r.Method == http.MethodGet:
		values := [][]any{}
		if f.hasRows {
			values = append(values, []any{"Month"})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "'Budget Report'!A1:H1", "values": values})
	default:
		http.Error(w, "unexpected request", http.StatusNotFound)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewWithService(svc, "sheet-id", ""), fake
}

func TestClient_AppendReport(t *testing.T) {
	c, fake := newTestClient(t)

	ref, err := c.AppendReport(context.Background(), ports.ReportRow{
		Month: "2025-03", User: "ann@example.com", EventType: "funds_changed", MonthlyBudget: "1000.00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref != "'Budget Report'!A2:H2" {
		t.Fatalf("unexpected ref %q", ref)
	}
	if len(fake.appended) != 1 || fake.appended[0][1] != "ann@example.com" || len(fake.appended[0]) != 8 {
		t.Fatalf("unexpected appended values %v", fake.appended)
	}
	if !strings.Contains(fake.paths[0], "sheet-id") || !strings.Contains(fake.queries[0], "valueInputOption=USER_ENTERED") {
		t.Fatalf("unexpected request %s?%s", fake.paths[0], fake.queries[0])
	}
}

func TestClient_EnsureHeader(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	if err := c.EnsureHeader(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.EnsureHeader(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.appended) != 1 || fake.appended[0][0] != "Month" {
		t.Fatalf("expected a single header row, got %v", fake.appended)
	}
}

func TestClient_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.AppendReport(context.Background(), ports.ReportRow{}); err == nil {
		t.Fatal("expected error without service")
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"missing spreadsheet", Config{}, "missing spreadsheet ID"},
		{"missing credentials", Config{SpreadsheetID: "id"}, "missing service account credentials"},
		{"unreadable file", Config{SpreadsheetID: "id", CredentialsFile: filepath.Join(t.TempDir(), "nope.json")}, "read service account file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q, got %v", tt.want, err)
			}
		})
	}
}
