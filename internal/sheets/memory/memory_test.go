package memory

import (
	"context"
	"testing"

	"tasknest/internal/sheets"
)

func TestRecorder(t *testing.T) {
	r := New()
	ref, err := r.AppendReport(context.Background(), sheets.ReportRow{Month: "2025-03", User: "ann@example.com"})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected ref %q (%v)", ref, err)
	}
	ref, _ = r.AppendReport(context.Background(), sheets.ReportRow{Month: "2025-04"})
	if ref != "mem:2" {
		t.Fatalf("unexpected ref %q", ref)
	}

	rows := r.Rows()
	if len(rows) != 2 || rows[0].User != "ann@example.com" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	rows[0].User = "changed"
	if r.Rows()[0].User != "ann@example.com" {
		t.Fatalf("Rows must return a copy")
	}
}
