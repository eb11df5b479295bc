// Package memory is an in-process report sink for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tasknest/internal/sheets"
)

type Recorder struct {
	mu   sync.Mutex
	rows []sheets.ReportRow
}

var _ sheets.ReportWriter = (*Recorder)(nil)

func New() *Recorder {
	return &Recorder{}
}

// AppendReport stores the row and returns a synthetic row reference.
func (r *Recorder) AppendReport(_ context.Context, row sheets.ReportRow) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, row)
	return fmt.Sprintf("mem:%d", len(r.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (r *Recorder) Rows() []sheets.ReportRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sheets.ReportRow(nil), r.rows...)
}
