package export

import (
	"context"
	"fmt"
	"sync"
)

// MemoryExporter records rows in memory. Used by tests and by the worker
// when no spreadsheet is configured.
type MemoryExporter struct {
	mu   sync.Mutex
	rows []Row
}

var _ Exporter = (*MemoryExporter)(nil)

func NewMemoryExporter() *MemoryExporter {
	return &MemoryExporter{}
}

func (m *MemoryExporter) AppendChange(_ context.Context, row Row) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, row)
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

// Rows returns a snapshot of everything appended so far.
func (m *MemoryExporter) Rows() []Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Row(nil), m.rows...)
}
