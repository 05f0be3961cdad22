package memory

import (
	"context"
	"fmt"
	"sync"

	"ajo/internal/core"
	ports "ajo/internal/sheets"
)

var _ ports.ReportExporter = (*Store)(nil)

// Export is one stored report rendering.
type Export struct {
	Ref    string
	Report core.GroupReport
	Rows   [][]any
}

// Store keeps exported reports in memory.
type Store struct {
	mu      sync.Mutex
	exports []Export
}

func New() *Store {
	return &Store{}
}

// ExportGroupReport stores the rendered rows and returns a synthetic reference.
func (s *Store) ExportGroupReport(_ context.Context, r core.GroupReport) (string, error) {
	if r.GroupID == "" {
		return "", fmt.Errorf("export: %w", core.FieldError("groupId", "Group is required"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := fmt.Sprintf("mem:%d", len(s.exports)+1)
	s.exports = append(s.exports, Export{Ref: ref, Report: r, Rows: ports.ReportRows(r)})
	return ref, nil
}

// Exports returns a copy of everything exported so far, oldest first.
func (s *Store) Exports() []Export {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Export(nil), s.exports...)
}
