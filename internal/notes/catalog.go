// Package notes supplies display metadata for the notes being reviewed.
// The surrounding application owns note persistence; this package only
// reads. Catalogs can be built in memory, from a directory of markdown
// files, or from a markdown directory kept in a git repository.
package notes

import (
	"sort"

	"github.com/recallhq/recall/internal/domain"
)

// Memory is an in-memory catalog keyed by note ID.
type Memory struct {
	notes map[string]domain.NoteMeta
}

// NewMemory builds a catalog from the given notes.
func NewMemory(notes ...domain.NoteMeta) *Memory {
	m := &Memory{notes: make(map[string]domain.NoteMeta, len(notes))}
	for _, n := range notes {
		m.notes[n.ID] = n
	}
	return m
}

// Get returns the metadata for a note ID.
func (m *Memory) Get(noteID string) (domain.NoteMeta, bool) {
	n, ok := m.notes[noteID]
	return n, ok
}

// All returns every note in the catalog, ordered by ID.
func (m *Memory) All() []domain.NoteMeta {
	out := make([]domain.NoteMeta, 0, len(m.notes))
	for _, n := range m.notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of notes in the catalog.
func (m *Memory) Len() int {
	return len(m.notes)
}
