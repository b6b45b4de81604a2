// Package docstore keeps decoded manuscripts in memory and tracks which
// revisions still need analysis.
package docstore

import (
	"sort"
	"sync"

	"github.com/kittclouds/storygraph/pkg/scanner/conductor"
)

// Document is one decoded manuscript revision.
type Document struct {
	ID      string // usually the source path
	Text    string
	Mime    string
	Version int64 // bumped whenever Text changes
	// Analyzed is the last version handed back through MarkAnalyzed.
	Analyzed int64
}

// Pending reports whether the current revision has not been analyzed.
func (d Document) Pending() bool {
	return d.Analyzed < d.Version
}

// Store holds manuscripts keyed by ID. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// New creates an empty store.
func New() *Store {
	return &Store{docs: make(map[string]*Document)}
}

// Hydrate loads previously saved documents as they are.
func (s *Store) Hydrate(docs []Document) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range docs {
		s.docs[d.ID] = &d
	}
	return len(docs)
}

// Upsert records a revision and returns its version. Identical text keeps
// the current version, so an unchanged file is not queued again.
func (s *Store) Upsert(id, text, mime string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.docs[id]
	if ok && old.Text == text {
		old.Mime = mime
		return old.Version
	}

	d := &Document{ID: id, Text: text, Mime: mime, Version: 1}
	if ok {
		d.Version = old.Version + 1
		d.Analyzed = old.Analyzed
	}
	s.docs[id] = d
	return d.Version
}

// MarkAnalyzed records that version of id has been analyzed. Stale versions
// are ignored.
func (s *Store) MarkAnalyzed(id string, version int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.docs[id]; ok && version <= d.Version && version > d.Analyzed {
		d.Analyzed = version
	}
}

// Remove deletes a document.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
}

// Get returns a copy of a document.
func (s *Store) Get(id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.docs[id]
	if !ok {
		return Document{}, false
	}
	return *d, true
}

// Count returns the number of documents.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// AllIDs returns every document ID in sorted order.
func (s *Store) AllIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Batch returns every document as batch input, ordered by ID.
func (s *Store) Batch() []conductor.Document {
	return s.batch(func(*Document) bool { return true })
}

// PendingBatch returns only the documents whose current revision has not
// been analyzed, ordered by ID.
func (s *Store) PendingBatch() []conductor.Document {
	return s.batch(func(d *Document) bool { return d.Pending() })
}

func (s *Store) batch(keep func(*Document) bool) []conductor.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]conductor.Document, 0, len(s.docs))
	for _, d := range s.docs {
		if keep(d) {
			out = append(out, conductor.Document{ID: d.ID, Text: d.Text})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Clear removes all documents.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]*Document)
}
