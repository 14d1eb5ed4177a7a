package docstore

import (
	"context"
	"sync"

	"sahakosh/pkg/platform/sentinel"
)

// Memory is the in-memory store. It backs unit tests and local development
// and intentionally favors clarity over performance.
type Memory struct {
	mu   sync.RWMutex
	data map[Kind]map[string]Document
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[Kind]map[string]Document)}
}

func (s *Memory) bucket(kind Kind) map[string]Document {
	b, ok := s.data[kind]
	if !ok {
		b = make(map[string]Document)
		s.data[kind] = b
	}
	return b
}

func (s *Memory) Get(_ context.Context, kind Kind, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.data[kind][id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyDoc(doc), nil
}

func (s *Memory) Set(_ context.Context, kind Kind, id string, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bucket(kind)[id] = copyDoc(doc)
	return nil
}

func (s *Memory) Update(_ context.Context, kind Kind, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.data[kind][id]
	if !ok {
		return sentinel.ErrNotFound
	}
	updated := copyDoc(doc)
	mergeFields(updated, fields)
	s.data[kind][id] = updated
	return nil
}

func (s *Memory) Delete(_ context.Context, kind Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[kind][id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.data[kind], id)
	return nil
}

func (s *Memory) QueryByField(_ context.Context, kind Kind, path string, value any) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Document
	for _, doc := range s.data[kind] {
		if got, ok := resolvePath(doc, path); ok && valueEquals(got, value) {
			out = append(out, copyDoc(doc))
		}
	}
	return out, nil
}

func (s *Memory) ListAll(_ context.Context, kind Kind) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, 0, len(s.data[kind]))
	for _, doc := range s.data[kind] {
		out = append(out, copyDoc(doc))
	}
	return out, nil
}

func (s *Memory) ArrayUnion(_ context.Context, kind Kind, id string, path string, values []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.data[kind][id]
	if !ok {
		return sentinel.ErrNotFound
	}
	updated := copyDoc(doc)
	unionPath(updated, path, values)
	s.data[kind][id] = updated
	return nil
}

// ApplyBatch applies every op under one lock. Mutations are staged against
// copies and committed only after every op validates, so a failing op leaves
// the store untouched. Ops addressing the same record stack: each one sees
// the document as the preceding ops left it, and a Set restarts the record
// from the given document.
func (s *Memory) ApplyBatch(_ context.Context, ops []Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	type target struct {
		kind Kind
		id   string
	}
	staged := make(map[target]Document, len(ops))
	for _, op := range ops {
		key := target{kind: op.Kind, id: op.ID}
		updated, ok := staged[key]
		if op.Set != nil {
			updated = copyDoc(op.Set)
		} else if !ok {
			doc, exists := s.data[op.Kind][op.ID]
			if !exists {
				return sentinel.ErrNotFound
			}
			updated = copyDoc(doc)
		}
		if err := applyOp(updated, op); err != nil {
			return err
		}
		staged[key] = updated
	}

	for key, doc := range staged {
		s.bucket(key.kind)[key.id] = doc
	}
	return nil
}
