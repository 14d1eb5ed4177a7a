package domain

import (
	"encoding/json"
	"fmt"
)

// ToDoc converts a typed record into the map form the document store
// persists. Round-tripping through JSON keeps the storage shape identical to
// the wire shape.
func ToDoc(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return doc, nil
}

// FromDoc decodes a store document into out, failing on shape mismatches so
// malformed records are caught at the store boundary instead of surfacing as
// zero values deep in business logic.
func FromDoc(doc map[string]any, out any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}
