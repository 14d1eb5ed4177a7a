package docstore

import (
	"fmt"
	"reflect"
	"strings"
)

// Dotted-path navigation over documents lives in this file and nowhere
// else. Call sites hand the store a path like "wallet_info.govt_wallet.balance"
// and never walk nested maps themselves.

// resolvePath walks doc along the dotted path and returns the value found.
func resolvePath(doc Document, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = doc
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// setPath writes value at the dotted path, creating intermediate maps as
// needed. An intermediate segment holding a non-map value is overwritten,
// matching the merge semantics callers expect from an upsert-style update.
func setPath(doc Document, path string, value any) {
	parts := strings.Split(path, ".")
	target := doc
	for i, part := range parts {
		if i == len(parts)-1 {
			target[part] = value
			return
		}
		next, ok := target[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			target[part] = next
		}
		target = next
	}
}

// mergeFields applies every dotted-path key of fields onto doc.
func mergeFields(doc Document, fields map[string]any) {
	for path, value := range fields {
		setPath(doc, path, value)
	}
}

// unionPath appends values to the list at the dotted path, skipping values
// already present (compared by deep equality) and creating the field when
// absent.
func unionPath(doc Document, path string, values []any) {
	existing, _ := resolvePath(doc, path)
	list, _ := existing.([]any)
	for _, v := range values {
		if !containsValue(list, v) {
			list = append(list, v)
		}
	}
	setPath(doc, path, list)
}

// incrPath adds delta to the numeric field at the dotted path. An absent
// field counts as zero; a result below zero is rejected.
func incrPath(doc Document, path string, delta float64) error {
	current := 0.0
	if v, ok := resolvePath(doc, path); ok {
		f, isNum := v.(float64)
		if !isNum {
			return fmt.Errorf("field %s is not numeric", path)
		}
		current = f
	}
	next := current + delta
	if next < 0 {
		return fmt.Errorf("%w: %s", ErrBelowZero, path)
	}
	setPath(doc, path, next)
	return nil
}

// applyOp applies an op's Fields, Incr, and Unions mutations to doc in place.
func applyOp(doc Document, op Op) error {
	mergeFields(doc, op.Fields)
	for path, delta := range op.Incr {
		if err := incrPath(doc, path, delta); err != nil {
			return err
		}
	}
	for path, values := range op.Unions {
		unionPath(doc, path, values)
	}
	return nil
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if reflect.DeepEqual(item, v) {
			return true
		}
	}
	return false
}

// valueEquals is the exact-match predicate for field queries. Documents come
// out of JSON decoding, so numbers are float64 and deep equality covers
// nested values.
func valueEquals(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// copyDoc deep-copies a document so store internals never alias caller
// memory.
func copyDoc(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyDoc(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
