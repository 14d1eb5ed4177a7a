// Package docstore is the generic document store behind every entity type:
// opaque JSON-like records keyed by a prefixed identifier, a set index per
// kind for listing, and linear field scans for queries. Implementations are
// interface-driven so services can run against the in-memory store in tests
// and redis in production.
package docstore

import (
	"context"
	"errors"
)

// ErrBelowZero is returned when an Incr would drive a numeric field
// negative. Batches carrying such an op commit nothing.
var ErrBelowZero = errors.New("increment below zero")

// Document is the stored record shape. Values are what encoding/json
// produces: strings, float64, bool, []any, map[string]any.
type Document = map[string]any

// Kind names an entity type. Each kind owns a key prefix and an index set.
type Kind string

const (
	KindCitizen     Kind = "citizen"
	KindVendor      Kind = "vendor"
	KindGovernment  Kind = "government"
	KindScheme      Kind = "scheme"
	KindTransaction Kind = "transaction"
)

// KeyPrefix is the storage key namespace for the kind.
func (k Kind) KeyPrefix() string { return string(k) + "s:" }

// IndexSet is the name of the set tracking all IDs of the kind.
func (k Kind) IndexSet() string { return string(k) + "s_set" }

// Key is the full storage key for one record.
func (k Kind) Key(id string) string { return k.KeyPrefix() + id }

// Op is one mutation inside an atomic batch. Exactly one of Set, Fields, or
// Unions should normally be populated, but Fields and Unions may be combined
// against the same record.
type Op struct {
	Kind Kind
	ID   string

	// Set upserts the whole document.
	Set Document

	// Fields merges dotted-path keys into the existing record. The record
	// must exist.
	Fields map[string]any

	// Incr adds deltas to numeric fields at dotted paths, reading the
	// current value inside the batch so concurrent writers cannot lose
	// updates. An absent field counts as zero; a result below zero fails
	// the whole batch with ErrBelowZero.
	Incr map[string]float64

	// Unions appends values to list fields at dotted paths, de-duplicating
	// by value equality and creating the path if absent. The record must
	// exist.
	Unions map[string][]any
}

// Store is the document store contract. All operations are synchronous with
// no built-in retry. A missing record is sentinel.ErrNotFound; a backend
// outage is sentinel.ErrUnavailable (fatal, surfaced to the caller).
type Store interface {
	// Get fetches one record.
	Get(ctx context.Context, kind Kind, id string) (Document, error)

	// Set upserts a record and registers its ID in the kind's index set.
	Set(ctx context.Context, kind Kind, id string, doc Document) error

	// Update merges dotted-path keys into an existing record. Returns
	// sentinel.ErrNotFound without mutating anything if the record does not
	// exist.
	Update(ctx context.Context, kind Kind, id string, fields map[string]any) error

	// Delete removes the record and its index entry.
	Delete(ctx context.Context, kind Kind, id string) error

	// QueryByField scans the kind's index set and returns records whose
	// dotted-path field equals value. Exact match only; no range queries.
	QueryByField(ctx context.Context, kind Kind, path string, value any) ([]Document, error)

	// ListAll returns every record of the kind.
	ListAll(ctx context.Context, kind Kind) ([]Document, error)

	// ArrayUnion appends values to a list field, de-duplicating by value
	// equality and creating the field if absent.
	ArrayUnion(ctx context.Context, kind Kind, id string, path string, values []any) error

	// ApplyBatch applies a set of mutations across records as one atomic
	// boundary: either every op commits or none does. This is what lets the
	// ledger keep a debit and its credit inseparable. Ops are applied in
	// order, so several ops against one record compound rather than clobber.
	ApplyBatch(ctx context.Context, ops []Op) error
}
