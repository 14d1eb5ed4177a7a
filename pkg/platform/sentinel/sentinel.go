package sentinel

import "errors"

// Sentinel errors for store-level facts. The document store and its backends
// return these (optionally wrapped) so services can translate them into
// domain errors without knowing which backend is in play.
//
// These represent factual states about records, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrUnavailable: backend unreachable; fatal to the current operation
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
