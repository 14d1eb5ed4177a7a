package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"sahakosh/pkg/platform/sentinel"
)

// Redis is the production store: one JSON value per record under
// "<kind>s:<id>", plus a "<kind>s_set" set indexing every ID of the kind.
// Multi-record batches run under WATCH/MULTI so concurrent writers retry
// instead of interleaving.
type Redis struct {
	client *redis.Client
}

// watchRetries bounds optimistic-lock retries before giving up as
// unavailable.
const watchRetries = 5

// NewRedis wraps an existing client; lifecycle stays with the caller.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
}

func (s *Redis) readDoc(ctx context.Context, c redis.Cmdable, kind Kind, id string) (Document, error) {
	raw, err := c.Get(ctx, kind.Key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("corrupt record %s: %w", kind.Key(id), err)
	}
	return doc, nil
}

func writeDoc(ctx context.Context, pipe redis.Cmdable, kind Kind, id string, doc Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", kind.Key(id), err)
	}
	pipe.Set(ctx, kind.Key(id), raw, 0)
	pipe.SAdd(ctx, kind.IndexSet(), id)
	return nil
}

func (s *Redis) Get(ctx context.Context, kind Kind, id string) (Document, error) {
	return s.readDoc(ctx, s.client, kind, id)
}

func (s *Redis) Set(ctx context.Context, kind Kind, id string, doc Document) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return writeDoc(ctx, pipe, kind, id, doc)
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Redis) Update(ctx context.Context, kind Kind, id string, fields map[string]any) error {
	return s.ApplyBatch(ctx, []Op{{Kind: kind, ID: id, Fields: fields}})
}

func (s *Redis) Delete(ctx context.Context, kind Kind, id string) error {
	removed, err := s.client.Del(ctx, kind.Key(id)).Result()
	if err != nil {
		return unavailable(err)
	}
	if err := s.client.SRem(ctx, kind.IndexSet(), id).Err(); err != nil {
		return unavailable(err)
	}
	if removed == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Redis) QueryByField(ctx context.Context, kind Kind, path string, value any) ([]Document, error) {
	docs, err := s.ListAll(ctx, kind)
	if err != nil {
		return nil, err
	}
	var out []Document
	for _, doc := range docs {
		if got, ok := resolvePath(doc, path); ok && valueEquals(got, value) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *Redis) ListAll(ctx context.Context, kind Kind) ([]Document, error) {
	ids, err := s.client.SMembers(ctx, kind.IndexSet()).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	out := make([]Document, 0, len(ids))
	for _, id := range ids {
		doc, err := s.readDoc(ctx, s.client, kind, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			// Index entry outlived its record; skip rather than fail the scan.
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *Redis) ArrayUnion(ctx context.Context, kind Kind, id string, path string, values []any) error {
	return s.ApplyBatch(ctx, []Op{{Kind: kind, ID: id, Unions: map[string][]any{path: values}}})
}

// ApplyBatch reads every target under WATCH, stages the mutations, and
// commits them in one MULTI/EXEC. A concurrent write to any watched key
// aborts the transaction and the whole batch retries from the fresh reads.
// Ops addressing the same record stack: each one continues from the staged
// document, and a Set restarts the record from the given document.
func (s *Redis) ApplyBatch(ctx context.Context, ops []Op) error {
	keys := make([]string, 0, len(ops))
	seen := make(map[string]bool, len(ops))
	for _, op := range ops {
		key := op.Kind.Key(op.ID)
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	txn := func(tx *redis.Tx) error {
		staged := make(map[string]Document, len(ops))
		for _, op := range ops {
			key := op.Kind.Key(op.ID)
			doc, ok := staged[key]
			if op.Set != nil {
				doc = copyDoc(op.Set)
			} else if !ok {
				existing, err := s.readDoc(ctx, tx, op.Kind, op.ID)
				if err != nil {
					return err
				}
				doc = existing
			}
			if err := applyOp(doc, op); err != nil {
				return err
			}
			staged[key] = doc
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			written := make(map[string]bool, len(staged))
			for _, op := range ops {
				key := op.Kind.Key(op.ID)
				if written[key] {
					continue
				}
				written[key] = true
				if err := writeDoc(ctx, pipe, op.Kind, op.ID, staged[key]); err != nil {
					return err
				}
			}
			return nil
		})
		return err
	}

	for i := 0; i < watchRetries; i++ {
		err := s.client.Watch(ctx, txn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err == nil || errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, ErrBelowZero) {
			return err
		}
		return unavailable(err)
	}
	return unavailable(redis.TxFailedErr)
}
