package scheme

import (
	"context"
	"errors"

	domainerrors "sahakosh/pkg/domain-errors"
	"sahakosh/pkg/platform/sentinel"

	"sahakosh/internal/docstore"
	"sahakosh/internal/domain"
)

// SchemeStore persists scheme records in the document store.
type SchemeStore struct {
	docs docstore.Store
}

func NewSchemeStore(docs docstore.Store) *SchemeStore {
	return &SchemeStore{docs: docs}
}

func (s *SchemeStore) Save(ctx context.Context, scheme domain.Scheme) error {
	doc, err := domain.ToDoc(scheme)
	if err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "encode scheme", err)
	}
	if err := s.docs.Set(ctx, docstore.KindScheme, scheme.ID, doc); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

func (s *SchemeStore) FindByID(ctx context.Context, id string) (*domain.Scheme, error) {
	doc, err := s.docs.Get(ctx, docstore.KindScheme, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	var scheme domain.Scheme
	if err := domain.FromDoc(doc, &scheme); err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "decode scheme", err)
	}
	return &scheme, nil
}

func (s *SchemeStore) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := s.docs.Update(ctx, docstore.KindScheme, id, fields); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// ListByGovernment returns every scheme owned by the government account.
func (s *SchemeStore) ListByGovernment(ctx context.Context, govtID string) ([]domain.Scheme, error) {
	return s.query(ctx, "govt_id", govtID)
}

// ListActive returns every scheme currently open for enrollment.
func (s *SchemeStore) ListActive(ctx context.Context) ([]domain.Scheme, error) {
	return s.query(ctx, "status", string(domain.SchemeStatusActive))
}

func (s *SchemeStore) query(ctx context.Context, path string, value any) ([]domain.Scheme, error) {
	docs, err := s.docs.QueryByField(ctx, docstore.KindScheme, path, value)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	out := make([]domain.Scheme, 0, len(docs))
	for _, doc := range docs {
		var scheme domain.Scheme
		if err := domain.FromDoc(doc, &scheme); err != nil {
			return nil, domainerrors.Wrap(domainerrors.CodeInternal, "decode scheme", err)
		}
		out = append(out, scheme)
	}
	return out, nil
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return domainerrors.Wrap(domainerrors.CodeNotFound, "scheme not found", err)
	case errors.Is(err, sentinel.ErrUnavailable):
		return domainerrors.Wrap(domainerrors.CodeUnavailable, "storage unavailable", err)
	default:
		return domainerrors.Wrap(domainerrors.CodeInternal, "storage failure", err)
	}
}
