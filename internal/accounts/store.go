package accounts

import (
	"context"
	"errors"

	domainerrors "sahakosh/pkg/domain-errors"
	"sahakosh/pkg/platform/sentinel"

	"sahakosh/internal/docstore"
	"sahakosh/internal/domain"
)

// The three account stores are thin typed views over the document store.
// Each decodes strictly so malformed records fail here, not in handlers.

func getRecord[T any](ctx context.Context, docs docstore.Store, kind docstore.Kind, id, notFoundMsg string) (*T, error) {
	doc, err := docs.Get(ctx, kind, id)
	if err != nil {
		return nil, mapStoreErr(err, notFoundMsg)
	}
	var out T
	if err := domain.FromDoc(doc, &out); err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "decode "+string(kind)+" record", err)
	}
	return &out, nil
}

func findByEmail[T any](ctx context.Context, docs docstore.Store, kind docstore.Kind, email string) (*T, error) {
	matches, err := docs.QueryByField(ctx, kind, "account_info.email", email)
	if err != nil {
		return nil, mapStoreErr(err, "account not found")
	}
	if len(matches) == 0 {
		return nil, domainerrors.New(domainerrors.CodeNotFound, "account not found")
	}
	var out T
	if err := domain.FromDoc(matches[0], &out); err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "decode "+string(kind)+" record", err)
	}
	return &out, nil
}

func listRecords[T any](ctx context.Context, docs docstore.Store, kind docstore.Kind) ([]T, error) {
	raw, err := docs.ListAll(ctx, kind)
	if err != nil {
		return nil, mapStoreErr(err, "list "+string(kind)+"s")
	}
	out := make([]T, 0, len(raw))
	for _, doc := range raw {
		var rec T
		if err := domain.FromDoc(doc, &rec); err != nil {
			return nil, domainerrors.Wrap(domainerrors.CodeInternal, "decode "+string(kind)+" record", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func saveRecord(ctx context.Context, docs docstore.Store, kind docstore.Kind, id string, v any) error {
	doc, err := domain.ToDoc(v)
	if err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "encode "+string(kind)+" record", err)
	}
	if err := docs.Set(ctx, kind, id, doc); err != nil {
		return mapStoreErr(err, "save "+string(kind))
	}
	return nil
}

// CitizenStore persists citizen records.
type CitizenStore struct {
	docs docstore.Store
}

func NewCitizenStore(docs docstore.Store) *CitizenStore { return &CitizenStore{docs: docs} }

func (s *CitizenStore) Save(ctx context.Context, c domain.Citizen) error {
	return saveRecord(ctx, s.docs, docstore.KindCitizen, c.AccountInfo.ID, c)
}

func (s *CitizenStore) FindByID(ctx context.Context, id string) (*domain.Citizen, error) {
	return getRecord[domain.Citizen](ctx, s.docs, docstore.KindCitizen, id, "citizen not found")
}

func (s *CitizenStore) FindByEmail(ctx context.Context, email string) (*domain.Citizen, error) {
	return findByEmail[domain.Citizen](ctx, s.docs, docstore.KindCitizen, email)
}

func (s *CitizenStore) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := s.docs.Update(ctx, docstore.KindCitizen, id, fields); err != nil {
		return mapStoreErr(err, "citizen not found")
	}
	return nil
}

func (s *CitizenStore) List(ctx context.Context) ([]domain.Citizen, error) {
	return listRecords[domain.Citizen](ctx, s.docs, docstore.KindCitizen)
}

// VendorStore persists vendor records.
type VendorStore struct {
	docs docstore.Store
}

func NewVendorStore(docs docstore.Store) *VendorStore { return &VendorStore{docs: docs} }

func (s *VendorStore) Save(ctx context.Context, v domain.Vendor) error {
	return saveRecord(ctx, s.docs, docstore.KindVendor, v.AccountInfo.ID, v)
}

func (s *VendorStore) FindByID(ctx context.Context, id string) (*domain.Vendor, error) {
	return getRecord[domain.Vendor](ctx, s.docs, docstore.KindVendor, id, "vendor not found")
}

func (s *VendorStore) FindByEmail(ctx context.Context, email string) (*domain.Vendor, error) {
	return findByEmail[domain.Vendor](ctx, s.docs, docstore.KindVendor, email)
}

func (s *VendorStore) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := s.docs.Update(ctx, docstore.KindVendor, id, fields); err != nil {
		return mapStoreErr(err, "vendor not found")
	}
	return nil
}

func (s *VendorStore) List(ctx context.Context) ([]domain.Vendor, error) {
	return listRecords[domain.Vendor](ctx, s.docs, docstore.KindVendor)
}

// GovernmentStore persists government-agency records.
type GovernmentStore struct {
	docs docstore.Store
}

func NewGovernmentStore(docs docstore.Store) *GovernmentStore { return &GovernmentStore{docs: docs} }

func (s *GovernmentStore) Save(ctx context.Context, g domain.Government) error {
	return saveRecord(ctx, s.docs, docstore.KindGovernment, g.AccountInfo.ID, g)
}

func (s *GovernmentStore) FindByID(ctx context.Context, id string) (*domain.Government, error) {
	return getRecord[domain.Government](ctx, s.docs, docstore.KindGovernment, id, "government account not found")
}

func (s *GovernmentStore) FindByEmail(ctx context.Context, email string) (*domain.Government, error) {
	return findByEmail[domain.Government](ctx, s.docs, docstore.KindGovernment, email)
}

func (s *GovernmentStore) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := s.docs.Update(ctx, docstore.KindGovernment, id, fields); err != nil {
		return mapStoreErr(err, "government account not found")
	}
	return nil
}

func mapStoreErr(err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return domainerrors.Wrap(domainerrors.CodeNotFound, notFoundMsg, err)
	case errors.Is(err, sentinel.ErrUnavailable):
		return domainerrors.Wrap(domainerrors.CodeUnavailable, "storage unavailable", err)
	default:
		return domainerrors.Wrap(domainerrors.CodeInternal, "storage failure", err)
	}
}
