package ledger

import (
	"context"
	"sort"

	domainerrors "sahakosh/pkg/domain-errors"

	"sahakosh/internal/docstore"
	"sahakosh/internal/domain"
)

// TransactionStore reads transaction records out of the document store.
// Writes happen inside ledger batches, never here.
type TransactionStore struct {
	docs docstore.Store
}

func NewTransactionStore(docs docstore.Store) *TransactionStore {
	return &TransactionStore{docs: docs}
}

func (s *TransactionStore) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	doc, err := s.docs.Get(ctx, docstore.KindTransaction, id)
	if err != nil {
		return nil, mapStoreErr(err, "transaction not found")
	}
	var tx domain.Transaction
	if err := domain.FromDoc(doc, &tx); err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "decode transaction", err)
	}
	return &tx, nil
}

// ListAll returns every transaction in the system, newest first. This backs
// the government-wide oversight view.
func (s *TransactionStore) ListAll(ctx context.Context) ([]domain.Transaction, error) {
	docs, err := s.docs.ListAll(ctx, docstore.KindTransaction)
	if err != nil {
		return nil, mapStoreErr(err, "list transactions")
	}
	out := make([]domain.Transaction, 0, len(docs))
	for _, doc := range docs {
		var tx domain.Transaction
		if err := domain.FromDoc(doc, &tx); err != nil {
			return nil, domainerrors.Wrap(domainerrors.CodeInternal, "decode transaction", err)
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// ListByParty returns every transaction the party sent or received, newest
// first.
func (s *TransactionStore) ListByParty(ctx context.Context, partyID string) ([]domain.Transaction, error) {
	sent, err := s.docs.QueryByField(ctx, docstore.KindTransaction, "from_id", partyID)
	if err != nil {
		return nil, mapStoreErr(err, "list transactions")
	}
	received, err := s.docs.QueryByField(ctx, docstore.KindTransaction, "to_id", partyID)
	if err != nil {
		return nil, mapStoreErr(err, "list transactions")
	}

	seen := make(map[string]bool)
	var out []domain.Transaction
	for _, doc := range append(sent, received...) {
		var tx domain.Transaction
		if err := domain.FromDoc(doc, &tx); err != nil {
			return nil, domainerrors.Wrap(domainerrors.CodeInternal, "decode transaction", err)
		}
		if seen[tx.ID] {
			continue
		}
		seen[tx.ID] = true
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}
