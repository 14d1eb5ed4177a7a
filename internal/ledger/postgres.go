package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"sahakosh/internal/domain"
)

// Archive is the durable copy of the transaction log, kept outside the
// document store for reporting and audit queries. Archiving is fail-open on
// the payment path: a down archive never fails a transfer.
type Archive interface {
	Archive(ctx context.Context, tx domain.Transaction) error
	ListByParty(ctx context.Context, partyID string) ([]domain.Transaction, error)
}

// NopArchive discards writes. Used when no archive database is configured.
type NopArchive struct{}

func (NopArchive) Archive(context.Context, domain.Transaction) error { return nil }

func (NopArchive) ListByParty(context.Context, string) ([]domain.Transaction, error) {
	return nil, nil
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS transactions (
	id           TEXT PRIMARY KEY,
	from_id      TEXT NOT NULL,
	to_id        TEXT NOT NULL,
	amount       DOUBLE PRECISION NOT NULL,
	tx_type      TEXT NOT NULL,
	scheme_id    TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	ts           TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS transactions_from_id_idx ON transactions (from_id);
CREATE INDEX IF NOT EXISTS transactions_to_id_idx ON transactions (to_id);
`

// PostgresArchive persists transactions to Postgres via pgx.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

// NewPostgresArchive ensures the schema exists and wraps the pool.
func NewPostgresArchive(ctx context.Context, pool *pgxpool.Pool) (*PostgresArchive, error) {
	if _, err := pool.Exec(ctx, archiveSchema); err != nil {
		return nil, fmt.Errorf("ensure archive schema: %w", err)
	}
	return &PostgresArchive{pool: pool}, nil
}

func (a *PostgresArchive) Archive(ctx context.Context, tx domain.Transaction) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO transactions (id, from_id, to_id, amount, tx_type, scheme_id, description, status, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		tx.ID, tx.FromID, tx.ToID, tx.Amount, string(tx.TxType), tx.SchemeID, tx.Description, string(tx.Status), tx.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("archive transaction %s: %w", tx.ID, err)
	}
	return nil
}

func (a *PostgresArchive) ListByParty(ctx context.Context, partyID string) ([]domain.Transaction, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT id, from_id, to_id, amount, tx_type, scheme_id, description, status, ts
		FROM transactions
		WHERE from_id = $1 OR to_id = $1
		ORDER BY ts DESC`,
		partyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list archived transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.ID, &tx.FromID, &tx.ToID, &tx.Amount, &tx.TxType, &tx.SchemeID, &tx.Description, &tx.Status, &tx.Timestamp); err != nil {
			return nil, fmt.Errorf("scan archived transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}
