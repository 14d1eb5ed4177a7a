// Package txlog streams completed transactions to Kafka for downstream
// consumers (reconciliation, analytics). Publishing is fail-open: a broker
// outage never blocks or fails a transfer.
package txlog

import (
	"context"
	"time"
)

// Event is the wire record for one completed transaction.
type Event struct {
	TransactionID string    `json:"transaction_id"`
	FromID        string    `json:"from_id"`
	ToID          string    `json:"to_id"`
	Amount        float64   `json:"amount"`
	TxType        string    `json:"tx_type"`
	SchemeID      string    `json:"scheme_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher accepts transaction events for asynchronous delivery.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Nop discards every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
