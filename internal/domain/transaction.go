package domain

import (
	"time"

	"github.com/google/uuid"
)

// TxType classifies the direction of a value movement.
type TxType string

const (
	TxTypeCitizenToVendor     TxType = "citizen_to_vendor"
	TxTypeGovernmentToCitizen TxType = "government_to_citizen"
	TxTypeVendorWithdrawal    TxType = "vendor_withdrawal"
)

// TxStatus is always completed in the synchronous model; transfers are not
// externally cleared so no pending state machine exists.
type TxStatus string

const TxStatusCompleted TxStatus = "completed"

// Transaction is an immutable record of one value movement. SchemeID is set
// iff the transaction is a scheme disbursement. Created once, never mutated.
type Transaction struct {
	ID          string    `json:"id"`
	FromID      string    `json:"from_id"`
	ToID        string    `json:"to_id"`
	Amount      float64   `json:"amount"`
	TxType      TxType    `json:"tx_type"`
	SchemeID    string    `json:"scheme_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Status      TxStatus  `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewTransaction builds a completed transaction with a fresh ID and UTC
// timestamp.
func NewTransaction(fromID, toID string, amount float64, txType TxType, schemeID, description string) Transaction {
	return Transaction{
		ID:          uuid.NewString(),
		FromID:      fromID,
		ToID:        toID,
		Amount:      amount,
		TxType:      txType,
		SchemeID:    schemeID,
		Description: description,
		Status:      TxStatusCompleted,
		Timestamp:   time.Now().UTC(),
	}
}
