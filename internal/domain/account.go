// Package domain defines the typed records persisted by the document store.
// The JSON tags are the canonical wire and storage field names; converting a
// struct to or from a store document goes through ToDoc/FromDoc so shape
// problems surface at the store boundary, not at call sites.
package domain

import "time"

// UserType discriminates the three account roles.
type UserType string

const (
	UserTypeCitizen    UserType = "citizen"
	UserTypeVendor     UserType = "vendor"
	UserTypeGovernment UserType = "government"
)

// AccountInfo is the identity block shared by every role. Department,
// Jurisdiction, and GovtID are only populated for government accounts.
type AccountInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Password     string    `json:"password,omitempty"`
	UserType     UserType  `json:"user_type"`
	Department   string    `json:"department,omitempty"`
	Jurisdiction string    `json:"jurisdiction,omitempty"`
	GovtID       string    `json:"govt_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WalletCompartment is one ring-fenced balance with its transaction history.
// Balance never goes below zero; only the ledger mutates it.
type WalletCompartment struct {
	Balance        float64  `json:"balance"`
	TransactionIDs []string `json:"transaction_ids"`
}
