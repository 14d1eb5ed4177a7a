package domain

import (
	"time"

	"github.com/google/uuid"
)

// GovernmentWallet is the disbursement balance plus the schemes the account
// owns and its transaction history.
type GovernmentWallet struct {
	Balance        float64  `json:"balance"`
	SchemeIDs      []string `json:"scheme_ids"`
	TransactionIDs []string `json:"transaction_ids"`
}

// Government is the full government-agency record.
type Government struct {
	AccountInfo AccountInfo      `json:"account_info"`
	WalletInfo  GovernmentWallet `json:"wallet_info"`
}

// NewGovernment builds a government account with an empty scheme list.
func NewGovernment(name, email, hashedPassword, department, jurisdiction, govtID string) Government {
	now := time.Now().UTC()
	return Government{
		AccountInfo: AccountInfo{
			ID:           uuid.NewString(),
			Name:         name,
			Email:        email,
			Password:     hashedPassword,
			UserType:     UserTypeGovernment,
			Department:   department,
			Jurisdiction: jurisdiction,
			GovtID:       govtID,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		WalletInfo: GovernmentWallet{
			SchemeIDs:      []string{},
			TransactionIDs: []string{},
		},
	}
}

// Redacted returns a copy safe to return to API callers.
func (g Government) Redacted() Government {
	g.AccountInfo.Password = ""
	return g
}
