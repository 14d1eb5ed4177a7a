package domain

import (
	"time"

	"github.com/google/uuid"
)

// PersonalInfo carries the citizen attributes that eligibility criteria
// match against. AnnualIncome is a pointer: absent income is semantically
// different from zero income (it fails every income cap).
type PersonalInfo struct {
	Phone        string   `json:"phone,omitempty"`
	Address      string   `json:"address,omitempty"`
	IDType       string   `json:"id_type"`
	IDNumber     string   `json:"id_number"`
	DateOfBirth  string   `json:"dob,omitempty"`
	Gender       string   `json:"gender,omitempty"`
	Occupation   string   `json:"occupation,omitempty"`
	Caste        string   `json:"caste,omitempty"`
	AnnualIncome *float64 `json:"annual_income,omitempty"`
}

// CitizenWallet holds the two ring-fenced compartments.
type CitizenWallet struct {
	GovtWallet     WalletCompartment `json:"govt_wallet"`
	PersonalWallet WalletCompartment `json:"personal_wallet"`
}

// Wallet compartment names accepted on payment requests.
const (
	CompartmentPersonal = "personal_wallet"
	CompartmentGovt     = "govt_wallet"
)

// Citizen is the full citizen record.
type Citizen struct {
	AccountInfo  AccountInfo   `json:"account_info"`
	PersonalInfo PersonalInfo  `json:"personal_info"`
	WalletInfo   CitizenWallet `json:"wallet_info"`
	SchemeInfo   []string      `json:"scheme_info"`
}

// NewCitizen builds a citizen with empty wallets and server-assigned ID.
func NewCitizen(name, email, hashedPassword string, personal PersonalInfo) Citizen {
	now := time.Now().UTC()
	return Citizen{
		AccountInfo: AccountInfo{
			ID:        uuid.NewString(),
			Name:      name,
			Email:     email,
			Password:  hashedPassword,
			UserType:  UserTypeCitizen,
			CreatedAt: now,
			UpdatedAt: now,
		},
		PersonalInfo: personal,
		WalletInfo: CitizenWallet{
			GovtWallet:     WalletCompartment{TransactionIDs: []string{}},
			PersonalWallet: WalletCompartment{TransactionIDs: []string{}},
		},
		SchemeInfo: []string{},
	}
}

// Compartment returns the named wallet compartment, or false for an unknown
// name.
func (c *Citizen) Compartment(name string) (*WalletCompartment, bool) {
	switch name {
	case CompartmentPersonal:
		return &c.WalletInfo.PersonalWallet, true
	case CompartmentGovt:
		return &c.WalletInfo.GovtWallet, true
	default:
		return nil, false
	}
}

// Redacted returns a copy safe to return to API callers.
func (c Citizen) Redacted() Citizen {
	c.AccountInfo.Password = ""
	return c
}
