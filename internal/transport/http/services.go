package httptransport

import (
	"context"

	"sahakosh/internal/accounts"
	"sahakosh/internal/domain"
	"sahakosh/internal/ledger"
	"sahakosh/internal/scheme"
)

// The handler layer talks to services through these interfaces so tests can
// substitute fakes without standing up storage.

// AccountService covers signup, login, profiles, wallets, and directories.
type AccountService interface {
	SignupCitizen(ctx context.Context, in accounts.CitizenSignup) (*domain.Citizen, error)
	SignupVendor(ctx context.Context, in accounts.VendorSignup) (*domain.Vendor, error)
	SignupGovernment(ctx context.Context, in accounts.GovernmentSignup) (*domain.Government, error)
	Login(ctx context.Context, in accounts.LoginInput) (*accounts.LoginResult, error)

	GetCitizen(ctx context.Context, id string) (*domain.Citizen, error)
	GetVendor(ctx context.Context, id string) (*domain.Vendor, error)
	GetGovernment(ctx context.Context, id string) (*domain.Government, error)
	UpdateCitizenProfile(ctx context.Context, id string, in accounts.CitizenProfileUpdate) (*domain.Citizen, error)
	UpdateVendorProfile(ctx context.Context, id string, in accounts.VendorProfileUpdate) (*domain.Vendor, error)
	UpdateGovernmentProfile(ctx context.Context, id string, in accounts.GovernmentProfileUpdate) (*domain.Government, error)

	CitizenWallet(ctx context.Context, id string) (*domain.CitizenWallet, error)
	VendorWallet(ctx context.Context, id string) (*domain.VendorWallet, error)
	GovernmentWallet(ctx context.Context, id string) (*domain.GovernmentWallet, error)

	ListVendors(ctx context.Context) ([]domain.Vendor, error)
	ListCitizens(ctx context.Context) ([]domain.Citizen, error)
}

// LedgerService covers payments and transaction history.
type LedgerService interface {
	Transfer(ctx context.Context, in ledger.TransferInput) (*domain.Transaction, error)
	Withdraw(ctx context.Context, in ledger.WithdrawInput) (*domain.Transaction, error)
	Transactions(ctx context.Context, partyID string) ([]domain.Transaction, error)
	AllTransactions(ctx context.Context) ([]domain.Transaction, error)
}

// SchemeService covers scheme lifecycle, enrollment, and disbursement.
type SchemeService interface {
	Create(ctx context.Context, govtID string, in scheme.CreateInput) (*domain.Scheme, error)
	Get(ctx context.Context, govtID, schemeID string) (*domain.Scheme, error)
	Update(ctx context.Context, govtID, schemeID string, in scheme.UpdateInput) (*domain.Scheme, error)
	Deactivate(ctx context.Context, govtID, schemeID string) (*domain.Scheme, error)
	ListByGovernment(ctx context.Context, govtID string) ([]domain.Scheme, error)
	EligibleSchemes(ctx context.Context, citizenID string) ([]scheme.Listing, error)
	Enroll(ctx context.Context, citizenID, schemeID string) (*domain.Scheme, error)
	Beneficiaries(ctx context.Context, govtID, schemeID string) ([]domain.Citizen, error)
	Disburse(ctx context.Context, govtID, schemeID string, amountPerUser float64) (*ledger.DisburseResult, error)
}
