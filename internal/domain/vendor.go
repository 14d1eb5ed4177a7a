package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BusinessInfo carries the vendor's business attributes. LicenseType
// "government" marks vendors approved to sell subsidized categories.
type BusinessInfo struct {
	BusinessName string `json:"business_name"`
	BusinessID   string `json:"business_id,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	LicenseType  string `json:"license_type"`
	Category     string `json:"category,omitempty"`
}

// VendorWallet is a single balance with its transaction history.
type VendorWallet struct {
	Balance        float64  `json:"balance"`
	TransactionIDs []string `json:"transaction_ids"`
}

// Vendor is the full vendor record.
type Vendor struct {
	AccountInfo  AccountInfo  `json:"account_info"`
	BusinessInfo BusinessInfo `json:"business_info"`
	WalletInfo   VendorWallet `json:"wallet_info"`
}

// NewVendor builds a vendor with a zero balance and server-assigned ID.
func NewVendor(name, email, hashedPassword string, business BusinessInfo) Vendor {
	now := time.Now().UTC()
	return Vendor{
		AccountInfo: AccountInfo{
			ID:        uuid.NewString(),
			Name:      name,
			Email:     email,
			Password:  hashedPassword,
			UserType:  UserTypeVendor,
			CreatedAt: now,
			UpdatedAt: now,
		},
		BusinessInfo: business,
		WalletInfo:   VendorWallet{TransactionIDs: []string{}},
	}
}

// GovernmentLicensed reports whether the vendor may accept payments in
// subsidized categories.
func (v Vendor) GovernmentLicensed() bool {
	return strings.EqualFold(v.BusinessInfo.LicenseType, "government")
}

// Redacted returns a copy safe to return to API callers.
func (v Vendor) Redacted() Vendor {
	v.AccountInfo.Password = ""
	return v
}
