package domain

import (
	"time"

	"github.com/google/uuid"
)

// SchemeStatus is the scheme lifecycle state. Draft and inactive schemes are
// excluded from eligibility listings and disbursement; inactive schemes can
// be reactivated via update.
type SchemeStatus string

const (
	SchemeStatusActive   SchemeStatus = "active"
	SchemeStatusInactive SchemeStatus = "inactive"
	SchemeStatusDraft    SchemeStatus = "draft"
)

// Valid reports whether s is one of the three lifecycle states.
func (s SchemeStatus) Valid() bool {
	switch s {
	case SchemeStatusActive, SchemeStatusInactive, SchemeStatusDraft:
		return true
	}
	return false
}

// EligibilityCriteria is the declarative predicate vocabulary. Every key is
// optional; a nil field is skipped entirely during evaluation. Sentinels
// "any" (occupation, gender) and "all" (caste, state, district, city) always
// pass. AnnualIncome is a maximum; MinAge/MaxAge derive from date of birth.
type EligibilityCriteria struct {
	Occupation   *string  `json:"occupation,omitempty"`
	Gender       *string  `json:"gender,omitempty"`
	Caste        *string  `json:"caste,omitempty"`
	AnnualIncome *float64 `json:"annual_income,omitempty"`
	MinAge       *int     `json:"min_age,omitempty"`
	MaxAge       *int     `json:"max_age,omitempty"`
	State        *string  `json:"state,omitempty"`
	District     *string  `json:"district,omitempty"`
	City         *string  `json:"city,omitempty"`
}

// Scheme is a government welfare scheme. GovtID is immutable once created.
// Beneficiaries holds enrolled citizen IDs, each at most once; "eligible" is
// computed, never persisted.
type Scheme struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Description         string              `json:"description"`
	GovtID              string              `json:"govt_id"`
	Amount              float64             `json:"amount"`
	EligibilityCriteria EligibilityCriteria `json:"eligibility_criteria"`
	Tags                []string            `json:"tags"`
	Beneficiaries       []string            `json:"beneficiaries"`
	Status              SchemeStatus        `json:"status"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// NewScheme builds a scheme owned by govtID. Status defaults to active when
// empty, matching the signup-era records.
func NewScheme(name, description, govtID string, amount float64, criteria EligibilityCriteria, tags []string, status SchemeStatus) Scheme {
	if status == "" {
		status = SchemeStatusActive
	}
	if tags == nil {
		tags = []string{}
	}
	now := time.Now().UTC()
	return Scheme{
		ID:                  uuid.NewString(),
		Name:                name,
		Description:         description,
		GovtID:              govtID,
		Amount:              amount,
		EligibilityCriteria: criteria,
		Tags:                tags,
		Beneficiaries:       []string{},
		Status:              status,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// HasBeneficiary reports whether citizenID is enrolled.
func (s Scheme) HasBeneficiary(citizenID string) bool {
	for _, id := range s.Beneficiaries {
		if id == citizenID {
			return true
		}
	}
	return false
}
