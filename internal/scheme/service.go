// Package scheme manages welfare schemes: creation and lifecycle by
// government accounts, eligibility-gated enrollment by citizens, and bulk
// disbursement to enrolled beneficiaries through the ledger.
package scheme

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	domainerrors "sahakosh/pkg/domain-errors"

	"sahakosh/internal/accounts"
	"sahakosh/internal/docstore"
	"sahakosh/internal/domain"
	"sahakosh/internal/eligibility"
	"sahakosh/internal/ledger"
)

// Disburser is the ledger operation the scheme service drives.
type Disburser interface {
	Disburse(ctx context.Context, in ledger.DisburseInput) (*ledger.DisburseResult, error)
}

// Service implements scheme operations.
type Service struct {
	schemes  *SchemeStore
	citizens *accounts.CitizenStore
	docs     docstore.Store
	ledger   Disburser
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(schemes *SchemeStore, citizens *accounts.CitizenStore, docs docstore.Store, disburser Disburser, logger *slog.Logger) *Service {
	return &Service{
		schemes:  schemes,
		citizens: citizens,
		docs:     docs,
		ledger:   disburser,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateInput is the scheme creation payload. An empty status defaults to
// active.
type CreateInput struct {
	Name        string
	Description string
	Amount      float64
	Criteria    domain.EligibilityCriteria
	Tags        []string
	Status      domain.SchemeStatus
}

// Create registers a new scheme under the government account and records
// its ID on the owner's wallet.
func (s *Service) Create(ctx context.Context, govtID string, in CreateInput) (*domain.Scheme, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "scheme name is required")
	}
	if in.Amount <= 0 {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "scheme amount must be positive")
	}
	if in.Status != "" && !in.Status.Valid() {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "unknown scheme status")
	}

	scheme := domain.NewScheme(in.Name, in.Description, govtID, in.Amount, in.Criteria, in.Tags, in.Status)
	if err := s.schemes.Save(ctx, scheme); err != nil {
		return nil, err
	}
	err := s.docs.ArrayUnion(ctx, docstore.KindGovernment, govtID, "wallet_info.scheme_ids", []any{scheme.ID})
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "register scheme on government account", err)
	}

	s.logger.Info("scheme created", "scheme_id", scheme.ID, "govt_id", govtID, "status", scheme.Status)
	return &scheme, nil
}

// Get returns one scheme the government account owns. Reads cross the
// tenancy boundary just like writes, so a foreign scheme is forbidden, not
// served.
func (s *Service) Get(ctx context.Context, govtID, schemeID string) (*domain.Scheme, error) {
	return s.ownedScheme(ctx, govtID, schemeID)
}

// UpdateInput carries the mutable scheme fields. Nil means leave unchanged;
// Criteria replaces the whole criteria block when set. GovtID is immutable.
type UpdateInput struct {
	Name        *string
	Description *string
	Amount      *float64
	Criteria    *domain.EligibilityCriteria
	Tags        []string
	Status      *domain.SchemeStatus
}

// Update edits a scheme the government account owns.
func (s *Service) Update(ctx context.Context, govtID, schemeID string, in UpdateInput) (*domain.Scheme, error) {
	scheme, err := s.ownedScheme(ctx, govtID, schemeID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domainerrors.New(domainerrors.CodeBadRequest, "scheme name is required")
		}
		fields["name"] = *in.Name
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Amount != nil {
		if *in.Amount <= 0 {
			return nil, domainerrors.New(domainerrors.CodeBadRequest, "scheme amount must be positive")
		}
		fields["amount"] = *in.Amount
	}
	if in.Criteria != nil {
		criteriaDoc, err := domain.ToDoc(*in.Criteria)
		if err != nil {
			return nil, domainerrors.Wrap(domainerrors.CodeInternal, "encode criteria", err)
		}
		fields["eligibility_criteria"] = criteriaDoc
	}
	if in.Tags != nil {
		fields["tags"] = toAnySlice(in.Tags)
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, domainerrors.New(domainerrors.CodeBadRequest, "unknown scheme status")
		}
		fields["status"] = string(*in.Status)
	}
	if len(fields) == 0 {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "no fields to update")
	}
	fields["updated_at"] = s.now().UTC().Format(time.RFC3339Nano)

	if err := s.schemes.Update(ctx, scheme.ID, fields); err != nil {
		return nil, err
	}
	return s.schemes.FindByID(ctx, scheme.ID)
}

// Deactivate closes the scheme to new enrollment and disbursement. Enrolled
// beneficiaries keep their enrollment; reactivation is a status update.
func (s *Service) Deactivate(ctx context.Context, govtID, schemeID string) (*domain.Scheme, error) {
	status := domain.SchemeStatusInactive
	return s.Update(ctx, govtID, schemeID, UpdateInput{Status: &status})
}

// ListByGovernment returns the government account's schemes.
func (s *Service) ListByGovernment(ctx context.Context, govtID string) ([]domain.Scheme, error) {
	return s.schemes.ListByGovernment(ctx, govtID)
}

// Listing is one scheme as shown to a citizen: the record plus the computed
// eligibility verdict. Enrolled schemes always appear, whatever the current
// evaluation says.
type Listing struct {
	Scheme           domain.Scheme                `json:"scheme"`
	Eligible         bool                         `json:"eligible"`
	AlreadyEnrolled  bool                         `json:"already_enrolled"`
	EligibilityCheck map[string]eligibility.Check `json:"eligibility_check"`
}

// EligibleSchemes evaluates the citizen against every active scheme, plus
// any scheme they are already enrolled in. The evaluation here is for
// display; the binding check happens at enrollment.
func (s *Service) EligibleSchemes(ctx context.Context, citizenID string) ([]Listing, error) {
	citizen, err := s.citizens.FindByID(ctx, citizenID)
	if err != nil {
		return nil, err
	}

	active, err := s.schemes.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Scheme, len(active))
	for _, scheme := range active {
		byID[scheme.ID] = scheme
	}
	// Enrolled schemes stay visible even after deactivation.
	for _, schemeID := range citizen.SchemeInfo {
		if _, ok := byID[schemeID]; ok {
			continue
		}
		enrolled, err := s.schemes.FindByID(ctx, schemeID)
		if err != nil {
			if domainerrors.HasCode(err, domainerrors.CodeNotFound) {
				continue
			}
			return nil, err
		}
		byID[enrolled.ID] = *enrolled
	}

	now := s.now()
	listings := make([]Listing, 0, len(byID))
	for _, scheme := range byID {
		result := eligibility.Evaluate(scheme.EligibilityCriteria, citizen.PersonalInfo, now)
		enrolled := scheme.HasBeneficiary(citizenID)
		if !result.Eligible && !enrolled {
			continue
		}
		listings = append(listings, Listing{
			Scheme:           scheme,
			Eligible:         result.Eligible,
			AlreadyEnrolled:  enrolled,
			EligibilityCheck: result.Checks,
		})
	}
	sortListings(listings)
	return listings, nil
}

// Enroll adds the citizen as a beneficiary after a binding eligibility
// check. Enrollment is one-time: later profile changes never revoke it.
func (s *Service) Enroll(ctx context.Context, citizenID, schemeID string) (*domain.Scheme, error) {
	citizen, err := s.citizens.FindByID(ctx, citizenID)
	if err != nil {
		return nil, err
	}
	scheme, err := s.schemes.FindByID(ctx, schemeID)
	if err != nil {
		return nil, err
	}

	if scheme.Status != domain.SchemeStatusActive {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "scheme is not open for enrollment")
	}
	if scheme.HasBeneficiary(citizenID) {
		return nil, domainerrors.New(domainerrors.CodeConflict, "already enrolled in this scheme")
	}

	result := eligibility.Evaluate(scheme.EligibilityCriteria, citizen.PersonalInfo, s.now())
	if !result.Eligible {
		return nil, domainerrors.New(domainerrors.CodeForbidden,
			"not eligible: "+strings.Join(result.FailedCriteria(), ", "))
	}

	err = s.docs.ApplyBatch(ctx, []docstore.Op{
		{Kind: docstore.KindScheme, ID: schemeID, Unions: map[string][]any{"beneficiaries": {citizenID}}},
		{Kind: docstore.KindCitizen, ID: citizenID, Unions: map[string][]any{"scheme_info": {schemeID}}},
	})
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "record enrollment", err)
	}

	s.logger.Info("citizen enrolled", "scheme_id", schemeID, "citizen_id", citizenID)
	return s.schemes.FindByID(ctx, schemeID)
}

// Beneficiaries returns the enrolled citizens of a scheme the government
// account owns, redacted.
func (s *Service) Beneficiaries(ctx context.Context, govtID, schemeID string) ([]domain.Citizen, error) {
	scheme, err := s.ownedScheme(ctx, govtID, schemeID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Citizen, 0, len(scheme.Beneficiaries))
	for _, citizenID := range scheme.Beneficiaries {
		citizen, err := s.citizens.FindByID(ctx, citizenID)
		if err != nil {
			if domainerrors.HasCode(err, domainerrors.CodeNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, citizen.Redacted())
	}
	return out, nil
}

// Disburse pays every enrolled beneficiary through the ledger. A zero
// amountPerUser falls back to the scheme's configured amount.
func (s *Service) Disburse(ctx context.Context, govtID, schemeID string, amountPerUser float64) (*ledger.DisburseResult, error) {
	scheme, err := s.ownedScheme(ctx, govtID, schemeID)
	if err != nil {
		return nil, err
	}
	if scheme.Status != domain.SchemeStatusActive {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "scheme is not active")
	}
	if amountPerUser == 0 {
		amountPerUser = scheme.Amount
	}

	return s.ledger.Disburse(ctx, ledger.DisburseInput{
		GovernmentID:  govtID,
		SchemeID:      scheme.ID,
		Beneficiaries: scheme.Beneficiaries,
		AmountPerUser: amountPerUser,
		Description:   scheme.Name,
	})
}

func (s *Service) ownedScheme(ctx context.Context, govtID, schemeID string) (*domain.Scheme, error) {
	scheme, err := s.schemes.FindByID(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	if scheme.GovtID != govtID {
		return nil, domainerrors.New(domainerrors.CodeForbidden, "scheme belongs to another government account")
	}
	return scheme, nil
}

// sortListings gives the listing a stable display order: enrolled schemes
// first, then by name.
func sortListings(listings []Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		if listings[i].AlreadyEnrolled != listings[j].AlreadyEnrolled {
			return listings[i].AlreadyEnrolled
		}
		return listings[i].Scheme.Name < listings[j].Scheme.Name
	})
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
