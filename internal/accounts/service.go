// Package accounts owns signup, login, and profile management for the three
// account roles. Wallet balances are read here but only ever changed by the
// ledger.
package accounts

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	domainerrors "sahakosh/pkg/domain-errors"

	"sahakosh/internal/domain"
	"sahakosh/internal/platform/metrics"
)

const minPasswordLength = 8

// TokenIssuer mints access tokens after a successful login.
type TokenIssuer interface {
	GenerateAccessToken(userID, userType string, expiresIn time.Duration) (string, error)
}

// Service implements account lifecycle operations.
type Service struct {
	citizens    *CitizenStore
	vendors     *VendorStore
	governments *GovernmentStore
	tokens      TokenIssuer
	tokenTTL    time.Duration
	logger      *slog.Logger
	m           *metrics.Metrics
}

func NewService(citizens *CitizenStore, vendors *VendorStore, governments *GovernmentStore, tokens TokenIssuer, tokenTTL time.Duration, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		citizens:    citizens,
		vendors:     vendors,
		governments: governments,
		tokens:      tokens,
		tokenTTL:    tokenTTL,
		logger:      logger,
		m:           m,
	}
}

// CitizenSignup is the citizen registration payload.
type CitizenSignup struct {
	Name         string
	Email        string
	Password     string
	PersonalInfo domain.PersonalInfo
}

func (s *Service) SignupCitizen(ctx context.Context, in CitizenSignup) (*domain.Citizen, error) {
	if err := validateCredentials(in.Name, in.Email, in.Password); err != nil {
		return nil, err
	}
	if in.PersonalInfo.IDType == "" || in.PersonalInfo.IDNumber == "" {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "id_type and id_number are required")
	}
	if err := s.ensureEmailFree(ctx, func() error {
		_, err := s.citizens.FindByEmail(ctx, normalizeEmail(in.Email))
		return err
	}); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	citizen := domain.NewCitizen(in.Name, normalizeEmail(in.Email), hashed, in.PersonalInfo)
	if err := s.citizens.Save(ctx, citizen); err != nil {
		return nil, err
	}

	s.m.SignupsTotal.WithLabelValues(string(domain.UserTypeCitizen)).Inc()
	s.logger.Info("citizen account created", "citizen_id", citizen.AccountInfo.ID)
	redacted := citizen.Redacted()
	return &redacted, nil
}

// VendorSignup is the vendor registration payload.
type VendorSignup struct {
	Name         string
	Email        string
	Password     string
	BusinessInfo domain.BusinessInfo
}

func (s *Service) SignupVendor(ctx context.Context, in VendorSignup) (*domain.Vendor, error) {
	if err := validateCredentials(in.Name, in.Email, in.Password); err != nil {
		return nil, err
	}
	if in.BusinessInfo.BusinessName == "" || in.BusinessInfo.LicenseType == "" {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "business_name and license_type are required")
	}
	if err := s.ensureEmailFree(ctx, func() error {
		_, err := s.vendors.FindByEmail(ctx, normalizeEmail(in.Email))
		return err
	}); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	vendor := domain.NewVendor(in.Name, normalizeEmail(in.Email), hashed, in.BusinessInfo)
	if err := s.vendors.Save(ctx, vendor); err != nil {
		return nil, err
	}

	s.m.SignupsTotal.WithLabelValues(string(domain.UserTypeVendor)).Inc()
	s.logger.Info("vendor account created", "vendor_id", vendor.AccountInfo.ID)
	redacted := vendor.Redacted()
	return &redacted, nil
}

// GovernmentSignup is the government-agency registration payload.
type GovernmentSignup struct {
	Name         string
	Email        string
	Password     string
	Department   string
	Jurisdiction string
	GovtID       string
}

func (s *Service) SignupGovernment(ctx context.Context, in GovernmentSignup) (*domain.Government, error) {
	if err := validateCredentials(in.Name, in.Email, in.Password); err != nil {
		return nil, err
	}
	if in.Department == "" {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "department is required")
	}
	if err := s.ensureEmailFree(ctx, func() error {
		_, err := s.governments.FindByEmail(ctx, normalizeEmail(in.Email))
		return err
	}); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	government := domain.NewGovernment(in.Name, normalizeEmail(in.Email), hashed, in.Department, in.Jurisdiction, in.GovtID)
	if err := s.governments.Save(ctx, government); err != nil {
		return nil, err
	}

	s.m.SignupsTotal.WithLabelValues(string(domain.UserTypeGovernment)).Inc()
	s.logger.Info("government account created", "government_id", government.AccountInfo.ID)
	redacted := government.Redacted()
	return &redacted, nil
}

// LoginInput identifies the account by role and email.
type LoginInput struct {
	Email     string
	Password  string
	UserType  string
	UserAgent string
}

// LoginResult is the issued session.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	UserID      string `json:"user_id"`
	UserType    string `json:"user_type"`
	Device      string `json:"device"`
}

// Login verifies credentials against the role's store and mints a token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if in.Email == "" || in.Password == "" {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "email and password are required")
	}

	var (
		userID string
		hashed string
	)
	email := normalizeEmail(in.Email)
	switch in.UserType {
	case string(domain.UserTypeCitizen):
		c, err := s.citizens.FindByEmail(ctx, email)
		if err != nil {
			return nil, loginFailure(err)
		}
		userID, hashed = c.AccountInfo.ID, c.AccountInfo.Password
	case string(domain.UserTypeVendor):
		v, err := s.vendors.FindByEmail(ctx, email)
		if err != nil {
			return nil, loginFailure(err)
		}
		userID, hashed = v.AccountInfo.ID, v.AccountInfo.Password
	case string(domain.UserTypeGovernment):
		g, err := s.governments.FindByEmail(ctx, email)
		if err != nil {
			return nil, loginFailure(err)
		}
		userID, hashed = g.AccountInfo.ID, g.AccountInfo.Password
	default:
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "unknown user type")
	}

	if bcrypt.CompareHashAndPassword([]byte(hashed), []byte(in.Password)) != nil {
		return nil, domainerrors.New(domainerrors.CodeUnauthorized, "invalid email or password")
	}

	token, err := s.tokens.GenerateAccessToken(userID, in.UserType, s.tokenTTL)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "issue access token", err)
	}

	device := ParseUserAgent(in.UserAgent)
	s.logger.Info("login", "user_id", userID, "user_type", in.UserType, "device", device)
	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokenTTL.Seconds()),
		UserID:      userID,
		UserType:    in.UserType,
		Device:      device,
	}, nil
}

func (s *Service) GetCitizen(ctx context.Context, id string) (*domain.Citizen, error) {
	c, err := s.citizens.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	redacted := c.Redacted()
	return &redacted, nil
}

func (s *Service) GetVendor(ctx context.Context, id string) (*domain.Vendor, error) {
	v, err := s.vendors.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	redacted := v.Redacted()
	return &redacted, nil
}

func (s *Service) GetGovernment(ctx context.Context, id string) (*domain.Government, error) {
	g, err := s.governments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	redacted := g.Redacted()
	return &redacted, nil
}

// CitizenProfileUpdate carries the editable profile fields. Nil means
// leave unchanged.
type CitizenProfileUpdate struct {
	Name         *string
	Phone        *string
	Address      *string
	DateOfBirth  *string
	Gender       *string
	Occupation   *string
	Caste        *string
	AnnualIncome *float64
}

// UpdateCitizenProfile applies the provided fields as a dotted-path merge.
// An update with no fields is rejected rather than silently ignored.
func (s *Service) UpdateCitizenProfile(ctx context.Context, id string, in CitizenProfileUpdate) (*domain.Citizen, error) {
	fields := map[string]any{}
	if in.Name != nil {
		fields["account_info.name"] = *in.Name
	}
	if in.Phone != nil {
		fields["personal_info.phone"] = *in.Phone
	}
	if in.Address != nil {
		fields["personal_info.address"] = *in.Address
	}
	if in.DateOfBirth != nil {
		fields["personal_info.dob"] = *in.DateOfBirth
	}
	if in.Gender != nil {
		fields["personal_info.gender"] = *in.Gender
	}
	if in.Occupation != nil {
		fields["personal_info.occupation"] = *in.Occupation
	}
	if in.Caste != nil {
		fields["personal_info.caste"] = *in.Caste
	}
	if in.AnnualIncome != nil {
		fields["personal_info.annual_income"] = *in.AnnualIncome
	}
	if len(fields) == 0 {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "no fields to update")
	}
	fields["account_info.updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.citizens.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.GetCitizen(ctx, id)
}

// VendorProfileUpdate carries the editable vendor fields. Nil means leave
// unchanged.
type VendorProfileUpdate struct {
	Name     *string
	Phone    *string
	Address  *string
	Category *string
}

func (s *Service) UpdateVendorProfile(ctx context.Context, id string, in VendorProfileUpdate) (*domain.Vendor, error) {
	fields := map[string]any{}
	if in.Name != nil {
		fields["account_info.name"] = *in.Name
	}
	if in.Phone != nil {
		fields["business_info.phone"] = *in.Phone
	}
	if in.Address != nil {
		fields["business_info.address"] = *in.Address
	}
	if in.Category != nil {
		fields["business_info.category"] = *in.Category
	}
	if len(fields) == 0 {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "no fields to update")
	}
	fields["account_info.updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.vendors.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.GetVendor(ctx, id)
}

// GovernmentProfileUpdate carries the editable government-account fields.
// Nil means leave unchanged.
type GovernmentProfileUpdate struct {
	Name         *string
	Department   *string
	Jurisdiction *string
}

func (s *Service) UpdateGovernmentProfile(ctx context.Context, id string, in GovernmentProfileUpdate) (*domain.Government, error) {
	fields := map[string]any{}
	if in.Name != nil {
		fields["account_info.name"] = *in.Name
	}
	if in.Department != nil {
		fields["account_info.department"] = *in.Department
	}
	if in.Jurisdiction != nil {
		fields["account_info.jurisdiction"] = *in.Jurisdiction
	}
	if len(fields) == 0 {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "no fields to update")
	}
	fields["account_info.updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.governments.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.GetGovernment(ctx, id)
}

// CitizenWallet returns both compartments with balances and history IDs.
func (s *Service) CitizenWallet(ctx context.Context, id string) (*domain.CitizenWallet, error) {
	c, err := s.citizens.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &c.WalletInfo, nil
}

func (s *Service) VendorWallet(ctx context.Context, id string) (*domain.VendorWallet, error) {
	v, err := s.vendors.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &v.WalletInfo, nil
}

func (s *Service) GovernmentWallet(ctx context.Context, id string) (*domain.GovernmentWallet, error) {
	g, err := s.governments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &g.WalletInfo, nil
}

// ListVendors returns the vendor directory, redacted.
func (s *Service) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	vendors, err := s.vendors.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range vendors {
		vendors[i] = vendors[i].Redacted()
	}
	return vendors, nil
}

// ListCitizens returns all citizen records, redacted. Restricted to
// government callers at the transport layer.
func (s *Service) ListCitizens(ctx context.Context) ([]domain.Citizen, error) {
	citizens, err := s.citizens.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range citizens {
		citizens[i] = citizens[i].Redacted()
	}
	return citizens, nil
}

func (s *Service) ensureEmailFree(ctx context.Context, lookup func() error) error {
	err := lookup()
	if err == nil {
		return domainerrors.New(domainerrors.CodeConflict, "an account with this email already exists")
	}
	if domainerrors.HasCode(err, domainerrors.CodeNotFound) {
		return nil
	}
	return err
}

// loginFailure hides whether the email exists: a missing account reads the
// same as a wrong password. Storage outages pass through unchanged.
func loginFailure(err error) error {
	if domainerrors.HasCode(err, domainerrors.CodeNotFound) {
		return domainerrors.New(domainerrors.CodeUnauthorized, "invalid email or password")
	}
	return err
}

func validateCredentials(name, email, password string) error {
	if name == "" || email == "" || password == "" {
		return domainerrors.New(domainerrors.CodeBadRequest, "name, email, and password are required")
	}
	if !strings.Contains(email, "@") {
		return domainerrors.New(domainerrors.CodeBadRequest, "invalid email address")
	}
	if len(password) < minPasswordLength {
		return domainerrors.New(domainerrors.CodeBadRequest, "password must be at least 8 characters")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", domainerrors.Wrap(domainerrors.CodeInternal, "hash password", err)
	}
	return string(hashed), nil
}
