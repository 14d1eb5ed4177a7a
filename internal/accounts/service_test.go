package accounts

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "sahakosh/pkg/domain-errors"

	"sahakosh/internal/docstore"
	"sahakosh/internal/domain"
	jwttoken "sahakosh/internal/jwt_token"
	"sahakosh/internal/platform/metrics"
)

func newAccounts(t *testing.T) (*Service, *jwttoken.JWTService) {
	t.Helper()
	docs := docstore.NewMemory()
	tokens := jwttoken.NewJWTService("test-signing-key", "sahakosh-test")
	svc := NewService(
		NewCitizenStore(docs),
		NewVendorStore(docs),
		NewGovernmentStore(docs),
		tokens,
		time.Hour,
		slog.New(slog.DiscardHandler),
		metrics.New(prometheus.NewRegistry()),
	)
	return svc, tokens
}

func citizenSignup() CitizenSignup {
	return CitizenSignup{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Password: "correct-horse",
		PersonalInfo: domain.PersonalInfo{
			IDType:     "national_id",
			IDNumber:   "N-1234",
			Occupation: "farmer",
		},
	}
}

func TestSignupCitizen(t *testing.T) {
	svc, _ := newAccounts(t)
	ctx := context.Background()

	citizen, err := svc.SignupCitizen(ctx, citizenSignup())
	require.NoError(t, err)

	assert.NotEmpty(t, citizen.AccountInfo.ID)
	assert.Equal(t, domain.UserTypeCitizen, citizen.AccountInfo.UserType)
	assert.Empty(t, citizen.AccountInfo.Password, "response must not carry credentials")
	assert.Zero(t, citizen.WalletInfo.PersonalWallet.Balance)
	assert.Zero(t, citizen.WalletInfo.GovtWallet.Balance)
	assert.Empty(t, citizen.SchemeInfo)

	stored, err := svc.citizens.FindByID(ctx, citizen.AccountInfo.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.AccountInfo.Password)
	assert.NotEqual(t, "correct-horse", stored.AccountInfo.Password, "password must be hashed at rest")
}

func TestSignupCitizen_DuplicateEmail(t *testing.T) {
	svc, _ := newAccounts(t)
	ctx := context.Background()

	_, err := svc.SignupCitizen(ctx, citizenSignup())
	require.NoError(t, err)

	dup := citizenSignup()
	dup.Email = "ASHA@example.com"
	_, err = svc.SignupCitizen(ctx, dup)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeConflict))
}

func TestSignup_Validation(t *testing.T) {
	svc, _ := newAccounts(t)
	ctx := context.Background()

	t.Run("missing name", func(t *testing.T) {
		in := citizenSignup()
		in.Name = ""
		_, err := svc.SignupCitizen(ctx, in)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})

	t.Run("bad email", func(t *testing.T) {
		in := citizenSignup()
		in.Email = "not-an-email"
		_, err := svc.SignupCitizen(ctx, in)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})

	t.Run("short password", func(t *testing.T) {
		in := citizenSignup()
		in.Password = "short"
		_, err := svc.SignupCitizen(ctx, in)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})

	t.Run("missing id document", func(t *testing.T) {
		in := citizenSignup()
		in.PersonalInfo.IDNumber = ""
		_, err := svc.SignupCitizen(ctx, in)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})

	t.Run("vendor without license type", func(t *testing.T) {
		_, err := svc.SignupVendor(ctx, VendorSignup{
			Name: "Ram", Email: "ram@example.com", Password: "long-enough",
			BusinessInfo: domain.BusinessInfo{BusinessName: "Ram Stores"},
		})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})

	t.Run("government without department", func(t *testing.T) {
		_, err := svc.SignupGovernment(ctx, GovernmentSignup{
			Name: "Dept", Email: "dept@example.com", Password: "long-enough",
		})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})
}

func TestSignupVendorAndGovernment(t *testing.T) {
	svc, _ := newAccounts(t)
	ctx := context.Background()

	vendor, err := svc.SignupVendor(ctx, VendorSignup{
		Name: "Ram", Email: "ram@example.com", Password: "long-enough",
		BusinessInfo: domain.BusinessInfo{BusinessName: "Ram Stores", LicenseType: "government"},
	})
	require.NoError(t, err)
	assert.True(t, vendor.GovernmentLicensed())
	assert.Empty(t, vendor.AccountInfo.Password)

	government, err := svc.SignupGovernment(ctx, GovernmentSignup{
		Name: "Dept of Agriculture", Email: "agri@gov.example", Password: "long-enough",
		Department: "agriculture", Jurisdiction: "gandaki", GovtID: "GOV-7",
	})
	require.NoError(t, err)
	assert.Equal(t, "agriculture", government.AccountInfo.Department)
	assert.Empty(t, government.WalletInfo.SchemeIDs)
}

func TestLogin(t *testing.T) {
	svc, tokens := newAccounts(t)
	ctx := context.Background()

	citizen, err := svc.SignupCitizen(ctx, citizenSignup())
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		result, err := svc.Login(ctx, LoginInput{
			Email:     "asha@example.com",
			Password:  "correct-horse",
			UserType:  "citizen",
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
		})
		require.NoError(t, err)
		assert.Equal(t, "bearer", result.TokenType)
		assert.Equal(t, citizen.AccountInfo.ID, result.UserID)
		assert.Equal(t, 3600, result.ExpiresIn)
		assert.Contains(t, result.Device, "Firefox")

		claims, err := tokens.ValidateToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, citizen.AccountInfo.ID, claims.UserID)
		assert.Equal(t, "citizen", claims.UserType)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "wrong", UserType: "citizen"})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeUnauthorized))
	})

	t.Run("unknown email looks like wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "whatever-long", UserType: "citizen"})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeUnauthorized))
	})

	t.Run("unknown user type", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "correct-horse", UserType: "admin"})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})
}

func TestUpdateCitizenProfile(t *testing.T) {
	svc, _ := newAccounts(t)
	ctx := context.Background()

	citizen, err := svc.SignupCitizen(ctx, citizenSignup())
	require.NoError(t, err)

	occupation := "teacher"
	income := 250000.0
	updated, err := svc.UpdateCitizenProfile(ctx, citizen.AccountInfo.ID, CitizenProfileUpdate{
		Occupation:   &occupation,
		AnnualIncome: &income,
	})
	require.NoError(t, err)
	assert.Equal(t, "teacher", updated.PersonalInfo.Occupation)
	require.NotNil(t, updated.PersonalInfo.AnnualIncome)
	assert.Equal(t, 250000.0, *updated.PersonalInfo.AnnualIncome)
	assert.Equal(t, "N-1234", updated.PersonalInfo.IDNumber, "untouched fields must survive")

	t.Run("empty update rejected", func(t *testing.T) {
		_, err := svc.UpdateCitizenProfile(ctx, citizen.AccountInfo.ID, CitizenProfileUpdate{})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})

	t.Run("missing citizen", func(t *testing.T) {
		_, err := svc.UpdateCitizenProfile(ctx, "ghost", CitizenProfileUpdate{Occupation: &occupation})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeNotFound))
	})
}

func TestUpdateVendorProfile(t *testing.T) {
	svc, _ := newAccounts(t)
	ctx := context.Background()

	vendor, err := svc.SignupVendor(ctx, VendorSignup{
		Name: "Ram", Email: "ram@example.com", Password: "long-enough",
		BusinessInfo: domain.BusinessInfo{BusinessName: "Ram Stores", LicenseType: "government"},
	})
	require.NoError(t, err)

	phone := "9841000000"
	category := "groceries"
	updated, err := svc.UpdateVendorProfile(ctx, vendor.AccountInfo.ID, VendorProfileUpdate{
		Phone:    &phone,
		Category: &category,
	})
	require.NoError(t, err)
	assert.Equal(t, "9841000000", updated.BusinessInfo.Phone)
	assert.Equal(t, "groceries", updated.BusinessInfo.Category)
	assert.Equal(t, "government", updated.BusinessInfo.LicenseType, "untouched fields must survive")
	assert.Empty(t, updated.AccountInfo.Password)

	t.Run("empty update rejected", func(t *testing.T) {
		_, err := svc.UpdateVendorProfile(ctx, vendor.AccountInfo.ID, VendorProfileUpdate{})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})

	t.Run("missing vendor", func(t *testing.T) {
		_, err := svc.UpdateVendorProfile(ctx, "ghost", VendorProfileUpdate{Phone: &phone})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeNotFound))
	})
}

func TestUpdateGovernmentProfile(t *testing.T) {
	svc, _ := newAccounts(t)
	ctx := context.Background()

	government, err := svc.SignupGovernment(ctx, GovernmentSignup{
		Name: "Dept of Agriculture", Email: "agri@gov.example", Password: "long-enough",
		Department: "agriculture", Jurisdiction: "gandaki", GovtID: "GOV-7",
	})
	require.NoError(t, err)

	jurisdiction := "bagmati"
	updated, err := svc.UpdateGovernmentProfile(ctx, government.AccountInfo.ID, GovernmentProfileUpdate{
		Jurisdiction: &jurisdiction,
	})
	require.NoError(t, err)
	assert.Equal(t, "bagmati", updated.AccountInfo.Jurisdiction)
	assert.Equal(t, "agriculture", updated.AccountInfo.Department, "untouched fields must survive")
	assert.Empty(t, updated.AccountInfo.Password)

	t.Run("empty update rejected", func(t *testing.T) {
		_, err := svc.UpdateGovernmentProfile(ctx, government.AccountInfo.ID, GovernmentProfileUpdate{})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})

	t.Run("missing account", func(t *testing.T) {
		_, err := svc.UpdateGovernmentProfile(ctx, "ghost", GovernmentProfileUpdate{Jurisdiction: &jurisdiction})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeNotFound))
	})
}

func TestWalletViewsAndDirectories(t *testing.T) {
	svc, _ := newAccounts(t)
	ctx := context.Background()

	citizen, err := svc.SignupCitizen(ctx, citizenSignup())
	require.NoError(t, err)
	_, err = svc.SignupVendor(ctx, VendorSignup{
		Name: "Ram", Email: "ram@example.com", Password: "long-enough",
		BusinessInfo: domain.BusinessInfo{BusinessName: "Ram Stores", LicenseType: "retail"},
	})
	require.NoError(t, err)

	wallet, err := svc.CitizenWallet(ctx, citizen.AccountInfo.ID)
	require.NoError(t, err)
	assert.Zero(t, wallet.PersonalWallet.Balance)
	assert.NotNil(t, wallet.PersonalWallet.TransactionIDs)

	_, err = svc.CitizenWallet(ctx, "ghost")
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeNotFound))

	vendors, err := svc.ListVendors(ctx)
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	assert.Empty(t, vendors[0].AccountInfo.Password)

	citizens, err := svc.ListCitizens(ctx)
	require.NoError(t, err)
	require.Len(t, citizens, 1)
	assert.Empty(t, citizens[0].AccountInfo.Password)
}
