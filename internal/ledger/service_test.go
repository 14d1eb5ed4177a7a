package ledger

//go:generate mockgen -source=postgres.go -destination=mocks/mocks.go -package=mocks Archive

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainerrors "sahakosh/pkg/domain-errors"

	"sahakosh/internal/docstore"
	"sahakosh/internal/domain"
	"sahakosh/internal/ledger/mocks"
	"sahakosh/internal/platform/metrics"
	"sahakosh/internal/txlog"
)

func newLedger(t *testing.T) (*Service, *docstore.Memory, *txlog.Recorder) {
	t.Helper()
	docs := docstore.NewMemory()
	recorder := txlog.NewRecorder()
	svc := NewService(
		docs,
		NewTransactionStore(docs),
		NopArchive{},
		recorder,
		slog.New(slog.DiscardHandler),
		metrics.New(prometheus.NewRegistry()),
		4,
	)
	return svc, docs, recorder
}

func seedCitizen(t *testing.T, docs *docstore.Memory, id string, personal, govt float64) {
	t.Helper()
	c := domain.NewCitizen("Asha", id+"@example.com", "hashed", domain.PersonalInfo{IDType: "national_id", IDNumber: "N-" + id})
	c.AccountInfo.ID = id
	c.WalletInfo.PersonalWallet.Balance = personal
	c.WalletInfo.GovtWallet.Balance = govt
	doc, err := domain.ToDoc(c)
	require.NoError(t, err)
	require.NoError(t, docs.Set(context.Background(), docstore.KindCitizen, id, doc))
}

func seedVendor(t *testing.T, docs *docstore.Memory, id, licenseType string, balance float64) {
	t.Helper()
	v := domain.NewVendor("Ram Stores", id+"@example.com", "hashed", domain.BusinessInfo{
		BusinessName: "Ram Stores",
		LicenseType:  licenseType,
	})
	v.AccountInfo.ID = id
	v.WalletInfo.Balance = balance
	doc, err := domain.ToDoc(v)
	require.NoError(t, err)
	require.NoError(t, docs.Set(context.Background(), docstore.KindVendor, id, doc))
}

func seedGovernment(t *testing.T, docs *docstore.Memory, id string, balance float64) {
	t.Helper()
	g := domain.NewGovernment("Dept of Agriculture", id+"@example.com", "hashed", "agriculture", "gandaki", "GOV-1")
	g.AccountInfo.ID = id
	g.WalletInfo.Balance = balance
	doc, err := domain.ToDoc(g)
	require.NoError(t, err)
	require.NoError(t, docs.Set(context.Background(), docstore.KindGovernment, id, doc))
}

func citizenBalance(t *testing.T, docs *docstore.Memory, id, compartment string) float64 {
	t.Helper()
	doc, err := docs.Get(context.Background(), docstore.KindCitizen, id)
	require.NoError(t, err)
	var c domain.Citizen
	require.NoError(t, domain.FromDoc(doc, &c))
	w, ok := c.Compartment(compartment)
	require.True(t, ok)
	return w.Balance
}

func governmentBalance(t *testing.T, docs *docstore.Memory, id string) float64 {
	t.Helper()
	doc, err := docs.Get(context.Background(), docstore.KindGovernment, id)
	require.NoError(t, err)
	var g domain.Government
	require.NoError(t, domain.FromDoc(doc, &g))
	return g.WalletInfo.Balance
}

func TestTransfer_PersonalWallet(t *testing.T) {
	svc, docs, recorder := newLedger(t)
	ctx := context.Background()
	seedCitizen(t, docs, "c-1", 500, 0)
	seedVendor(t, docs, "v-1", "retail", 100)

	tx, err := svc.Transfer(ctx, TransferInput{
		CitizenID:   "c-1",
		VendorID:    "v-1",
		Amount:      120,
		WalletType:  domain.CompartmentPersonal,
		Description: "groceries",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TxTypeCitizenToVendor, tx.TxType)
	assert.Equal(t, domain.TxStatusCompleted, tx.Status)

	assert.Equal(t, float64(380), citizenBalance(t, docs, "c-1", domain.CompartmentPersonal))

	vendorDoc, err := docs.Get(ctx, docstore.KindVendor, "v-1")
	require.NoError(t, err)
	var vendor domain.Vendor
	require.NoError(t, domain.FromDoc(vendorDoc, &vendor))
	assert.Equal(t, float64(220), vendor.WalletInfo.Balance)
	assert.Contains(t, vendor.WalletInfo.TransactionIDs, tx.ID)

	stored, err := svc.Transaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.Amount, stored.Amount)

	events := recorder.Events()
	require.Len(t, events, 1)
	assert.Equal(t, tx.ID, events[0].TransactionID)
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	svc, docs, _ := newLedger(t)
	seedCitizen(t, docs, "c-1", 50, 0)
	seedVendor(t, docs, "v-1", "retail", 0)

	_, err := svc.Transfer(context.Background(), TransferInput{
		CitizenID: "c-1", VendorID: "v-1", Amount: 80, WalletType: domain.CompartmentPersonal,
	})
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInsufficientFunds))

	assert.Equal(t, float64(50), citizenBalance(t, docs, "c-1", domain.CompartmentPersonal))
}

func TestTransfer_Validation(t *testing.T) {
	svc, docs, _ := newLedger(t)
	seedCitizen(t, docs, "c-1", 500, 0)
	seedVendor(t, docs, "v-1", "retail", 0)

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := svc.Transfer(context.Background(), TransferInput{
			CitizenID: "c-1", VendorID: "v-1", Amount: 0, WalletType: domain.CompartmentPersonal,
		})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})

	t.Run("unknown wallet type", func(t *testing.T) {
		_, err := svc.Transfer(context.Background(), TransferInput{
			CitizenID: "c-1", VendorID: "v-1", Amount: 10, WalletType: "savings",
		})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})

	t.Run("missing citizen", func(t *testing.T) {
		_, err := svc.Transfer(context.Background(), TransferInput{
			CitizenID: "ghost", VendorID: "v-1", Amount: 10, WalletType: domain.CompartmentPersonal,
		})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeNotFound))
	})

	t.Run("missing vendor", func(t *testing.T) {
		_, err := svc.Transfer(context.Background(), TransferInput{
			CitizenID: "c-1", VendorID: "ghost", Amount: 10, WalletType: domain.CompartmentPersonal,
		})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeNotFound))
	})
}

func TestTransfer_GovtWalletRequiresLicensedVendor(t *testing.T) {
	svc, docs, _ := newLedger(t)
	ctx := context.Background()
	seedCitizen(t, docs, "c-1", 0, 300)
	seedVendor(t, docs, "v-retail", "retail", 0)
	seedVendor(t, docs, "v-gov", "government", 0)

	_, err := svc.Transfer(ctx, TransferInput{
		CitizenID: "c-1", VendorID: "v-retail", Amount: 100, WalletType: domain.CompartmentGovt,
	})
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeForbidden))
	assert.Equal(t, float64(300), citizenBalance(t, docs, "c-1", domain.CompartmentGovt))

	_, err = svc.Transfer(ctx, TransferInput{
		CitizenID: "c-1", VendorID: "v-gov", Amount: 100, WalletType: domain.CompartmentGovt,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(200), citizenBalance(t, docs, "c-1", domain.CompartmentGovt))
}

func TestWithdraw_DebitsVendorAndRecords(t *testing.T) {
	svc, docs, recorder := newLedger(t)
	ctx := context.Background()
	seedVendor(t, docs, "v-1", "retail", 500)

	tx, err := svc.Withdraw(ctx, WithdrawInput{
		VendorID:    "v-1",
		Amount:      200,
		BankAccount: "NIC-00821",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TxTypeVendorWithdrawal, tx.TxType)
	assert.Equal(t, "v-1", tx.FromID)
	assert.Equal(t, "NIC-00821", tx.ToID)

	vendorDoc, err := docs.Get(ctx, docstore.KindVendor, "v-1")
	require.NoError(t, err)
	var vendor domain.Vendor
	require.NoError(t, domain.FromDoc(vendorDoc, &vendor))
	assert.Equal(t, float64(300), vendor.WalletInfo.Balance)
	assert.Contains(t, vendor.WalletInfo.TransactionIDs, tx.ID)

	stored, err := svc.Transaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(200), stored.Amount)

	events := recorder.Events()
	require.Len(t, events, 1)
	assert.Equal(t, tx.ID, events[0].TransactionID)
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	svc, docs, _ := newLedger(t)
	seedVendor(t, docs, "v-1", "retail", 100)

	_, err := svc.Withdraw(context.Background(), WithdrawInput{
		VendorID: "v-1", Amount: 150, BankAccount: "NIC-00821",
	})
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInsufficientFunds))

	vendorDoc, err := docs.Get(context.Background(), docstore.KindVendor, "v-1")
	require.NoError(t, err)
	var vendor domain.Vendor
	require.NoError(t, domain.FromDoc(vendorDoc, &vendor))
	assert.Equal(t, float64(100), vendor.WalletInfo.Balance)
}

func TestWithdraw_Validation(t *testing.T) {
	svc, docs, _ := newLedger(t)
	seedVendor(t, docs, "v-1", "retail", 100)

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := svc.Withdraw(context.Background(), WithdrawInput{
			VendorID: "v-1", Amount: 0, BankAccount: "NIC-00821",
		})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})

	t.Run("missing bank account", func(t *testing.T) {
		_, err := svc.Withdraw(context.Background(), WithdrawInput{
			VendorID: "v-1", Amount: 50,
		})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})

	t.Run("missing vendor", func(t *testing.T) {
		_, err := svc.Withdraw(context.Background(), WithdrawInput{
			VendorID: "ghost", Amount: 50, BankAccount: "NIC-00821",
		})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeNotFound))
	})
}

func TestDisburse_AllBeneficiariesSettle(t *testing.T) {
	svc, docs, recorder := newLedger(t)
	ctx := context.Background()
	seedGovernment(t, docs, "g-1", 1000)
	seedCitizen(t, docs, "c-1", 0, 0)
	seedCitizen(t, docs, "c-2", 0, 50)
	seedCitizen(t, docs, "c-3", 0, 0)

	result, err := svc.Disburse(ctx, DisburseInput{
		GovernmentID:  "g-1",
		SchemeID:      "s-1",
		Beneficiaries: []string{"c-1", "c-2", "c-3"},
		AmountPerUser: 200,
		Description:   "flood relief",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"c-1", "c-2", "c-3"}, result.SuccessfulTransfers)
	assert.Empty(t, result.FailedTransfers)
	assert.Equal(t, float64(600), result.TotalDisbursed)

	assert.Equal(t, float64(400), governmentBalance(t, docs, "g-1"))
	assert.Equal(t, float64(200), citizenBalance(t, docs, "c-1", domain.CompartmentGovt))
	assert.Equal(t, float64(250), citizenBalance(t, docs, "c-2", domain.CompartmentGovt))

	assert.Len(t, recorder.Events(), 3)
	for _, event := range recorder.Events() {
		assert.Equal(t, "s-1", event.SchemeID)
	}
}

func TestDisburse_InsufficientTotalRejectedUpfront(t *testing.T) {
	svc, docs, recorder := newLedger(t)
	seedGovernment(t, docs, "g-1", 500)
	seedCitizen(t, docs, "c-1", 0, 0)
	seedCitizen(t, docs, "c-2", 0, 0)

	_, err := svc.Disburse(context.Background(), DisburseInput{
		GovernmentID:  "g-1",
		SchemeID:      "s-1",
		Beneficiaries: []string{"c-1", "c-2"},
		AmountPerUser: 300,
	})
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInsufficientFunds))

	assert.Equal(t, float64(500), governmentBalance(t, docs, "g-1"))
	assert.Equal(t, float64(0), citizenBalance(t, docs, "c-1", domain.CompartmentGovt))
	assert.Empty(t, recorder.Events())
}

func TestDisburse_MissingBeneficiaryShareRefunded(t *testing.T) {
	svc, docs, _ := newLedger(t)
	seedGovernment(t, docs, "g-1", 1000)
	seedCitizen(t, docs, "c-1", 0, 0)

	result, err := svc.Disburse(context.Background(), DisburseInput{
		GovernmentID:  "g-1",
		SchemeID:      "s-1",
		Beneficiaries: []string{"c-1", "ghost"},
		AmountPerUser: 200,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"c-1"}, result.SuccessfulTransfers)
	assert.Equal(t, []string{"ghost"}, result.FailedTransfers)
	assert.Equal(t, float64(200), result.TotalDisbursed)

	// Only the settled share leaves the government wallet.
	assert.Equal(t, float64(800), governmentBalance(t, docs, "g-1"))
}

func TestDisburse_Validation(t *testing.T) {
	svc, docs, _ := newLedger(t)
	seedGovernment(t, docs, "g-1", 1000)

	t.Run("no beneficiaries", func(t *testing.T) {
		_, err := svc.Disburse(context.Background(), DisburseInput{
			GovernmentID: "g-1", SchemeID: "s-1", AmountPerUser: 100,
		})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := svc.Disburse(context.Background(), DisburseInput{
			GovernmentID: "g-1", SchemeID: "s-1", Beneficiaries: []string{"c-1"}, AmountPerUser: -5,
		})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})

	t.Run("missing government", func(t *testing.T) {
		_, err := svc.Disburse(context.Background(), DisburseInput{
			GovernmentID: "ghost", SchemeID: "s-1", Beneficiaries: []string{"c-1"}, AmountPerUser: 100,
		})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeNotFound))
	})
}

func TestTransfer_ArchiveFailureDoesNotFailTransfer(t *testing.T) {
	ctrl := gomock.NewController(t)
	docs := docstore.NewMemory()
	archive := mocks.NewMockArchive(ctrl)
	archive.EXPECT().Archive(gomock.Any(), gomock.Any()).Return(assert.AnError)

	svc := NewService(
		docs,
		NewTransactionStore(docs),
		archive,
		txlog.NewRecorder(),
		slog.New(slog.DiscardHandler),
		metrics.New(prometheus.NewRegistry()),
		4,
	)
	seedCitizen(t, docs, "c-1", 500, 0)
	seedVendor(t, docs, "v-1", "retail", 0)

	tx, err := svc.Transfer(context.Background(), TransferInput{
		CitizenID: "c-1", VendorID: "v-1", Amount: 50, WalletType: domain.CompartmentPersonal,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(450), citizenBalance(t, docs, "c-1", domain.CompartmentPersonal))
	assert.NotEmpty(t, tx.ID)
}

func TestTransactions_NewestFirstAcrossDirections(t *testing.T) {
	svc, docs, _ := newLedger(t)
	ctx := context.Background()

	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	records := []domain.Transaction{
		{ID: "tx-old", FromID: "c-1", ToID: "v-1", Amount: 10, TxType: domain.TxTypeCitizenToVendor, Status: domain.TxStatusCompleted, Timestamp: base},
		{ID: "tx-mid", FromID: "g-1", ToID: "c-1", Amount: 20, TxType: domain.TxTypeGovernmentToCitizen, Status: domain.TxStatusCompleted, Timestamp: base.Add(time.Hour)},
		{ID: "tx-new", FromID: "c-1", ToID: "v-2", Amount: 30, TxType: domain.TxTypeCitizenToVendor, Status: domain.TxStatusCompleted, Timestamp: base.Add(2 * time.Hour)},
		{ID: "tx-other", FromID: "c-2", ToID: "v-1", Amount: 40, TxType: domain.TxTypeCitizenToVendor, Status: domain.TxStatusCompleted, Timestamp: base},
	}
	for _, tx := range records {
		doc, err := domain.ToDoc(tx)
		require.NoError(t, err)
		require.NoError(t, docs.Set(ctx, docstore.KindTransaction, tx.ID, doc))
	}

	txs, err := svc.Transactions(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "tx-new", txs[0].ID)
	assert.Equal(t, "tx-mid", txs[1].ID)
	assert.Equal(t, "tx-old", txs[2].ID)
}

func TestAllTransactions_CoversEveryParty(t *testing.T) {
	svc, docs, _ := newLedger(t)
	ctx := context.Background()

	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	records := []domain.Transaction{
		{ID: "tx-a", FromID: "c-1", ToID: "v-1", Amount: 10, TxType: domain.TxTypeCitizenToVendor, Status: domain.TxStatusCompleted, Timestamp: base},
		{ID: "tx-b", FromID: "c-2", ToID: "v-2", Amount: 20, TxType: domain.TxTypeCitizenToVendor, Status: domain.TxStatusCompleted, Timestamp: base.Add(time.Hour)},
		{ID: "tx-c", FromID: "g-1", ToID: "c-3", Amount: 30, TxType: domain.TxTypeGovernmentToCitizen, Status: domain.TxStatusCompleted, Timestamp: base.Add(2 * time.Hour)},
	}
	for _, tx := range records {
		doc, err := domain.ToDoc(tx)
		require.NoError(t, err)
		require.NoError(t, docs.Set(ctx, docstore.KindTransaction, tx.ID, doc))
	}

	// No party is shared across the records; the system-wide view still
	// returns all of them, newest first.
	txs, err := svc.AllTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "tx-c", txs[0].ID)
	assert.Equal(t, "tx-b", txs[1].ID)
	assert.Equal(t, "tx-a", txs[2].ID)
}
