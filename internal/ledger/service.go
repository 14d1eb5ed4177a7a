// Package ledger moves money. Every mutation of wallet balances in the
// system goes through this package, and every mutation commits as one
// atomic document-store batch: a debit is never visible without its credit
// and its transaction record.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	domainerrors "sahakosh/pkg/domain-errors"
	"sahakosh/pkg/platform/sentinel"

	"sahakosh/internal/docstore"
	"sahakosh/internal/domain"
	"sahakosh/internal/platform/metrics"
	"sahakosh/internal/txlog"
)

const defaultDisburseWorkers = 8

// Service is the wallet ledger.
type Service struct {
	docs    docstore.Store
	txs     *TransactionStore
	archive Archive
	txlog   txlog.Publisher
	logger  *slog.Logger
	m       *metrics.Metrics
	tracer  trace.Tracer
	workers int
}

// NewService wires the ledger. workers bounds disbursement concurrency; a
// non-positive value falls back to the default.
func NewService(docs docstore.Store, txs *TransactionStore, archive Archive, publisher txlog.Publisher, logger *slog.Logger, m *metrics.Metrics, workers int) *Service {
	if workers <= 0 {
		workers = defaultDisburseWorkers
	}
	return &Service{
		docs:    docs,
		txs:     txs,
		archive: archive,
		txlog:   publisher,
		logger:  logger,
		m:       m,
		tracer:  otel.Tracer("sahakosh/ledger"),
		workers: workers,
	}
}

// TransferInput is a citizen-to-vendor payment request.
type TransferInput struct {
	CitizenID   string
	VendorID    string
	Amount      float64
	WalletType  string
	Description string
}

// Transfer pays a vendor from one of the citizen's wallet compartments.
// Government-wallet payments are restricted to government-licensed vendors.
func (s *Service) Transfer(ctx context.Context, in TransferInput) (*domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Transfer",
		trace.WithAttributes(attribute.String("wallet_type", in.WalletType)))
	defer span.End()

	if in.Amount <= 0 {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "amount must be positive")
	}
	if in.WalletType != domain.CompartmentPersonal && in.WalletType != domain.CompartmentGovt {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, fmt.Sprintf("invalid wallet type %q", in.WalletType))
	}

	citizen, err := s.getCitizen(ctx, in.CitizenID)
	if err != nil {
		return nil, err
	}
	vendor, err := s.getVendor(ctx, in.VendorID)
	if err != nil {
		return nil, err
	}

	if in.WalletType == domain.CompartmentGovt && !vendor.GovernmentLicensed() {
		return nil, domainerrors.New(domainerrors.CodeForbidden, "vendor is not licensed for government wallet payments")
	}

	compartment, _ := citizen.Compartment(in.WalletType)
	if compartment.Balance < in.Amount {
		s.m.InsufficientFundsTotal.Inc()
		return nil, domainerrors.New(domainerrors.CodeInsufficientFunds, "insufficient balance")
	}

	tx := domain.NewTransaction(in.CitizenID, in.VendorID, in.Amount, domain.TxTypeCitizenToVendor, "", in.Description)
	txDoc, err := domain.ToDoc(tx)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "encode transaction", err)
	}

	walletPath := "wallet_info." + in.WalletType
	err = s.docs.ApplyBatch(ctx, []docstore.Op{
		{
			Kind:   docstore.KindCitizen,
			ID:     in.CitizenID,
			Incr:   map[string]float64{walletPath + ".balance": -in.Amount},
			Unions: map[string][]any{walletPath + ".transaction_ids": {tx.ID}},
		},
		{
			Kind:   docstore.KindVendor,
			ID:     in.VendorID,
			Incr:   map[string]float64{"wallet_info.balance": in.Amount},
			Unions: map[string][]any{"wallet_info.transaction_ids": {tx.ID}},
		},
		{Kind: docstore.KindTransaction, ID: tx.ID, Set: txDoc},
	})
	if err != nil {
		if errors.Is(err, docstore.ErrBelowZero) {
			s.m.InsufficientFundsTotal.Inc()
			return nil, domainerrors.New(domainerrors.CodeInsufficientFunds, "insufficient balance")
		}
		return nil, mapStoreErr(err, "commit transfer")
	}

	s.m.TransfersTotal.Inc()
	s.m.TransferAmount.Observe(in.Amount)
	s.recordSideEffects(ctx, tx)

	s.logger.Info("transfer completed",
		"transaction_id", tx.ID,
		"from_id", tx.FromID,
		"to_id", tx.ToID,
		"amount", tx.Amount,
		"wallet_type", in.WalletType,
	)
	return &tx, nil
}

// WithdrawInput moves vendor funds out of the platform. BankAccount is an
// external reference; the bank transfer itself is not the ledger's concern.
type WithdrawInput struct {
	VendorID    string
	Amount      float64
	BankAccount string
}

// Withdraw debits the vendor wallet toward the named bank account. The debit
// and its transaction record commit in one batch; ToID carries the external
// account reference since there is no platform counterparty.
func (s *Service) Withdraw(ctx context.Context, in WithdrawInput) (*domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Withdraw")
	defer span.End()

	if in.Amount <= 0 {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "amount must be positive")
	}
	if in.BankAccount == "" {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "bank account is required")
	}

	vendor, err := s.getVendor(ctx, in.VendorID)
	if err != nil {
		return nil, err
	}
	if vendor.WalletInfo.Balance < in.Amount {
		s.m.InsufficientFundsTotal.Inc()
		return nil, domainerrors.New(domainerrors.CodeInsufficientFunds, "insufficient balance")
	}

	tx := domain.NewTransaction(in.VendorID, in.BankAccount, in.Amount, domain.TxTypeVendorWithdrawal, "", "withdrawal to bank account")
	txDoc, err := domain.ToDoc(tx)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "encode transaction", err)
	}

	err = s.docs.ApplyBatch(ctx, []docstore.Op{
		{
			Kind:   docstore.KindVendor,
			ID:     in.VendorID,
			Incr:   map[string]float64{"wallet_info.balance": -in.Amount},
			Unions: map[string][]any{"wallet_info.transaction_ids": {tx.ID}},
		},
		{Kind: docstore.KindTransaction, ID: tx.ID, Set: txDoc},
	})
	if err != nil {
		if errors.Is(err, docstore.ErrBelowZero) {
			s.m.InsufficientFundsTotal.Inc()
			return nil, domainerrors.New(domainerrors.CodeInsufficientFunds, "insufficient balance")
		}
		return nil, mapStoreErr(err, "commit withdrawal")
	}

	s.m.WithdrawalsTotal.Inc()
	s.recordSideEffects(ctx, tx)

	s.logger.Info("withdrawal completed",
		"transaction_id", tx.ID,
		"vendor_id", in.VendorID,
		"amount", in.Amount,
	)
	return &tx, nil
}

// DisburseInput is a bulk benefit payout request.
type DisburseInput struct {
	GovernmentID  string
	SchemeID      string
	Beneficiaries []string
	AmountPerUser float64
	Description   string
}

// DisburseResult reports per-beneficiary outcomes. FailedTransfers holds
// beneficiary IDs that could not be settled; their share was returned to
// the government wallet.
type DisburseResult struct {
	SuccessfulTransfers []string `json:"successful_transfers"`
	FailedTransfers     []string `json:"failed_transfers"`
	TotalDisbursed      float64  `json:"total_disbursed"`
}

// Disburse pays amountPerUser into each beneficiary's government wallet.
// The full total is reserved from the government wallet up front so the run
// can never overdraw partway; beneficiaries then settle concurrently and
// any unsettled share is credited back.
func (s *Service) Disburse(ctx context.Context, in DisburseInput) (*DisburseResult, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Disburse",
		trace.WithAttributes(
			attribute.String("scheme_id", in.SchemeID),
			attribute.Int("beneficiaries", len(in.Beneficiaries)),
		))
	defer span.End()

	if in.AmountPerUser <= 0 {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "amount per user must be positive")
	}
	if len(in.Beneficiaries) == 0 {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "no beneficiaries to disburse to")
	}

	if _, err := s.getGovernment(ctx, in.GovernmentID); err != nil {
		return nil, err
	}

	total := in.AmountPerUser * float64(len(in.Beneficiaries))
	err := s.docs.ApplyBatch(ctx, []docstore.Op{{
		Kind: docstore.KindGovernment,
		ID:   in.GovernmentID,
		Incr: map[string]float64{"wallet_info.balance": -total},
	}})
	if err != nil {
		if errors.Is(err, docstore.ErrBelowZero) {
			s.m.InsufficientFundsTotal.Inc()
			return nil, domainerrors.New(domainerrors.CodeInsufficientFunds,
				fmt.Sprintf("government wallet cannot cover total disbursement of %.2f", total))
		}
		return nil, mapStoreErr(err, "reserve disbursement total")
	}

	// Each worker writes a distinct index, so no lock is needed.
	settled := make([]bool, len(in.Beneficiaries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, beneficiaryID := range in.Beneficiaries {
		g.Go(func() error {
			settled[i] = s.settle(gctx, in, beneficiaryID)
			return nil
		})
	}
	_ = g.Wait()

	result := &DisburseResult{
		SuccessfulTransfers: []string{},
		FailedTransfers:     []string{},
	}
	for i, beneficiaryID := range in.Beneficiaries {
		if settled[i] {
			result.SuccessfulTransfers = append(result.SuccessfulTransfers, beneficiaryID)
		} else {
			result.FailedTransfers = append(result.FailedTransfers, beneficiaryID)
		}
	}
	result.TotalDisbursed = in.AmountPerUser * float64(len(result.SuccessfulTransfers))

	if refund := total - result.TotalDisbursed; refund > 0 {
		err := s.docs.ApplyBatch(ctx, []docstore.Op{{
			Kind: docstore.KindGovernment,
			ID:   in.GovernmentID,
			Incr: map[string]float64{"wallet_info.balance": refund},
		}})
		if err != nil {
			s.logger.Error("failed to return unsettled disbursement share",
				"government_id", in.GovernmentID, "scheme_id", in.SchemeID, "refund", refund, "error", err)
			return nil, mapStoreErr(err, "return unsettled share")
		}
	}

	s.m.DisbursementsTotal.Inc()
	s.logger.Info("disbursement completed",
		"scheme_id", in.SchemeID,
		"government_id", in.GovernmentID,
		"successful", len(result.SuccessfulTransfers),
		"failed", len(result.FailedTransfers),
		"total_disbursed", result.TotalDisbursed,
	)
	return result, nil
}

// settle pays one beneficiary out of the already-reserved total. A false
// return means the beneficiary's share stays unreserved and is later
// credited back.
func (s *Service) settle(ctx context.Context, in DisburseInput, beneficiaryID string) bool {
	tx := domain.NewTransaction(in.GovernmentID, beneficiaryID, in.AmountPerUser, domain.TxTypeGovernmentToCitizen, in.SchemeID, in.Description)
	txDoc, err := domain.ToDoc(tx)
	if err != nil {
		s.m.SettlementsTotal.WithLabelValues("failed").Inc()
		s.logger.Error("encode settlement transaction", "beneficiary_id", beneficiaryID, "error", err)
		return false
	}

	err = s.docs.ApplyBatch(ctx, []docstore.Op{
		{
			Kind:   docstore.KindCitizen,
			ID:     beneficiaryID,
			Incr:   map[string]float64{"wallet_info.govt_wallet.balance": in.AmountPerUser},
			Unions: map[string][]any{"wallet_info.govt_wallet.transaction_ids": {tx.ID}},
		},
		{
			Kind:   docstore.KindGovernment,
			ID:     in.GovernmentID,
			Unions: map[string][]any{"wallet_info.transaction_ids": {tx.ID}},
		},
		{Kind: docstore.KindTransaction, ID: tx.ID, Set: txDoc},
	})
	if err != nil {
		s.m.SettlementsTotal.WithLabelValues("failed").Inc()
		s.logger.Warn("settlement failed",
			"scheme_id", in.SchemeID, "beneficiary_id", beneficiaryID, "error", err)
		return false
	}

	s.m.SettlementsTotal.WithLabelValues("settled").Inc()
	s.recordSideEffects(ctx, tx)
	return true
}

// recordSideEffects streams and archives a committed transaction. Both are
// fail-open: the money has already moved.
func (s *Service) recordSideEffects(ctx context.Context, tx domain.Transaction) {
	s.txlog.Publish(ctx, txlog.Event{
		TransactionID: tx.ID,
		FromID:        tx.FromID,
		ToID:          tx.ToID,
		Amount:        tx.Amount,
		TxType:        string(tx.TxType),
		SchemeID:      tx.SchemeID,
		Timestamp:     tx.Timestamp,
	})
	if err := s.archive.Archive(ctx, tx); err != nil {
		s.logger.Error("archive transaction", "transaction_id", tx.ID, "error", err)
	}
}

// Transactions returns the party's history, newest first.
func (s *Service) Transactions(ctx context.Context, partyID string) ([]domain.Transaction, error) {
	return s.txs.ListByParty(ctx, partyID)
}

// AllTransactions returns the system-wide history, newest first. Exposed to
// government oversight only; citizens and vendors get the party-scoped view.
func (s *Service) AllTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.txs.ListAll(ctx)
}

// Transaction returns one record by ID.
func (s *Service) Transaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.txs.FindByID(ctx, id)
}

func (s *Service) getCitizen(ctx context.Context, id string) (*domain.Citizen, error) {
	doc, err := s.docs.Get(ctx, docstore.KindCitizen, id)
	if err != nil {
		return nil, mapStoreErr(err, "citizen not found")
	}
	var c domain.Citizen
	if err := domain.FromDoc(doc, &c); err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "decode citizen", err)
	}
	return &c, nil
}

func (s *Service) getVendor(ctx context.Context, id string) (*domain.Vendor, error) {
	doc, err := s.docs.Get(ctx, docstore.KindVendor, id)
	if err != nil {
		return nil, mapStoreErr(err, "vendor not found")
	}
	var v domain.Vendor
	if err := domain.FromDoc(doc, &v); err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "decode vendor", err)
	}
	return &v, nil
}

func (s *Service) getGovernment(ctx context.Context, id string) (*domain.Government, error) {
	doc, err := s.docs.Get(ctx, docstore.KindGovernment, id)
	if err != nil {
		return nil, mapStoreErr(err, "government account not found")
	}
	var g domain.Government
	if err := domain.FromDoc(doc, &g); err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "decode government account", err)
	}
	return &g, nil
}

// mapStoreErr translates store sentinels into domain errors. The message is
// used for the not-found case; outages and anything unexpected keep their
// own wording.
func mapStoreErr(err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return domainerrors.Wrap(domainerrors.CodeNotFound, notFoundMsg, err)
	case errors.Is(err, sentinel.ErrUnavailable):
		return domainerrors.Wrap(domainerrors.CodeUnavailable, "storage unavailable", err)
	default:
		return domainerrors.Wrap(domainerrors.CodeInternal, "storage failure", err)
	}
}
