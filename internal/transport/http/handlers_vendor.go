package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sahakosh/internal/accounts"
	"sahakosh/internal/ledger"
	"sahakosh/internal/platform/middleware"
	dErrors "sahakosh/pkg/domain-errors"
	"sahakosh/pkg/platform/httputil"
)

// VendorHandler serves the vendor subtree: profile, wallet, history, and
// withdrawals to an external bank account.
type VendorHandler struct {
	accounts AccountService
	ledger   LedgerService
	logger   *slog.Logger
}

func (h *VendorHandler) Register(r chi.Router) {
	r.Get("/profile", h.handleGetProfile)
	r.Put("/profile", h.handleUpdateProfile)
	r.Get("/wallet", h.handleWallet)
	r.Get("/transactions", h.handleTransactions)
	r.Post("/withdraw", h.handleWithdraw)
}

func (h *VendorHandler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	vendor, err := h.accounts.GetVendor(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, vendor)
}

type updateVendorProfileRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Category *string `json:"category"`
}

func (h *VendorHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateVendorProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	updated, err := h.accounts.UpdateVendorProfile(r.Context(), middleware.GetUserID(r.Context()), accounts.VendorProfileUpdate{
		Name:     req.Name,
		Phone:    req.Phone,
		Address:  req.Address,
		Category: req.Category,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *VendorHandler) handleWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.accounts.VendorWallet(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, wallet)
}

func (h *VendorHandler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.ledger.Transactions(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

type withdrawRequest struct {
	Amount      float64 `json:"amount"`
	BankAccount string  `json:"bank_account"`
}

func (h *VendorHandler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	tx, err := h.ledger.Withdraw(r.Context(), ledger.WithdrawInput{
		VendorID:    middleware.GetUserID(r.Context()),
		Amount:      req.Amount,
		BankAccount: req.BankAccount,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tx)
}
