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

// CitizenHandler serves the citizen subtree. Every route acts on the
// authenticated citizen; there is no way to address another citizen's data.
type CitizenHandler struct {
	accounts AccountService
	ledger   LedgerService
	schemes  SchemeService
	logger   *slog.Logger
}

func (h *CitizenHandler) Register(r chi.Router) {
	r.Get("/profile", h.handleGetProfile)
	r.Put("/profile", h.handleUpdateProfile)
	r.Get("/wallet", h.handleWallet)
	r.Get("/vendors", h.handleListVendors)
	r.Get("/schemes", h.handleEligibleSchemes)
	r.Post("/schemes/{schemeID}/enroll", h.handleEnroll)
	r.Post("/pay", h.handlePay)
	r.Get("/transactions", h.handleTransactions)
}

func (h *CitizenHandler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	citizen, err := h.accounts.GetCitizen(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, citizen)
}

type profileUpdateRequest struct {
	Name         *string  `json:"name"`
	Phone        *string  `json:"phone"`
	Address      *string  `json:"address"`
	DateOfBirth  *string  `json:"dob"`
	Gender       *string  `json:"gender"`
	Occupation   *string  `json:"occupation"`
	Caste        *string  `json:"caste"`
	AnnualIncome *float64 `json:"annual_income"`
}

func (h *CitizenHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	citizen, err := h.accounts.UpdateCitizenProfile(r.Context(), middleware.GetUserID(r.Context()), accounts.CitizenProfileUpdate{
		Name:         req.Name,
		Phone:        req.Phone,
		Address:      req.Address,
		DateOfBirth:  req.DateOfBirth,
		Gender:       req.Gender,
		Occupation:   req.Occupation,
		Caste:        req.Caste,
		AnnualIncome: req.AnnualIncome,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, citizen)
}

func (h *CitizenHandler) handleWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.accounts.CitizenWallet(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, wallet)
}

func (h *CitizenHandler) handleListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.accounts.ListVendors(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"vendors": vendors})
}

func (h *CitizenHandler) handleEligibleSchemes(w http.ResponseWriter, r *http.Request) {
	listings, err := h.schemes.EligibleSchemes(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"schemes": listings})
}

func (h *CitizenHandler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	enrolled, err := h.schemes.Enroll(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "schemeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, enrolled)
}

type payRequest struct {
	VendorID    string  `json:"vendor_id"`
	Amount      float64 `json:"amount"`
	WalletType  string  `json:"wallet_type"`
	Description string  `json:"description"`
}

func (h *CitizenHandler) handlePay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	tx, err := h.ledger.Transfer(r.Context(), ledger.TransferInput{
		CitizenID:   middleware.GetUserID(r.Context()),
		VendorID:    req.VendorID,
		Amount:      req.Amount,
		WalletType:  req.WalletType,
		Description: req.Description,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tx)
}

func (h *CitizenHandler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.ledger.Transactions(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}
