package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sahakosh/internal/accounts"
	"sahakosh/internal/domain"
	"sahakosh/internal/platform/middleware"
	"sahakosh/internal/scheme"
	dErrors "sahakosh/pkg/domain-errors"
	"sahakosh/pkg/platform/httputil"
)

// GovernmentHandler serves the government subtree: scheme lifecycle,
// beneficiary management, and bulk disbursement.
type GovernmentHandler struct {
	accounts AccountService
	ledger   LedgerService
	schemes  SchemeService
	logger   *slog.Logger
}

func (h *GovernmentHandler) Register(r chi.Router) {
	r.Get("/profile", h.handleGetProfile)
	r.Put("/profile", h.handleUpdateProfile)
	r.Get("/wallet", h.handleWallet)
	r.Get("/citizens", h.handleListCitizens)
	r.Get("/citizens/{citizenID}", h.handleGetCitizen)
	r.Get("/vendors", h.handleListVendors)
	r.Get("/vendors/{vendorID}", h.handleGetVendor)
	r.Get("/transactions", h.handleTransactions)

	r.Post("/schemes", h.handleCreateScheme)
	r.Get("/schemes", h.handleListSchemes)
	r.Get("/schemes/{schemeID}", h.handleGetScheme)
	r.Put("/schemes/{schemeID}", h.handleUpdateScheme)
	r.Delete("/schemes/{schemeID}", h.handleDeactivateScheme)
	r.Get("/schemes/{schemeID}/beneficiaries", h.handleBeneficiaries)
	r.Post("/disburse", h.handleDisburse)
}

func (h *GovernmentHandler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	government, err := h.accounts.GetGovernment(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, government)
}

type updateGovernmentProfileRequest struct {
	Name         *string `json:"name"`
	Department   *string `json:"department"`
	Jurisdiction *string `json:"jurisdiction"`
}

func (h *GovernmentHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateGovernmentProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	updated, err := h.accounts.UpdateGovernmentProfile(r.Context(), middleware.GetUserID(r.Context()), accounts.GovernmentProfileUpdate{
		Name:         req.Name,
		Department:   req.Department,
		Jurisdiction: req.Jurisdiction,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *GovernmentHandler) handleWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.accounts.GovernmentWallet(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, wallet)
}

func (h *GovernmentHandler) handleListCitizens(w http.ResponseWriter, r *http.Request) {
	citizens, err := h.accounts.ListCitizens(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"citizens": citizens})
}

func (h *GovernmentHandler) handleGetCitizen(w http.ResponseWriter, r *http.Request) {
	citizen, err := h.accounts.GetCitizen(r.Context(), chi.URLParam(r, "citizenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, citizen)
}

func (h *GovernmentHandler) handleListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.accounts.ListVendors(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"vendors": vendors})
}

func (h *GovernmentHandler) handleGetVendor(w http.ResponseWriter, r *http.Request) {
	vendor, err := h.accounts.GetVendor(r.Context(), chi.URLParam(r, "vendorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, vendor)
}

// handleTransactions serves the system-wide history, not just transactions
// the government account is party to.
func (h *GovernmentHandler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.ledger.AllTransactions(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

type createSchemeRequest struct {
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Amount      float64                    `json:"amount"`
	Criteria    domain.EligibilityCriteria `json:"eligibility_criteria"`
	Tags        []string                   `json:"tags"`
	Status      domain.SchemeStatus        `json:"status"`
}

func (h *GovernmentHandler) handleCreateScheme(w http.ResponseWriter, r *http.Request) {
	var req createSchemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.schemes.Create(r.Context(), middleware.GetUserID(r.Context()), scheme.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Amount:      req.Amount,
		Criteria:    req.Criteria,
		Tags:        req.Tags,
		Status:      req.Status,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *GovernmentHandler) handleListSchemes(w http.ResponseWriter, r *http.Request) {
	schemes, err := h.schemes.ListByGovernment(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"schemes": schemes})
}

func (h *GovernmentHandler) handleGetScheme(w http.ResponseWriter, r *http.Request) {
	found, err := h.schemes.Get(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "schemeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, found)
}

type updateSchemeRequest struct {
	Name        *string                     `json:"name"`
	Description *string                     `json:"description"`
	Amount      *float64                    `json:"amount"`
	Criteria    *domain.EligibilityCriteria `json:"eligibility_criteria"`
	Tags        []string                    `json:"tags"`
	Status      *domain.SchemeStatus        `json:"status"`
}

func (h *GovernmentHandler) handleUpdateScheme(w http.ResponseWriter, r *http.Request) {
	var req updateSchemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	updated, err := h.schemes.Update(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "schemeID"), scheme.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Amount:      req.Amount,
		Criteria:    req.Criteria,
		Tags:        req.Tags,
		Status:      req.Status,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *GovernmentHandler) handleDeactivateScheme(w http.ResponseWriter, r *http.Request) {
	deactivated, err := h.schemes.Deactivate(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "schemeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, deactivated)
}

func (h *GovernmentHandler) handleBeneficiaries(w http.ResponseWriter, r *http.Request) {
	beneficiaries, err := h.schemes.Beneficiaries(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "schemeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"beneficiaries": beneficiaries})
}

type disburseRequest struct {
	SchemeID      string  `json:"scheme_id"`
	AmountPerUser float64 `json:"amount_per_user"`
}

func (h *GovernmentHandler) handleDisburse(w http.ResponseWriter, r *http.Request) {
	var req disburseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.SchemeID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "scheme_id is required"))
		return
	}

	result, err := h.schemes.Disburse(r.Context(), middleware.GetUserID(r.Context()), req.SchemeID, req.AmountPerUser)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
