package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sahakosh/internal/accounts"
	"sahakosh/internal/domain"
	dErrors "sahakosh/pkg/domain-errors"
	"sahakosh/pkg/platform/httputil"
)

// AuthHandler serves the unauthenticated endpoints: signup per role and
// login.
type AuthHandler struct {
	accounts AccountService
	logger   *slog.Logger
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/citizen/signup", h.handleCitizenSignup)
	r.Post("/vendor/signup", h.handleVendorSignup)
	r.Post("/government/signup", h.handleGovernmentSignup)
	r.Post("/auth/login", h.handleLogin)
}

type citizenSignupRequest struct {
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Password     string              `json:"password"`
	PersonalInfo domain.PersonalInfo `json:"personal_info"`
}

func (h *AuthHandler) handleCitizenSignup(w http.ResponseWriter, r *http.Request) {
	var req citizenSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	citizen, err := h.accounts.SignupCitizen(r.Context(), accounts.CitizenSignup{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		PersonalInfo: req.PersonalInfo,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, citizen)
}

type vendorSignupRequest struct {
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Password     string              `json:"password"`
	BusinessInfo domain.BusinessInfo `json:"business_info"`
}

func (h *AuthHandler) handleVendorSignup(w http.ResponseWriter, r *http.Request) {
	var req vendorSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	vendor, err := h.accounts.SignupVendor(r.Context(), accounts.VendorSignup{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		BusinessInfo: req.BusinessInfo,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, vendor)
}

type governmentSignupRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Department   string `json:"department"`
	Jurisdiction string `json:"jurisdiction"`
	GovtID       string `json:"govt_id"`
}

func (h *AuthHandler) handleGovernmentSignup(w http.ResponseWriter, r *http.Request) {
	var req governmentSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	government, err := h.accounts.SignupGovernment(r.Context(), accounts.GovernmentSignup{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Department:   req.Department,
		Jurisdiction: req.Jurisdiction,
		GovtID:       req.GovtID,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, government)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"user_type"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.accounts.Login(r.Context(), accounts.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		UserType:  req.UserType,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
