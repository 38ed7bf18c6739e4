package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/postcraft/backend/internal/middleware"
	"github.com/postcraft/backend/internal/models"
	"github.com/postcraft/backend/internal/services"
	"github.com/sirupsen/logrus"
)

const (
	defaultLedgerLimit = 20
	maxLedgerLimit     = 100
)

type AccountHandler struct {
	store       services.LedgerStore
	catalog     *services.PricingCatalog
	signupBonus int64
	log         logrus.FieldLogger
}

func NewAccountHandler(store services.LedgerStore, catalog *services.PricingCatalog, signupBonus int64, log logrus.FieldLogger) *AccountHandler {
	return &AccountHandler{store: store, catalog: catalog, signupBonus: signupBonus, log: log}
}

// AccountResponse is returned by the account endpoints.
type AccountResponse struct {
	Account models.Account `json:"account"`
	Created bool           `json:"created"`
}

// CreditsResponse is the caller's current balance.
type CreditsResponse struct {
	Credits int64 `json:"credits"`
}

// LedgerResponse lists recent balance changes, newest first.
type LedgerResponse struct {
	Entries []models.LedgerEntry `json:"entries"`
}

// EnsureAccount creates the caller's account on first use
// @Summary Ensure account
// @Description Creates the account for the authenticated principal with the signup bonus. Idempotent.
// @Tags Account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AccountResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /account [post]
func (h *AccountHandler) EnsureAccount(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())

	acc, created, err := h.store.EnsureAccount(r.Context(), accountID, h.signupBonus)
	if err != nil {
		h.log.WithError(err).WithField("account_id", accountID).Error("ensure account failed")
		services.SendErrorResponse(w, services.NewAPIError(http.StatusInternalServerError, services.CodeDBUpdate, "Failed to create account"))
		return
	}
	if created {
		h.log.WithFields(logrus.Fields{"account_id": accountID, "credits": acc.Credits}).Info("account created")
	}

	services.SendJSON(w, http.StatusOK, AccountResponse{Account: acc, Created: created})
}

// GetCredits returns the caller's balance
// @Summary Get credits
// @Tags Account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} CreditsResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /account/credits [get]
func (h *AccountHandler) GetCredits(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())

	balance, err := h.store.GetBalance(r.Context(), accountID)
	switch {
	case errors.Is(err, services.ErrAccountNotFound):
		services.SendErrorResponse(w, services.NewAPIError(http.StatusNotFound, services.CodeProfileNotFound, "Account not found"))
		return
	case errors.Is(err, services.ErrProfileDataInvalid):
		services.SendErrorResponse(w, services.NewAPIError(http.StatusNotFound, services.CodeProfileDataInvalid, "Account data is invalid"))
		return
	case err != nil:
		h.log.WithError(err).WithField("account_id", accountID).Error("balance read failed")
		services.SendErrorResponse(w, services.NewAPIError(http.StatusInternalServerError, services.CodeDBFetch, "Failed to fetch account"))
		return
	}

	services.SendJSON(w, http.StatusOK, CreditsResponse{Credits: balance})
}

// ListLedger returns the caller's recent ledger entries
// @Summary List ledger entries
// @Tags Account
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum entries (default 20, max 100)"
// @Success 200 {object} LedgerResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /account/ledger [get]
func (h *AccountHandler) ListLedger(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())

	limit := defaultLedgerLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			services.SendErrorResponse(w, services.NewAPIError(http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer"))
			return
		}
		limit = min(n, maxLedgerLimit)
	}

	entries, err := h.store.ListEntries(r.Context(), accountID, limit)
	if err != nil {
		h.log.WithError(err).WithField("account_id", accountID).Error("ledger read failed")
		services.SendErrorResponse(w, services.NewAPIError(http.StatusInternalServerError, services.CodeDBFetch, "Failed to fetch ledger"))
		return
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}

	services.SendJSON(w, http.StatusOK, LedgerResponse{Entries: entries})
}

// GetPricing returns the price list
// @Summary Get pricing
// @Description Tool prices and variation counts per tier, and the top-up tiers.
// @Tags Account
// @Produce json
// @Success 200 {object} services.PricingCatalog
// @Router /pricing [get]
func (h *AccountHandler) GetPricing(w http.ResponseWriter, r *http.Request) {
	services.SendJSON(w, http.StatusOK, h.catalog)
}
