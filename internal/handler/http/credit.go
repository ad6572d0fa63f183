package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/credit"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/handler/http/middleware"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/handler/http/response"
)

// CreditHandler handles guardian credit accounts
type CreditHandler interface {
	Balance(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
	Apply(w http.ResponseWriter, r *http.Request)
	Deposit(w http.ResponseWriter, r *http.Request)
}

type creditHandlerImpl struct {
	creditService credit.Service
}

func NewCreditHandler(creditService credit.Service) CreditHandler {
	return &creditHandlerImpl{creditService: creditService}
}

// Balance returns a guardian's stored credit balance
// GET /api/v1/credits/{guardianID} - Authenticated
func (h *creditHandlerImpl) Balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.creditService.Balance(r.Context(), middleware.ClubID(r.Context()), chi.URLParam(r, "guardianID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{"balance": balance})
}

// History returns a guardian's credit ledger entries
// GET /api/v1/credits/{guardianID}/history - Authenticated
func (h *creditHandlerImpl) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.creditService.History(r.Context(), middleware.ClubID(r.Context()), chi.URLParam(r, "guardianID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, history)
}

type applyCreditRequest struct {
	InvoiceID string          `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// Apply spends stored credit against an invoice
// POST /api/v1/credits/{guardianID}/apply - Admin
func (h *creditHandlerImpl) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", nil)
		return
	}

	err := h.creditService.Apply(
		r.Context(),
		middleware.ClubID(r.Context()),
		chi.URLParam(r, "guardianID"),
		req.InvoiceID,
		req.Amount,
		middleware.UserID(r.Context()),
	)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Credit applied", nil)
}

type depositCreditRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

// Deposit adds a manual credit adjustment for a guardian
// POST /api/v1/credits/{guardianID}/deposit - Admin
func (h *creditHandlerImpl) Deposit(w http.ResponseWriter, r *http.Request) {
	var req depositCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", nil)
		return
	}

	err := h.creditService.Deposit(
		r.Context(),
		middleware.ClubID(r.Context()),
		chi.URLParam(r, "guardianID"),
		req.Amount,
		req.Reference,
		nil,
	)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Credit deposited", nil)
}
