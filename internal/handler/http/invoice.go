package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/handler/http/middleware"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/handler/http/response"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/pkg/validator"
)

// InvoiceHandler handles invoice-related HTTP requests
type InvoiceHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	GetByID(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	MarkPaid(w http.ResponseWriter, r *http.Request)
	ListAudit(w http.ResponseWriter, r *http.Request)
}

type invoiceHandlerImpl struct {
	invoiceService billing.InvoiceService
	auditRepo      billing.AuditRepository
}

func NewInvoiceHandler(invoiceService billing.InvoiceService, auditRepo billing.AuditRepository) InvoiceHandler {
	return &invoiceHandlerImpl{invoiceService: invoiceService, auditRepo: auditRepo}
}

// Create creates one invoice for a guardian and period
// POST /api/v1/invoices - Admin
func (h *invoiceHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req billing.CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", nil)
		return
	}

	inv, err := h.invoiceService.Create(r.Context(), middleware.ClubID(r.Context()), middleware.UserID(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Invoice created", inv)
}

// List lists the club's invoices with optional filters
// GET /api/v1/invoices?status=&month=&year=&guardian_id=&child_id= - Authenticated
func (h *invoiceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	var f billing.InvoiceFilter
	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		status := billing.InvoiceStatus(s)
		f.Status = &status
	}
	if m := q.Get("month"); m != "" {
		month, ok := validator.Atoi(m)
		if !ok {
			response.BadRequest(w, "month must be a number", nil)
			return
		}
		f.Month = &month
	}
	if y := q.Get("year"); y != "" {
		year, ok := validator.Atoi(y)
		if !ok {
			response.BadRequest(w, "year must be a number", nil)
			return
		}
		f.Year = &year
	}
	if g := q.Get("guardian_id"); g != "" {
		f.GuardianID = &g
	}
	if c := q.Get("child_id"); c != "" {
		f.ChildID = &c
	}

	invoices, err := h.invoiceService.List(r.Context(), middleware.ClubID(r.Context()), f)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, invoices)
}

// GetByID retrieves one invoice
// GET /api/v1/invoices/{invoiceID} - Authenticated
func (h *invoiceHandlerImpl) GetByID(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoiceService.GetByID(r.Context(), middleware.ClubID(r.Context()), chi.URLParam(r, "invoiceID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, inv)
}

// Cancel cancels a pending or overdue invoice
// POST /api/v1/invoices/{invoiceID}/cancel - Admin
func (h *invoiceHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	err := h.invoiceService.Cancel(r.Context(), middleware.ClubID(r.Context()), chi.URLParam(r, "invoiceID"), middleware.UserID(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Invoice cancelled", nil)
}

// Delete hard-removes a pending, unpaid invoice
// DELETE /api/v1/invoices/{invoiceID} - Admin
func (h *invoiceHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.invoiceService.Delete(r.Context(), middleware.ClubID(r.Context()), chi.URLParam(r, "invoiceID"), middleware.UserID(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Invoice deleted", nil)
}

// MarkPaid forces an invoice to paid for cash or manual reconciliation
// POST /api/v1/invoices/{invoiceID}/mark-paid - Admin
func (h *invoiceHandlerImpl) MarkPaid(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoiceService.MarkPaid(r.Context(), middleware.ClubID(r.Context()), chi.URLParam(r, "invoiceID"), middleware.UserID(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Invoice marked as paid", inv)
}

// ListAudit lists an invoice's status transition history
// GET /api/v1/invoices/{invoiceID}/audit - Admin
func (h *invoiceHandlerImpl) ListAudit(w http.ResponseWriter, r *http.Request) {
	// Scope check before exposing the trail.
	if _, err := h.invoiceService.GetByID(r.Context(), middleware.ClubID(r.Context()), chi.URLParam(r, "invoiceID")); err != nil {
		response.HandleError(w, err)
		return
	}

	records, err := h.auditRepo.ListByInvoice(r.Context(), chi.URLParam(r, "invoiceID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, records)
}
