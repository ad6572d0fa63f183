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

// BillingHandler handles bulk generation and fee previews
type BillingHandler interface {
	BulkGenerate(w http.ResponseWriter, r *http.Request)
	PreviewFees(w http.ResponseWriter, r *http.Request)
}

type billingHandlerImpl struct {
	bulkService    billing.BulkService
	invoiceService billing.InvoiceService
}

func NewBillingHandler(bulkService billing.BulkService, invoiceService billing.InvoiceService) BillingHandler {
	return &billingHandlerImpl{bulkService: bulkService, invoiceService: invoiceService}
}

// BulkGenerate creates this period's invoices for every billable guardian
// POST /api/v1/billing/generate - Admin
func (h *billingHandlerImpl) BulkGenerate(w http.ResponseWriter, r *http.Request) {
	var req billing.BulkGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", nil)
		return
	}

	report, err := h.bulkService.Generate(r.Context(), middleware.ClubID(r.Context()), middleware.UserID(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Bulk generation finished", report)
}

// PreviewFees shows the resolved fee lines for one child and period
// GET /api/v1/billing/preview/{childID}?month=&year= - Authenticated
func (h *billingHandlerImpl) PreviewFees(w http.ResponseWriter, r *http.Request) {
	month, okM := validator.Atoi(r.URL.Query().Get("month"))
	year, okY := validator.Atoi(r.URL.Query().Get("year"))
	if !okM || !okY {
		response.BadRequest(w, "month and year query parameters are required", nil)
		return
	}

	preview, err := h.invoiceService.Preview(
		r.Context(),
		middleware.ClubID(r.Context()),
		chi.URLParam(r, "childID"),
		billing.BillingPeriod{Month: month, Year: year},
	)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, preview)
}
