// Package dashboard serves the aggregate view the frontend's landing page
// renders: totals by status plus the most recent billing records.
package dashboard

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cobranca/internal/billing"
	"github.com/MrJamesThe3rd/cobranca/internal/customer"
)

type Handler struct {
	billingSvc  *billing.Service
	customerSvc *customer.Service
}

func NewHandler(billingSvc *billing.Service, customerSvc *customer.Service) *Handler {
	return &Handler{billingSvc: billingSvc, customerSvc: customerSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.summary)
}

type recentBillingResponse struct {
	ID           uuid.UUID      `json:"id"`
	CustomerName string         `json:"customer_name"`
	Description  string         `json:"description"`
	Amount       int64          `json:"amount"`
	DueDate      time.Time      `json:"due_date"`
	Status       billing.Status `json:"status"`
}

type summaryResponse struct {
	Revenue       int64                   `json:"revenue"`
	PendingAmount int64                   `json:"pending_amount"`
	PendingCount  int                     `json:"pending_count"`
	OverdueAmount int64                   `json:"overdue_amount"`
	OverdueCount  int                     `json:"overdue_count"`
	CustomerCount int                     `json:"customer_count"`
	Recent        []recentBillingResponse `json:"recent"`
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.billingSvc.Summarize(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	customers, err := h.customerSvc.Count(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := summaryResponse{
		Revenue:       sum.RevenueCents,
		PendingAmount: sum.PendingCents,
		PendingCount:  sum.PendingCount,
		OverdueAmount: sum.OverdueCents,
		OverdueCount:  sum.OverdueCount,
		CustomerCount: customers,
		Recent:        make([]recentBillingResponse, 0, len(sum.Recent)),
	}

	for _, b := range sum.Recent {
		resp.Recent = append(resp.Recent, recentBillingResponse{
			ID:           b.ID,
			CustomerName: b.CustomerName,
			Description:  b.Description,
			Amount:       b.Amount,
			DueDate:      b.DueDate,
			Status:       b.Status,
		})
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
