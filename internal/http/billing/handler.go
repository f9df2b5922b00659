package billing

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cobranca/internal/billing"
	"github.com/MrJamesThe3rd/cobranca/internal/notification"
)

type Handler struct {
	svc      *billing.Service
	notifier *notification.Service
}

func NewHandler(svc *billing.Service, notifier *notification.Service) *Handler {
	return &Handler{svc: svc, notifier: notifier}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Patch("/{id}/status", h.updateStatus)
	r.Patch("/{id}", h.update)
}

type createBillingRequest struct {
	CustomerName  string         `json:"customer_name"`
	CustomerEmail string         `json:"customer_email"`
	Description   string         `json:"description"`
	Amount        int64          `json:"amount"`
	DueDate       time.Time      `json:"due_date"`
	Status        billing.Status `json:"status"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createBillingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	status := req.Status
	if status == "" {
		status = billing.StatusPending
	}

	b, err := h.svc.Create(r.Context(), billing.CreateParams{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Description:   req.Description,
		Amount:        req.Amount,
		DueDate:       req.DueDate,
		Status:        status,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(b)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := billing.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		status := billing.Status(s)
		filter.Status = &status
	}

	if s := r.URL.Query().Get("due_from"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.DueFrom = &t
		}
	}

	if s := r.URL.Query().Get("due_to"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.DueTo = &t
		}
	}

	billings, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(billings)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			http.Error(w, "billing not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(b)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type updateBillingRequest struct {
	CustomerName  *string    `json:"customer_name,omitempty"`
	CustomerEmail *string    `json:"customer_email,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Amount        *int64     `json:"amount,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateBillingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			http.Error(w, "billing not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	if req.CustomerName != nil {
		b.CustomerName = *req.CustomerName
	}

	if req.CustomerEmail != nil {
		b.CustomerEmail = *req.CustomerEmail
	}

	if req.Description != nil {
		b.Description = *req.Description
	}

	if req.Amount != nil {
		b.Amount = *req.Amount
	}

	if req.DueDate != nil {
		b.DueDate = billing.DateOnly(*req.DueDate)
	}

	if err := h.svc.Update(r.Context(), b); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(b)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type updateStatusRequest struct {
	Status billing.Status `json:"status"`
}

// updateStatus changes a record's status. A transition into paid fires the
// payment confirmation rules; a confirmation failure does not fail the
// status change itself.
func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	current, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			http.Error(w, "billing not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	if err := h.svc.UpdateStatus(r.Context(), id, req.Status); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Status == billing.StatusPaid && current.Status != billing.StatusPaid {
		if _, err := h.notifier.ConfirmPayment(r.Context(), id); err != nil {
			slog.Error("payment confirmation failed", "billing_id", id, "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
