package notification

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
	svc *notification.Service
}

func NewHandler(svc *notification.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/rules", func(r chi.Router) {
		r.Post("/", h.createRule)
		r.Get("/", h.listRules)
		r.Get("/{id}", h.getRule)
		r.Patch("/{id}", h.updateRule)
		r.Delete("/{id}", h.deleteRule)
	})

	r.Get("/logs", h.listLogs)
	r.Get("/pending", h.pending)
	r.Post("/run", h.runPass)
	r.Post("/send", h.sendManual)
	r.Post("/test", h.sendTest)
}

type ruleRequest struct {
	Name          string                `json:"name"`
	Type          notification.RuleType `json:"type"`
	DaysBeforeDue *int                  `json:"days_before_due,omitempty"`
	DaysAfterDue  *int                  `json:"days_after_due,omitempty"`
	Enabled       *bool                 `json:"enabled,omitempty"`
	Subject       string                `json:"subject"`
	Body          string                `json:"body"`
}

func (h *Handler) createRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	rule := &notification.Rule{
		Name:          req.Name,
		Type:          req.Type,
		DaysBeforeDue: req.DaysBeforeDue,
		DaysAfterDue:  req.DaysAfterDue,
		Enabled:       enabled,
		Subject:       req.Subject,
		Body:          req.Body,
	}

	if err := h.svc.CreateRule(r.Context(), rule); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toRuleResponse(rule)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.svc.Rules(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]ruleResponse, len(rules))
	for i, rule := range rules {
		resp[i] = toRuleResponse(rule)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) getRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	rule, err := h.svc.GetRule(r.Context(), id)
	if err != nil {
		if errors.Is(err, notification.ErrNotFound) {
			http.Error(w, "rule not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toRuleResponse(rule)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) updateRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rule, err := h.svc.GetRule(r.Context(), id)
	if err != nil {
		if errors.Is(err, notification.ErrNotFound) {
			http.Error(w, "rule not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	if req.Name != "" {
		rule.Name = req.Name
	}

	if req.Type != "" {
		rule.Type = req.Type
	}

	if req.DaysBeforeDue != nil {
		rule.DaysBeforeDue = req.DaysBeforeDue
	}

	if req.DaysAfterDue != nil {
		rule.DaysAfterDue = req.DaysAfterDue
	}

	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}

	if req.Subject != "" {
		rule.Subject = req.Subject
	}

	if req.Body != "" {
		rule.Body = req.Body
	}

	if err := h.svc.UpdateRule(r.Context(), rule); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toRuleResponse(rule)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) deleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.DeleteRule(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	filter := notification.LogFilter{}

	if s := r.URL.Query().Get("billing_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "invalid billing_id", http.StatusBadRequest)
			return
		}

		filter.BillingID = &id
	}

	if s := r.URL.Query().Get("day"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			http.Error(w, "invalid day", http.StatusBadRequest)
			return
		}

		filter.Day = &t
	}

	entries, err := h.svc.Logs(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]logResponse, len(entries))
	for i, e := range entries {
		resp[i] = toLogResponse(e)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// pending previews the billing/rule pairs the next pass would send, without
// sending anything.
func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.svc.PendingCandidates(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]candidateResponse, len(candidates))
	for i, c := range candidates {
		resp[i] = toCandidateResponse(c)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) runPass(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.RunAutomaticPass(r.Context())
	if err != nil {
		if errors.Is(err, notification.ErrPassInFlight) {
			http.Error(w, "a pass is already running", http.StatusConflict)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	resp := make([]logResponse, len(entries))
	for i, e := range entries {
		resp[i] = toLogResponse(e)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type sendManualRequest struct {
	BillingID uuid.UUID `json:"billing_id"`
	RuleID    uuid.UUID `json:"rule_id"`
}

func (h *Handler) sendManual(w http.ResponseWriter, r *http.Request) {
	var req sendManualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := h.svc.SendManual(r.Context(), req.BillingID, req.RuleID)
	if err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			http.Error(w, "billing not found", http.StatusNotFound)
			return
		}

		if errors.Is(err, notification.ErrNotFound) {
			http.Error(w, "rule not found", http.StatusNotFound)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toLogResponse(entry)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type sendTestRequest struct {
	To string `json:"to"`
}

func (h *Handler) sendTest(w http.ResponseWriter, r *http.Request) {
	var req sendTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.To == "" {
		http.Error(w, "to field is required", http.StatusBadRequest)
		return
	}

	if err := h.svc.SendTest(r.Context(), req.To); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
