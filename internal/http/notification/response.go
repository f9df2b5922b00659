package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cobranca/internal/notification"
)

type ruleResponse struct {
	ID            uuid.UUID             `json:"id"`
	Name          string                `json:"name"`
	Type          notification.RuleType `json:"type"`
	DaysBeforeDue *int                  `json:"days_before_due,omitempty"`
	DaysAfterDue  *int                  `json:"days_after_due,omitempty"`
	Enabled       bool                  `json:"enabled"`
	Subject       string                `json:"subject"`
	Body          string                `json:"body"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     *time.Time            `json:"updated_at,omitempty"`
}

func toRuleResponse(r *notification.Rule) ruleResponse {
	return ruleResponse{
		ID:            r.ID,
		Name:          r.Name,
		Type:          r.Type,
		DaysBeforeDue: r.DaysBeforeDue,
		DaysAfterDue:  r.DaysAfterDue,
		Enabled:       r.Enabled,
		Subject:       r.Subject,
		Body:          r.Body,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type logResponse struct {
	ID            uuid.UUID              `json:"id"`
	BillingID     uuid.UUID              `json:"billing_id"`
	CustomerName  string                 `json:"customer_name"`
	CustomerEmail string                 `json:"customer_email"`
	RuleName      string                 `json:"rule_name"`
	Subject       string                 `json:"subject"`
	SentAt        time.Time              `json:"sent_at"`
	Status        notification.LogStatus `json:"status"`
}

func toLogResponse(e *notification.LogEntry) logResponse {
	return logResponse{
		ID:            e.ID,
		BillingID:     e.BillingID,
		CustomerName:  e.CustomerName,
		CustomerEmail: e.CustomerEmail,
		RuleName:      e.RuleName,
		Subject:       e.Subject,
		SentAt:        e.SentAt,
		Status:        e.Status,
	}
}

type candidateResponse struct {
	BillingID     uuid.UUID `json:"billing_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	DueDate       time.Time `json:"due_date"`
	RuleID        uuid.UUID `json:"rule_id"`
	RuleName      string    `json:"rule_name"`
}

func toCandidateResponse(c notification.Candidate) candidateResponse {
	return candidateResponse{
		BillingID:     c.Billing.ID,
		CustomerName:  c.Billing.CustomerName,
		CustomerEmail: c.Billing.CustomerEmail,
		DueDate:       c.Billing.DueDate,
		RuleID:        c.Rule.ID,
		RuleName:      c.Rule.Name,
	}
}
