package notification

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("notification rule not found")

	// ErrPassInFlight is returned when an automatic pass is requested while a
	// previous one is still running. Overlapping passes are dropped, never
	// queued, so a slow mail server cannot produce duplicate sends.
	ErrPassInFlight = errors.New("automatic pass already in flight")
)

// RuleType categorizes when a notification rule applies.
type RuleType string

const (
	TypeDueReminder         RuleType = "due_reminder"
	TypeOverdueAlert        RuleType = "overdue_alert"
	TypePaymentConfirmation RuleType = "payment_confirmation"
)

// Rule configures the timing and the email template for one notification kind.
type Rule struct {
	ID            uuid.UUID
	Name          string
	Type          RuleType
	DaysBeforeDue *int // due_reminder only
	DaysAfterDue  *int // overdue_alert only
	Enabled       bool
	Subject       string
	Body          string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// Validate rejects rules whose matching window would be undefined.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return errors.New("rule name is required")
	}

	switch r.Type {
	case TypeDueReminder:
		if r.DaysBeforeDue == nil {
			return errors.New("due_reminder rule requires days before due")
		}

		if *r.DaysBeforeDue < 0 {
			return fmt.Errorf("days before due must be non-negative, got %d", *r.DaysBeforeDue)
		}
	case TypeOverdueAlert:
		if r.DaysAfterDue == nil {
			return errors.New("overdue_alert rule requires days after due")
		}

		if *r.DaysAfterDue < 0 {
			return fmt.Errorf("days after due must be non-negative, got %d", *r.DaysAfterDue)
		}
	case TypePaymentConfirmation:
	default:
		return fmt.Errorf("unknown rule type %q", r.Type)
	}

	return nil
}

// LogStatus is the outcome recorded for one notification attempt.
type LogStatus string

const (
	StatusSent    LogStatus = "sent"
	StatusFailed  LogStatus = "failed"
	StatusPending LogStatus = "pending"
)

// LogEntry is one row of the append-only notification audit trail. Customer
// name and email are captured at send time, not joined live, so the history
// stays truthful when records change later. Entries are never updated or
// deleted: they are the evidence the same-day suppression relies on.
type LogEntry struct {
	ID            uuid.UUID
	BillingID     uuid.UUID
	CustomerName  string
	CustomerEmail string
	RuleName      string
	Subject       string
	SentAt        time.Time
	Status        LogStatus
}
