package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cobranca/internal/billing"
)

// Candidate pairs a billing record with a rule that should fire for it now.
type Candidate struct {
	Billing *billing.Billing
	Rule    *Rule
}

// DaysUntilDue returns the whole number of calendar days between today and
// the due date: positive before the due date, zero on it, negative after.
// Both sides are truncated to their calendar date first, so the wall-clock
// time of the evaluation can never shift the count by a day.
func DaysUntilDue(today, due time.Time) int {
	t := billing.DateOnly(today)
	d := billing.DateOnly(due)

	return int(d.Sub(t) / (24 * time.Hour))
}

// Evaluate computes which (billing, rule) pairs are due for an automatic
// notification. It is pure: no side effects, status read fresh from the
// input on every call.
//
// A due_reminder fires when the record is pending and exactly DaysBeforeDue
// days remain. An overdue_alert fires when the record is overdue and exactly
// DaysAfterDue days have passed. Payment confirmations are event-driven and
// never returned here. A pair already present in history for today's calendar
// day is suppressed, which bounds automatic sends to one per pair per day.
//
// Candidates keep billing input order, rules in rule-list order within each
// billing record.
func Evaluate(today time.Time, billings []*billing.Billing, rules []*Rule, history []*LogEntry) []Candidate {
	var candidates []Candidate

	for _, b := range billings {
		daysUntilDue := DaysUntilDue(today, b.DueDate)

		for _, r := range rules {
			if !r.Enabled {
				continue
			}

			if !matches(r, b, daysUntilDue) {
				continue
			}

			if sentToday(history, b.ID, r.Name, today) {
				continue
			}

			candidates = append(candidates, Candidate{Billing: b, Rule: r})
		}
	}

	return candidates
}

func matches(r *Rule, b *billing.Billing, daysUntilDue int) bool {
	switch r.Type {
	case TypeDueReminder:
		return r.DaysBeforeDue != nil &&
			*r.DaysBeforeDue == daysUntilDue &&
			b.Status == billing.StatusPending
	case TypeOverdueAlert:
		return r.DaysAfterDue != nil &&
			daysUntilDue == -*r.DaysAfterDue &&
			b.Status == billing.StatusOverdue
	}

	return false
}

func sentToday(history []*LogEntry, billingID uuid.UUID, ruleName string, today time.Time) bool {
	day := billing.DateOnly(today)

	for _, e := range history {
		if e.BillingID == billingID && e.RuleName == ruleName && billing.DateOnly(e.SentAt).Equal(day) {
			return true
		}
	}

	return false
}
