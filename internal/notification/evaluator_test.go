package notification_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/cobranca/internal/billing"
	"github.com/MrJamesThe3rd/cobranca/internal/notification"
)

func intPtr(n int) *int { return &n }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func pendingBilling(due time.Time) *billing.Billing {
	return &billing.Billing{
		ID:            uuid.New(),
		CustomerName:  "João Silva",
		CustomerEmail: "joao@email.com",
		Description:   "Desenvolvimento de website",
		Amount:        250000,
		DueDate:       due,
		Status:        billing.StatusPending,
	}
}

func reminderRule(daysBefore int) *notification.Rule {
	return &notification.Rule{
		ID:            uuid.New(),
		Name:          "Lembrete",
		Type:          notification.TypeDueReminder,
		DaysBeforeDue: intPtr(daysBefore),
		Enabled:       true,
		Subject:       "Lembrete",
		Body:          "{{customerName}}",
	}
}

func overdueRule(daysAfter int) *notification.Rule {
	return &notification.Rule{
		ID:           uuid.New(),
		Name:         "Aviso de vencimento",
		Type:         notification.TypeOverdueAlert,
		DaysAfterDue: intPtr(daysAfter),
		Enabled:      true,
		Subject:      "Atraso",
		Body:         "{{daysOverdue}}",
	}
}

func TestDaysUntilDue(t *testing.T) {
	tests := []struct {
		name  string
		today time.Time
		due   time.Time
		want  int
	}{
		{name: "ThreeDaysBefore", today: date(2024, 1, 12), due: date(2024, 1, 15), want: 3},
		{name: "DueToday", today: date(2024, 1, 15), due: date(2024, 1, 15), want: 0},
		{name: "OneDayOverdue", today: date(2024, 1, 2), due: date(2024, 1, 1), want: -1},
		{
			// A late-evening evaluation must not shave a day off the count.
			name:  "TimeOfDayIgnored",
			today: time.Date(2024, 1, 12, 23, 30, 0, 0, time.UTC),
			due:   date(2024, 1, 15),
			want:  3,
		},
		{
			name:  "DueDateCarriesTime",
			today: date(2024, 1, 12),
			due:   time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC),
			want:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, notification.DaysUntilDue(tt.today, tt.due))
		})
	}
}

func TestEvaluate_DueReminderWindow(t *testing.T) {
	today := date(2024, 1, 12)
	b := pendingBilling(date(2024, 1, 15))
	rule := reminderRule(3)

	got := notification.Evaluate(today, []*billing.Billing{b}, []*notification.Rule{rule}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, b, got[0].Billing)
	assert.Equal(t, rule, got[0].Rule)

	// Status is read fresh on every call: paying stops the reminder
	// immediately, identical dates notwithstanding.
	b.Status = billing.StatusPaid
	got = notification.Evaluate(today, []*billing.Billing{b}, []*notification.Rule{rule}, nil)
	assert.Empty(t, got)
}

func TestEvaluate_DueReminderOutsideWindow(t *testing.T) {
	rule := reminderRule(3)
	b := pendingBilling(date(2024, 1, 15))

	for _, today := range []time.Time{date(2024, 1, 11), date(2024, 1, 13)} {
		got := notification.Evaluate(today, []*billing.Billing{b}, []*notification.Rule{rule}, nil)
		assert.Empty(t, got, "today=%s", today)
	}
}

func TestEvaluate_OverdueWindow(t *testing.T) {
	today := date(2024, 1, 2)
	b := pendingBilling(date(2024, 1, 1))
	b.Status = billing.StatusOverdue
	rule := overdueRule(1)

	got := notification.Evaluate(today, []*billing.Billing{b}, []*notification.Rule{rule}, nil)
	require.Len(t, got, 1)

	// Pending records never trigger the overdue alert, even inside the window.
	b.Status = billing.StatusPending
	got = notification.Evaluate(today, []*billing.Billing{b}, []*notification.Rule{rule}, nil)
	assert.Empty(t, got)
}

func TestEvaluate_SameDayDedup(t *testing.T) {
	today := time.Date(2024, 1, 12, 15, 0, 0, 0, time.UTC)
	b := pendingBilling(date(2024, 1, 15))
	rule := reminderRule(3)

	history := []*notification.LogEntry{
		{
			ID:        uuid.New(),
			BillingID: b.ID,
			RuleName:  rule.Name,
			SentAt:    time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC),
			Status:    notification.StatusSent,
		},
	}

	got := notification.Evaluate(today, []*billing.Billing{b}, []*notification.Rule{rule}, history)
	assert.Empty(t, got, "an entry earlier the same day suppresses the pair")

	// Failed attempts count too: one automatic attempt per pair per day.
	history[0].Status = notification.StatusFailed
	got = notification.Evaluate(today, []*billing.Billing{b}, []*notification.Rule{rule}, history)
	assert.Empty(t, got)

	// Yesterday's entry does not suppress today.
	history[0].SentAt = time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)
	got = notification.Evaluate(today, []*billing.Billing{b}, []*notification.Rule{rule}, history)
	assert.Len(t, got, 1)
}

func TestEvaluate_DedupIsPerPair(t *testing.T) {
	today := date(2024, 1, 12)
	b1 := pendingBilling(date(2024, 1, 15))
	b2 := pendingBilling(date(2024, 1, 15))
	rule := reminderRule(3)

	history := []*notification.LogEntry{
		{BillingID: b1.ID, RuleName: rule.Name, SentAt: today},
	}

	got := notification.Evaluate(today, []*billing.Billing{b1, b2}, []*notification.Rule{rule}, history)
	require.Len(t, got, 1)
	assert.Equal(t, b2, got[0].Billing)
}

func TestEvaluate_DisabledRuleNeverFires(t *testing.T) {
	today := date(2024, 1, 12)
	b := pendingBilling(date(2024, 1, 15))
	rule := reminderRule(3)
	rule.Enabled = false

	got := notification.Evaluate(today, []*billing.Billing{b}, []*notification.Rule{rule}, nil)
	assert.Empty(t, got)
}

func TestEvaluate_PaymentConfirmationNeverScanned(t *testing.T) {
	today := date(2024, 1, 12)
	b := pendingBilling(date(2024, 1, 12))
	rule := &notification.Rule{
		ID:      uuid.New(),
		Name:    "Confirmação",
		Type:    notification.TypePaymentConfirmation,
		Enabled: true,
	}

	got := notification.Evaluate(today, []*billing.Billing{b}, []*notification.Rule{rule}, nil)
	assert.Empty(t, got)
}

func TestEvaluate_EmptyInputs(t *testing.T) {
	today := date(2024, 1, 12)

	assert.Empty(t, notification.Evaluate(today, nil, []*notification.Rule{reminderRule(3)}, nil))
	assert.Empty(t, notification.Evaluate(today, []*billing.Billing{pendingBilling(date(2024, 1, 15))}, nil, nil))
}

func TestEvaluate_Ordering(t *testing.T) {
	today := date(2024, 1, 12)
	b1 := pendingBilling(date(2024, 1, 15))
	b2 := pendingBilling(date(2024, 1, 15))
	r1 := reminderRule(3)
	r2 := reminderRule(3)
	r2.Name = "Segundo lembrete"

	got := notification.Evaluate(today,
		[]*billing.Billing{b1, b2},
		[]*notification.Rule{r1, r2},
		nil,
	)

	require.Len(t, got, 4)
	assert.Equal(t, []notification.Candidate{
		{Billing: b1, Rule: r1},
		{Billing: b1, Rule: r2},
		{Billing: b2, Rule: r1},
		{Billing: b2, Rule: r2},
	}, got)
}
