package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/cobranca/internal/billing"
)

// Fake collaborators. The dispatcher is exercised against scripted fakes
// rather than gomock because the interesting assertions are about the state
// accumulated across a whole pass, not about individual call expectations.

type fakeBillings struct {
	billings []*billing.Billing
}

func (f *fakeBillings) List(ctx context.Context, filter billing.ListFilter) ([]*billing.Billing, error) {
	return f.billings, nil
}

func (f *fakeBillings) Get(ctx context.Context, id uuid.UUID) (*billing.Billing, error) {
	for _, b := range f.billings {
		if b.ID == id {
			return b, nil
		}
	}

	return nil, billing.ErrNotFound
}

type fakeRules struct {
	rules []*Rule
}

func (f *fakeRules) CreateRule(ctx context.Context, r *Rule) error {
	r.ID = uuid.New()
	f.rules = append(f.rules, r)

	return nil
}

func (f *fakeRules) GetRule(ctx context.Context, id uuid.UUID) (*Rule, error) {
	for _, r := range f.rules {
		if r.ID == id {
			return r, nil
		}
	}

	return nil, ErrNotFound
}

func (f *fakeRules) ListRules(ctx context.Context) ([]*Rule, error) { return f.rules, nil }
func (f *fakeRules) UpdateRule(ctx context.Context, r *Rule) error  { return nil }
func (f *fakeRules) DeleteRule(ctx context.Context, id uuid.UUID) error {
	return nil
}

type fakeLog struct {
	mu      sync.Mutex
	entries []*LogEntry
}

func (f *fakeLog) AppendEntry(ctx context.Context, e *LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e.ID = uuid.New()
	f.entries = append(f.entries, e)

	return nil
}

func (f *fakeLog) ListEntries(ctx context.Context, filter LogFilter) ([]*LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*LogEntry

	for i := len(f.entries) - 1; i >= 0; i-- {
		e := f.entries[i]

		if filter.BillingID != nil && e.BillingID != *filter.BillingID {
			continue
		}

		if filter.Day != nil && !billing.DateOnly(e.SentAt).Equal(billing.DateOnly(*filter.Day)) {
			continue
		}

		out = append(out, e)
	}

	return out, nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeTransport struct {
	mu      sync.Mutex
	sent    []sentMail
	failFor map[string]bool // recipients that fail

	started chan struct{} // closed on first Send, when set
	release chan struct{} // Send blocks on this, when set

	startOnce sync.Once
}

func (f *fakeTransport) Send(ctx context.Context, to, subject, body string) error {
	if f.started != nil {
		f.startOnce.Do(func() { close(f.started) })
	}

	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	f.mu.Unlock()

	if f.failFor[to] {
		return errors.New("smtp: 554 transaction failed")
	}

	return nil
}

func newTestService(billings []*billing.Billing, rules []*Rule, transport *fakeTransport, now time.Time) (*Service, *fakeLog) {
	log := &fakeLog{}
	svc := NewService(&fakeBillings{billings: billings}, &fakeRules{rules: rules}, log, transport)
	svc.now = func() time.Time { return now }

	return svc, log
}

func testBilling(email string, due time.Time, status billing.Status) *billing.Billing {
	return &billing.Billing{
		ID:            uuid.New(),
		CustomerName:  "Cliente",
		CustomerEmail: email,
		Description:   "Serviço",
		Amount:        80000,
		DueDate:       due,
		Status:        status,
	}
}

func testReminderRule() *Rule {
	three := 3

	return &Rule{
		ID:            uuid.New(),
		Name:          "Lembrete",
		Type:          TypeDueReminder,
		DaysBeforeDue: &three,
		Enabled:       true,
		Subject:       "Vence em breve",
		Body:          "Olá {{customerName}}, valor {{amount}}, vence em {{dueDate}}.",
	}
}

func TestService_RunAutomaticPass_PartialFailure(t *testing.T) {
	now := time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC)
	due := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	billings := []*billing.Billing{
		testBilling("a@email.com", due, billing.StatusPending),
		testBilling("b@email.com", due, billing.StatusPending),
		testBilling("c@email.com", due, billing.StatusPending),
	}

	transport := &fakeTransport{failFor: map[string]bool{"b@email.com": true}}
	svc, log := newTestService(billings, []*Rule{testReminderRule()}, transport, now)

	entries, err := svc.RunAutomaticPass(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3, "one failing transport must not abort the batch")

	var sent, failed int

	for _, e := range entries {
		switch e.Status {
		case StatusSent:
			sent++
		case StatusFailed:
			failed++
		}
	}

	assert.Equal(t, 2, sent)
	assert.Equal(t, 1, failed)
	assert.Len(t, log.entries, 3)
}

func TestService_RunAutomaticPass_NoDuplicateSameDay(t *testing.T) {
	now := time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC)
	due := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	b := testBilling("a@email.com", due, billing.StatusPending)
	transport := &fakeTransport{}
	svc, log := newTestService([]*billing.Billing{b}, []*Rule{testReminderRule()}, transport, now)

	first, err := svc.RunAutomaticPass(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.RunAutomaticPass(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second, "a second pass the same day must not resend")
	assert.Len(t, log.entries, 1)
}

func TestService_RunAutomaticPass_RendersTemplate(t *testing.T) {
	now := time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC)
	due := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	b := testBilling("a@email.com", due, billing.StatusPending)
	transport := &fakeTransport{}
	svc, _ := newTestService([]*billing.Billing{b}, []*Rule{testReminderRule()}, transport, now)

	_, err := svc.RunAutomaticPass(context.Background())
	require.NoError(t, err)

	require.Len(t, transport.sent, 1)
	assert.Equal(t, "a@email.com", transport.sent[0].to)
	assert.Contains(t, transport.sent[0].body, "Olá Cliente")
	assert.Contains(t, transport.sent[0].body, "800,00")
	assert.Contains(t, transport.sent[0].body, "15/01/2024")
}

func TestService_RunAutomaticPass_OverdueVars(t *testing.T) {
	now := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	two := 2
	rule := &Rule{
		ID:           uuid.New(),
		Name:         "Aviso",
		Type:         TypeOverdueAlert,
		DaysAfterDue: &two,
		Enabled:      true,
		Subject:      "Atraso",
		Body:         "Dias em atraso: {{daysOverdue}}",
	}

	b := testBilling("a@email.com", due, billing.StatusOverdue)
	transport := &fakeTransport{}
	svc, _ := newTestService([]*billing.Billing{b}, []*Rule{rule}, transport, now)

	_, err := svc.RunAutomaticPass(context.Background())
	require.NoError(t, err)

	require.Len(t, transport.sent, 1)
	assert.Contains(t, transport.sent[0].body, "Dias em atraso: 2")
}

func TestService_RunAutomaticPass_Reentrancy(t *testing.T) {
	now := time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC)
	due := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	b := testBilling("a@email.com", due, billing.StatusPending)
	transport := &fakeTransport{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc, _ := newTestService([]*billing.Billing{b}, []*Rule{testReminderRule()}, transport, now)

	done := make(chan struct{})

	go func() {
		defer close(done)

		_, err := svc.RunAutomaticPass(context.Background())
		assert.NoError(t, err)
	}()

	<-transport.started

	// The transport is still blocked inside the first pass.
	_, err := svc.RunAutomaticPass(context.Background())
	assert.ErrorIs(t, err, ErrPassInFlight)

	close(transport.release)
	<-done

	// Once the pass finished the guard is released again. The pair was
	// already sent today, so the pass is a no-op, but it must run.
	entries, err := svc.RunAutomaticPass(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_SendManual_BypassesDedup(t *testing.T) {
	now := time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC)
	due := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	b := testBilling("a@email.com", due, billing.StatusPending)
	rule := testReminderRule()
	transport := &fakeTransport{}
	svc, log := newTestService([]*billing.Billing{b}, []*Rule{rule}, transport, now)

	_, err := svc.RunAutomaticPass(context.Background())
	require.NoError(t, err)
	require.Len(t, log.entries, 1)

	entry, err := svc.SendManual(context.Background(), b.ID, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, entry.Status)
	assert.Len(t, log.entries, 2, "manual sends are never deduped")
}

func TestService_SendManual_NotFound(t *testing.T) {
	now := time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC)

	rule := testReminderRule()
	b := testBilling("a@email.com", now, billing.StatusPending)
	transport := &fakeTransport{}
	svc, log := newTestService([]*billing.Billing{b}, []*Rule{rule}, transport, now)

	_, err := svc.SendManual(context.Background(), uuid.New(), rule.ID)
	assert.ErrorIs(t, err, billing.ErrNotFound)

	_, err = svc.SendManual(context.Background(), b.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, log.entries, "not-found must not produce a log entry")
	assert.Empty(t, transport.sent)
}

func TestService_ConfirmPayment(t *testing.T) {
	now := time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)
	due := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	confirm := &Rule{
		ID:      uuid.New(),
		Name:    "Confirmação de pagamento",
		Type:    TypePaymentConfirmation,
		Enabled: true,
		Subject: "Pagamento confirmado",
		Body:    "Pagamento em {{paymentDate}}.",
	}

	b := testBilling("a@email.com", due, billing.StatusPaid)
	transport := &fakeTransport{}
	svc, log := newTestService([]*billing.Billing{b}, []*Rule{testReminderRule(), confirm}, transport, now)

	entries, err := svc.ConfirmPayment(context.Background(), b.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1, "only confirmation rules fire on payment")
	assert.Equal(t, "Confirmação de pagamento", entries[0].RuleName)
	assert.Len(t, log.entries, 1)

	require.Len(t, transport.sent, 1)
	assert.Contains(t, transport.sent[0].body, "Pagamento em 20/01/2024.")
}

func TestService_ConfirmPayment_DisabledRule(t *testing.T) {
	now := time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)

	confirm := &Rule{
		ID:      uuid.New(),
		Name:    "Confirmação",
		Type:    TypePaymentConfirmation,
		Enabled: false,
	}

	b := testBilling("a@email.com", now, billing.StatusPaid)
	transport := &fakeTransport{}
	svc, log := newTestService([]*billing.Billing{b}, []*Rule{confirm}, transport, now)

	entries, err := svc.ConfirmPayment(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, log.entries)
}

func TestService_PendingCandidates_IgnoresDedup(t *testing.T) {
	now := time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC)
	due := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	b := testBilling("a@email.com", due, billing.StatusPending)
	transport := &fakeTransport{}
	svc, _ := newTestService([]*billing.Billing{b}, []*Rule{testReminderRule()}, transport, now)

	_, err := svc.RunAutomaticPass(context.Background())
	require.NoError(t, err)

	// The preview still shows the pair after today's send.
	candidates, err := svc.PendingCandidates(context.Background())
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestService_EnsureDefaultRules(t *testing.T) {
	rules := &fakeRules{}
	svc := NewService(&fakeBillings{}, rules, &fakeLog{}, &fakeTransport{})

	require.NoError(t, svc.EnsureDefaultRules(context.Background()))
	assert.Len(t, rules.rules, 3)

	// Idempotent: a non-empty collection is left alone.
	require.NoError(t, svc.EnsureDefaultRules(context.Background()))
	assert.Len(t, rules.rules, 3)
}

func TestService_CreateRule_Validates(t *testing.T) {
	rules := &fakeRules{}
	svc := NewService(&fakeBillings{}, rules, &fakeLog{}, &fakeTransport{})

	err := svc.CreateRule(context.Background(), &Rule{
		Name: "Lembrete sem prazo",
		Type: TypeDueReminder,
	})
	assert.Error(t, err)
	assert.Empty(t, rules.rules)
}
