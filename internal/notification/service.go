package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cobranca/internal/billing"
	"github.com/MrJamesThe3rd/cobranca/internal/format"
	"github.com/MrJamesThe3rd/cobranca/internal/mail"
)

// BillingSource is the read-only view of the billing collection the
// dispatcher works against. The notification subsystem never mutates
// billing records.
type BillingSource interface {
	List(ctx context.Context, filter billing.ListFilter) ([]*billing.Billing, error)
	Get(ctx context.Context, id uuid.UUID) (*billing.Billing, error)
}

type RuleRepository interface {
	CreateRule(ctx context.Context, r *Rule) error
	GetRule(ctx context.Context, id uuid.UUID) (*Rule, error)
	ListRules(ctx context.Context) ([]*Rule, error)
	UpdateRule(ctx context.Context, r *Rule) error
	DeleteRule(ctx context.Context, id uuid.UUID) error
}

// LogRepository is append-only: entries are written once and only queried
// afterwards.
type LogRepository interface {
	AppendEntry(ctx context.Context, e *LogEntry) error
	ListEntries(ctx context.Context, filter LogFilter) ([]*LogEntry, error)
}

// LogFilter narrows log queries. Results are always newest-first.
type LogFilter struct {
	BillingID *uuid.UUID
	Day       *time.Time
}

// Service orchestrates evaluation, rendering, sending and logging. It is the
// only part of the subsystem with side effects besides the transport itself.
type Service struct {
	billings  BillingSource
	rules     RuleRepository
	log       LogRepository
	transport mail.Transport

	now     func() time.Time
	running atomic.Bool
}

func NewService(billings BillingSource, rules RuleRepository, log LogRepository, transport mail.Transport) *Service {
	return &Service{
		billings:  billings,
		rules:     rules,
		log:       log,
		transport: transport,
		now:       time.Now,
	}
}

// RunAutomaticPass evaluates all billing records against all rules and
// delivers whatever is due, one log entry per candidate. Failures are
// isolated per candidate: a transport or log error on one pair never aborts
// the rest of the batch. At most one pass runs at a time; concurrent callers
// get ErrPassInFlight.
func (s *Service) RunAutomaticPass(ctx context.Context) ([]*LogEntry, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrPassInFlight
	}
	defer s.running.Store(false)

	today := s.now()

	billings, err := s.billings.List(ctx, billing.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing billings: %w", err)
	}

	rules, err := s.rules.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}

	day := billing.DateOnly(today)

	history, err := s.log.ListEntries(ctx, LogFilter{Day: &day})
	if err != nil {
		return nil, fmt.Errorf("listing today's log entries: %w", err)
	}

	candidates := Evaluate(today, billings, rules, history)

	entries := make([]*LogEntry, 0, len(candidates))

	for _, c := range candidates {
		entry, err := s.deliver(ctx, c.Billing, c.Rule, s.now())
		if err != nil {
			slog.Error("failed to record notification",
				"billing_id", c.Billing.ID, "rule", c.Rule.Name, "error", err)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// SendManual delivers one notification on operator request. Manual sends skip
// the same-day suppression: an operator may deliberately resend. Both the
// billing record and the rule must exist; nothing is logged otherwise.
func (s *Service) SendManual(ctx context.Context, billingID, ruleID uuid.UUID) (*LogEntry, error) {
	b, err := s.billings.Get(ctx, billingID)
	if err != nil {
		return nil, err
	}

	r, err := s.rules.GetRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	return s.deliver(ctx, b, r, s.now())
}

// ConfirmPayment fires every enabled payment confirmation rule for the given
// billing record. It is the event trigger behind "payment just happened";
// the periodic scan never sends confirmations.
func (s *Service) ConfirmPayment(ctx context.Context, billingID uuid.UUID) ([]*LogEntry, error) {
	b, err := s.billings.Get(ctx, billingID)
	if err != nil {
		return nil, err
	}

	rules, err := s.rules.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}

	var entries []*LogEntry

	for _, r := range rules {
		if r.Type != TypePaymentConfirmation || !r.Enabled {
			continue
		}

		entry, err := s.deliver(ctx, b, r, s.now())
		if err != nil {
			slog.Error("failed to record payment confirmation",
				"billing_id", b.ID, "rule", r.Name, "error", err)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// PendingCandidates previews the pairs that currently match, without sending
// anything and without the same-day suppression.
func (s *Service) PendingCandidates(ctx context.Context) ([]Candidate, error) {
	billings, err := s.billings.List(ctx, billing.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing billings: %w", err)
	}

	rules, err := s.rules.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}

	return Evaluate(s.now(), billings, rules, nil), nil
}

const testSubject = "Teste do Sistema de Notificações"

const testBody = `Este é um e-mail de teste do Sistema de Cobrança.

Se você recebeu este e-mail, a configuração SMTP está funcionando.

Data/hora do teste: {{testDate}}

Atenciosamente,
Sistema de Cobrança`

// SendTest sends the SMTP smoke-test mail. Nothing is logged: it exercises
// the transport configuration, not a billing record.
func (s *Service) SendTest(ctx context.Context, to string) error {
	body := Render(testBody, map[string]string{
		"testDate": s.now().Format("02/01/2006 15:04"),
	})

	return s.transport.Send(ctx, to, testSubject, body)
}

func (s *Service) deliver(ctx context.Context, b *billing.Billing, r *Rule, sentAt time.Time) (*LogEntry, error) {
	vars := templateVars(b, r, sentAt)
	subject := Render(r.Subject, vars)
	body := Render(r.Body, vars)

	status := StatusSent

	if err := s.transport.Send(ctx, b.CustomerEmail, subject, body); err != nil {
		slog.Warn("notification send failed",
			"billing_id", b.ID, "rule", r.Name, "to", b.CustomerEmail, "error", err)

		status = StatusFailed
	}

	entry := &LogEntry{
		BillingID:     b.ID,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		RuleName:      r.Name,
		Subject:       subject,
		SentAt:        sentAt,
		Status:        status,
	}

	if err := s.log.AppendEntry(ctx, entry); err != nil {
		return entry, fmt.Errorf("appending log entry: %w", err)
	}

	return entry, nil
}

func templateVars(b *billing.Billing, r *Rule, now time.Time) map[string]string {
	vars := map[string]string{
		"customerName": b.CustomerName,
		"description":  b.Description,
		"amount":       format.Amount(b.Amount),
		"dueDate":      format.Date(b.DueDate),
	}

	switch r.Type {
	case TypeOverdueAlert:
		days := -DaysUntilDue(now, b.DueDate)
		if days < 0 {
			days = 0
		}

		vars["daysOverdue"] = strconv.Itoa(days)
	case TypePaymentConfirmation:
		vars["paymentDate"] = format.Date(now)
	}

	return vars
}

// Logs returns audit entries, newest first.
func (s *Service) Logs(ctx context.Context, filter LogFilter) ([]*LogEntry, error) {
	return s.log.ListEntries(ctx, filter)
}

func (s *Service) CreateRule(ctx context.Context, r *Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}

	return s.rules.CreateRule(ctx, r)
}

func (s *Service) GetRule(ctx context.Context, id uuid.UUID) (*Rule, error) {
	return s.rules.GetRule(ctx, id)
}

func (s *Service) Rules(ctx context.Context) ([]*Rule, error) {
	return s.rules.ListRules(ctx)
}

func (s *Service) UpdateRule(ctx context.Context, r *Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}

	return s.rules.UpdateRule(ctx, r)
}

func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	return s.rules.DeleteRule(ctx, id)
}

// EnsureDefaultRules seeds the default rule set when the collection is empty.
func (s *Service) EnsureDefaultRules(ctx context.Context) error {
	rules, err := s.rules.ListRules(ctx)
	if err != nil {
		return fmt.Errorf("listing rules: %w", err)
	}

	if len(rules) > 0 {
		return nil
	}

	for _, r := range DefaultRules() {
		if err := s.rules.CreateRule(ctx, r); err != nil {
			return fmt.Errorf("seeding rule %q: %w", r.Name, err)
		}
	}

	return nil
}
