package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cobranca/internal/notification"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectRuleColumns = `
	id, name, type, days_before_due, days_after_due, enabled, subject, body,
	created_at, updated_at
`

func scanRule(s scanner) (*notification.Rule, error) {
	var r notification.Rule

	var typeStr string

	var before, after sql.NullInt32

	if err := s.Scan(
		&r.ID, &r.Name, &typeStr, &before, &after, &r.Enabled, &r.Subject, &r.Body,
		&r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}

	r.Type = notification.RuleType(typeStr)

	if before.Valid {
		n := int(before.Int32)
		r.DaysBeforeDue = &n
	}

	if after.Valid {
		n := int(after.Int32)
		r.DaysAfterDue = &n
	}

	return &r, nil
}

func (s *Store) CreateRule(ctx context.Context, r *notification.Rule) error {
	query := `
		INSERT INTO notification_rules (name, type, days_before_due, days_after_due, enabled, subject, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		r.Name, r.Type, r.DaysBeforeDue, r.DaysAfterDue, r.Enabled, r.Subject, r.Body,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating rule: %w", err)
	}

	return nil
}

func (s *Store) GetRule(ctx context.Context, id uuid.UUID) (*notification.Rule, error) {
	query := `SELECT ` + selectRuleColumns + `
		FROM notification_rules
		WHERE id = $1`

	r, err := scanRule(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notification.ErrNotFound
		}

		return nil, fmt.Errorf("getting rule: %w", err)
	}

	return r, nil
}

func (s *Store) ListRules(ctx context.Context) ([]*notification.Rule, error) {
	query := `SELECT ` + selectRuleColumns + `
		FROM notification_rules
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	defer rows.Close()

	var rules []*notification.Rule

	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}

		rules = append(rules, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rule rows: %w", err)
	}

	return rules, nil
}

func (s *Store) UpdateRule(ctx context.Context, r *notification.Rule) error {
	query := `
		UPDATE notification_rules
		SET name = $1, type = $2, days_before_due = $3, days_after_due = $4, enabled = $5, subject = $6, body = $7, updated_at = NOW()
		WHERE id = $8
	`

	_, err := s.db.ExecContext(ctx, query,
		r.Name, r.Type, r.DaysBeforeDue, r.DaysAfterDue, r.Enabled, r.Subject, r.Body, r.ID,
	)
	if err != nil {
		return fmt.Errorf("updating rule: %w", err)
	}

	return nil
}

func (s *Store) DeleteRule(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notification_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting rule: %w", err)
	}

	return nil
}

const selectLogColumns = `
	id, billing_id, customer_name, customer_email, rule_name, subject, sent_at, status
`

func scanLogEntry(s scanner) (*notification.LogEntry, error) {
	var e notification.LogEntry

	var statusStr string

	if err := s.Scan(
		&e.ID, &e.BillingID, &e.CustomerName, &e.CustomerEmail, &e.RuleName,
		&e.Subject, &e.SentAt, &statusStr,
	); err != nil {
		return nil, err
	}

	e.Status = notification.LogStatus(statusStr)

	return &e, nil
}

// AppendEntry inserts one audit row. The table has no update or delete path
// in this codebase: the history is permanent evidence for the same-day
// suppression. Each insert is a single statement, so concurrent automatic
// and manual writers serialize on the database.
func (s *Store) AppendEntry(ctx context.Context, e *notification.LogEntry) error {
	query := `
		INSERT INTO notification_logs (billing_id, customer_name, customer_email, rule_name, subject, sent_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		e.BillingID, e.CustomerName, e.CustomerEmail, e.RuleName, e.Subject, e.SentAt, e.Status,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("appending log entry: %w", err)
	}

	return nil
}

func (s *Store) ListEntries(ctx context.Context, filter notification.LogFilter) ([]*notification.LogEntry, error) {
	query := `SELECT ` + selectLogColumns + `
		FROM notification_logs
		WHERE 1=1`

	var args []any

	argIdx := 1

	if filter.BillingID != nil {
		query += fmt.Sprintf(" AND billing_id = $%d", argIdx)

		args = append(args, *filter.BillingID)
		argIdx++
	}

	if filter.Day != nil {
		query += fmt.Sprintf(" AND sent_at >= $%d AND sent_at < $%d + INTERVAL '1 day'", argIdx, argIdx)

		args = append(args, *filter.Day)
		argIdx++
	}

	query += " ORDER BY sent_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing log entries: %w", err)
	}
	defer rows.Close()

	var entries []*notification.LogEntry

	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating log rows: %w", err)
	}

	return entries, nil
}
