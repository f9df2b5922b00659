package store

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cobranca/internal/billing"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectBillingColumns = `
	id, customer_name, customer_email, description, amount, due_date, status,
	created_at, updated_at, deleted_at
`

func scanBilling(s scanner) (*billing.Billing, error) {
	var b billing.Billing

	var statusStr string

	if err := s.Scan(
		&b.ID, &b.CustomerName, &b.CustomerEmail, &b.Description, &b.Amount,
		&b.DueDate, &statusStr,
		&b.CreatedAt, &b.UpdatedAt, &b.DeletedAt,
	); err != nil {
		return nil, err
	}

	b.Status = billing.Status(statusStr)

	return &b, nil
}

func (s *Store) CreateBilling(ctx context.Context, b *billing.Billing) error {
	query := `
		INSERT INTO billings (customer_name, customer_email, description, amount, due_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		b.CustomerName,
		b.CustomerEmail,
		b.Description,
		b.Amount,
		b.DueDate,
		b.Status,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating billing: %w", err)
	}

	return nil
}

func (s *Store) GetBilling(ctx context.Context, id uuid.UUID) (*billing.Billing, error) {
	query := `SELECT ` + selectBillingColumns + `
		FROM billings
		WHERE id = $1 AND deleted_at IS NULL`

	b, err := scanBilling(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, billing.ErrNotFound
		}

		return nil, fmt.Errorf("getting billing: %w", err)
	}

	return b, nil
}

func (s *Store) ListBillings(ctx context.Context, filter billing.ListFilter) ([]*billing.Billing, error) {
	query := `SELECT ` + selectBillingColumns + `
		FROM billings
		WHERE deleted_at IS NULL`

	var args []any

	argIdx := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.DueFrom != nil {
		query += fmt.Sprintf(" AND due_date >= $%d", argIdx)

		args = append(args, *filter.DueFrom)
		argIdx++
	}

	if filter.DueTo != nil {
		query += fmt.Sprintf(" AND due_date <= $%d", argIdx)

		args = append(args, *filter.DueTo)
		argIdx++
	}

	query += " ORDER BY due_date ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing billings: %w", err)
	}
	defer rows.Close()

	var billings []*billing.Billing

	for rows.Next() {
		b, err := scanBilling(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning billing: %w", err)
		}

		billings = append(billings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating billing rows: %w", err)
	}

	return billings, nil
}

func (s *Store) UpdateBilling(ctx context.Context, b *billing.Billing) error {
	query := `
		UPDATE billings
		SET customer_name = $1, customer_email = $2, description = $3, amount = $4, due_date = $5, status = $6, updated_at = NOW()
		WHERE id = $7 AND deleted_at IS NULL
	`

	_, err := s.db.ExecContext(ctx, query,
		b.CustomerName,
		b.CustomerEmail,
		b.Description,
		b.Amount,
		b.DueDate,
		b.Status,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("updating billing: %w", err)
	}

	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status billing.Status) error {
	query := `
		UPDATE billings
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`

	_, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	return nil
}

func (s *Store) DeleteBilling(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE billings
		SET deleted_at = NOW()
		WHERE id = $1
	`

	_, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting billing: %w", err)
	}

	return nil
}

func importLockKey(minDue, maxDue time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(minDue.Format(time.DateOnly)))
	h.Write([]byte{0})
	h.Write([]byte(maxDue.Format(time.DateOnly)))

	return int64(h.Sum64())
}

type importTx struct {
	tx *sql.Tx
}

func (s *Store) BeginImport(ctx context.Context, minDue, maxDue time.Time) (billing.ImportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	lockKey := importLockKey(minDue, maxDue)
	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}

	return &importTx{tx: dbTx}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

func (itx *importTx) FindDuplicates(ctx context.Context, params []billing.CreateParams) ([]*billing.Billing, error) {
	if len(params) == 0 {
		return nil, nil
	}

	type lookupKey struct {
		DueDate       string
		Amount        int64
		CustomerEmail string
		Description   string
	}

	minDue := params[0].DueDate
	maxDue := params[0].DueDate
	keySet := make(map[lookupKey]struct{}, len(params))

	for _, p := range params {
		if p.DueDate.Before(minDue) {
			minDue = p.DueDate
		}

		if p.DueDate.After(maxDue) {
			maxDue = p.DueDate
		}

		keySet[lookupKey{
			DueDate:       p.DueDate.Format(time.DateOnly),
			Amount:        p.Amount,
			CustomerEmail: p.CustomerEmail,
			Description:   p.Description,
		}] = struct{}{}
	}

	query := `SELECT ` + selectBillingColumns + `
		FROM billings
		WHERE deleted_at IS NULL AND due_date >= $1 AND due_date <= $2
		ORDER BY due_date ASC`

	rows, err := itx.tx.QueryContext(ctx, query, minDue, maxDue)
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}
	defer rows.Close()

	var duplicates []*billing.Billing

	for rows.Next() {
		b, err := scanBilling(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning billing: %w", err)
		}

		k := lookupKey{
			DueDate:       b.DueDate.Format(time.DateOnly),
			Amount:        b.Amount,
			CustomerEmail: b.CustomerEmail,
			Description:   b.Description,
		}

		_, found := keySet[k]
		if !found {
			continue
		}

		duplicates = append(duplicates, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating duplicate rows: %w", err)
	}

	return duplicates, nil
}

func (itx *importTx) CreateBillings(ctx context.Context, billings []*billing.Billing) error {
	query := `
		INSERT INTO billings (customer_name, customer_email, description, amount, due_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	for _, b := range billings {
		err := itx.tx.QueryRowContext(ctx, query,
			b.CustomerName,
			b.CustomerEmail,
			b.Description,
			b.Amount,
			b.DueDate,
			b.Status,
		).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return fmt.Errorf("creating billing: %w", err)
		}
	}

	return nil
}
