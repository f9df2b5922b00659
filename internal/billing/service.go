package billing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=billing
type Repository interface {
	CreateBilling(ctx context.Context, b *Billing) error
	GetBilling(ctx context.Context, id uuid.UUID) (*Billing, error)
	UpdateBilling(ctx context.Context, b *Billing) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	ListBillings(ctx context.Context, filter ListFilter) ([]*Billing, error)
	DeleteBilling(ctx context.Context, id uuid.UUID) error

	BeginImport(ctx context.Context, minDue, maxDue time.Time) (ImportTx, error)
}

type ImportTx interface {
	FindDuplicates(ctx context.Context, params []CreateParams) ([]*Billing, error)
	CreateBillings(ctx context.Context, billings []*Billing) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	CustomerName  string
	CustomerEmail string
	Description   string
	Amount        int64
	DueDate       time.Time
	Status        Status
}

type ListFilter struct {
	Status  *Status
	DueFrom *time.Time
	DueTo   *time.Time
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Billing, error) {
	if params.Amount < 0 {
		return nil, fmt.Errorf("amount must be non-negative, got %d", params.Amount)
	}

	if !params.Status.Valid() {
		return nil, fmt.Errorf("invalid status %q", params.Status)
	}

	b := &Billing{
		CustomerName:  params.CustomerName,
		CustomerEmail: params.CustomerEmail,
		Description:   params.Description,
		Amount:        params.Amount,
		DueDate:       DateOnly(params.DueDate),
		Status:        params.Status,
	}
	if err := s.repo.CreateBilling(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Billing, error) {
	return s.repo.GetBilling(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Billing, error) {
	return s.repo.ListBillings(ctx, filter)
}

func (s *Service) Update(ctx context.Context, b *Billing) error {
	if b.Amount < 0 {
		return fmt.Errorf("amount must be non-negative, got %d", b.Amount)
	}

	b.DueDate = DateOnly(b.DueDate)

	return s.repo.UpdateBilling(ctx, b)
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}

	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteBilling(ctx, id)
}

// Summary aggregates billing records by status for the dashboard.
type Summary struct {
	RevenueCents int64 // sum of paid records
	PendingCents int64
	PendingCount int
	OverdueCents int64
	OverdueCount int
	Recent       []*Billing
}

const recentLimit = 5

func (s *Service) Summarize(ctx context.Context) (*Summary, error) {
	billings, err := s.repo.ListBillings(ctx, ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing billings: %w", err)
	}

	sum := &Summary{}

	for _, b := range billings {
		switch b.Status {
		case StatusPaid:
			sum.RevenueCents += b.Amount
		case StatusPending:
			sum.PendingCents += b.Amount
			sum.PendingCount++
		case StatusOverdue:
			sum.OverdueCents += b.Amount
			sum.OverdueCount++
		}
	}

	recent := make([]*Billing, len(billings))
	copy(recent, billings)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})

	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}

	sum.Recent = recent

	return sum, nil
}

type ImportResult struct {
	Imported  []*Billing
	New       []CreateParams
	Conflicts []Conflict
}

type Conflict struct {
	Incoming CreateParams
	Existing *Billing
}

// ImportBatch creates billing records in bulk, rejecting the whole batch when
// any incoming row matches an existing record on due date, amount, customer
// email and description. The duplicate check and the inserts run in a single
// database transaction guarded by an advisory lock on the batch's due-date
// range, so two concurrent imports of the same file cannot both pass the check.
func (s *Service) ImportBatch(ctx context.Context, params []CreateParams) (*ImportResult, error) {
	if len(params) == 0 {
		return &ImportResult{}, nil
	}

	minDue, maxDue := dueDateRange(params)

	itx, err := s.repo.BeginImport(ctx, minDue, maxDue)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	duplicates, err := itx.FindDuplicates(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}

	lookup := make(map[dupKey]*Billing, len(duplicates))
	for _, d := range duplicates {
		lookup[dupKeyFor(d.DueDate, d.Amount, d.CustomerEmail, d.Description)] = d
	}

	var newParams []CreateParams

	var conflicts []Conflict

	for _, p := range params {
		existing, found := lookup[dupKeyFor(p.DueDate, p.Amount, p.CustomerEmail, p.Description)]
		if found {
			conflicts = append(conflicts, Conflict{Incoming: p, Existing: existing})
			continue
		}

		newParams = append(newParams, p)
	}

	if len(conflicts) > 0 {
		return &ImportResult{New: newParams, Conflicts: conflicts}, nil
	}

	billings := paramsToBillings(newParams)
	if err := itx.CreateBillings(ctx, billings); err != nil {
		return nil, fmt.Errorf("create billings: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return &ImportResult{Imported: billings}, nil
}

type dupKey struct {
	DueDate       string
	Amount        int64
	CustomerEmail string
	Description   string
}

func dupKeyFor(due time.Time, amount int64, email, description string) dupKey {
	return dupKey{
		DueDate:       due.Format(time.DateOnly),
		Amount:        amount,
		CustomerEmail: email,
		Description:   description,
	}
}

func dueDateRange(params []CreateParams) (time.Time, time.Time) {
	minDue := params[0].DueDate
	maxDue := params[0].DueDate

	for _, p := range params[1:] {
		if p.DueDate.Before(minDue) {
			minDue = p.DueDate
		}

		if p.DueDate.After(maxDue) {
			maxDue = p.DueDate
		}
	}

	return minDue, maxDue
}

func paramsToBillings(params []CreateParams) []*Billing {
	billings := make([]*Billing, len(params))
	for i, p := range params {
		billings[i] = &Billing{
			CustomerName:  p.CustomerName,
			CustomerEmail: p.CustomerEmail,
			Description:   p.Description,
			Amount:        p.Amount,
			DueDate:       DateOnly(p.DueDate),
			Status:        p.Status,
		}
	}

	return billings
}
