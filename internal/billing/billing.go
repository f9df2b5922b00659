package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("billing not found")

// Status represents the lifecycle state of a billing record.
// It is set externally (by the operator or the shell), never derived
// from the due date by this package.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusPaid || s == StatusOverdue
}

// Billing represents a charge owed by a customer.
type Billing struct {
	ID            uuid.UUID
	CustomerName  string
	CustomerEmail string
	Description   string
	Amount        int64 // Amount in cents
	DueDate       time.Time
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	DeletedAt     *time.Time
}

// DateOnly truncates t to its calendar date at UTC midnight.
// Due dates carry no time component; comparing them against a wall-clock
// "now" without truncation yields off-by-one day counts.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
