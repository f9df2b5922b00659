package customer

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("customer not found")

// Customer represents a client that can be billed.
type Customer struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
}
