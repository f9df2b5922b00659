package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cobranca/internal/billing"
)

type billingResponse struct {
	ID            uuid.UUID      `json:"id"`
	CustomerName  string         `json:"customer_name"`
	CustomerEmail string         `json:"customer_email"`
	Description   string         `json:"description"`
	Amount        int64          `json:"amount"`
	DueDate       time.Time      `json:"due_date"`
	Status        billing.Status `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     *time.Time     `json:"updated_at,omitempty"`
}

func toResponse(b *billing.Billing) billingResponse {
	return billingResponse{
		ID:            b.ID,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		Description:   b.Description,
		Amount:        b.Amount,
		DueDate:       b.DueDate,
		Status:        b.Status,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func toResponseList(billings []*billing.Billing) []billingResponse {
	resp := make([]billingResponse, len(billings))
	for i, b := range billings {
		resp[i] = toResponse(b)
	}

	return resp
}
