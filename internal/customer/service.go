package customer

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateCustomer(ctx context.Context, c *Customer) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error)
	ListCustomers(ctx context.Context) ([]*Customer, error)
	UpdateCustomer(ctx context.Context, c *Customer) error
	DeleteCustomer(ctx context.Context, id uuid.UUID) error
	CountCustomers(ctx context.Context) (int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Customer, error) {
	c := &Customer{
		Name:    params.Name,
		Email:   params.Email,
		Phone:   params.Phone,
		Address: params.Address,
	}
	if err := s.repo.CreateCustomer(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) Update(ctx context.Context, c *Customer) error {
	return s.repo.UpdateCustomer(ctx, c)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteCustomer(ctx, id)
}

// Count reports the number of registered customers for the dashboard.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.CountCustomers(ctx)
}
