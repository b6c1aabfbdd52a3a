package orders

import (
	"context"
	"strings"
)

// RepositoryPort defines data access methods for orders.
type RepositoryPort interface {
	List(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, id int64) (*Order, error)
	Create(ctx context.Context, req CreateOrderRequest, createdBy int64) (*Order, error)
	Update(ctx context.Context, id int64, req UpdateOrderRequest) (*Order, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles order business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateOrderRequest, createdBy int64) (*Order, error) {
	req.Reference = strings.TrimSpace(req.Reference)
	return s.repo.Create(ctx, req, createdBy)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateOrderRequest) (*Order, error) {
	return s.repo.Update(ctx, id, req)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
