package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/model"
)

type ProductStore interface {
	List(ctx context.Context, q model.ListQuery) (*model.Page[model.Product], error)
	All(ctx context.Context) ([]model.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Product, error)
	Create(ctx context.Context, product *model.Product) error
}

type ProductService struct {
	repo ProductStore
}

type ProductInput struct {
	Code string
	Name string
	Unit string
}

func NewProductService(repo ProductStore) *ProductService {
	return &ProductService{repo: repo}
}

func (s *ProductService) List(ctx context.Context, q model.ListQuery) (*model.Page[model.Product], error) {
	return s.repo.List(ctx, q)
}

func (s *ProductService) Create(ctx context.Context, input ProductInput) (*model.Product, error) {
	if err := required("code", input.Code); err != nil {
		return nil, err
	}
	if err := required("name", input.Name); err != nil {
		return nil, err
	}
	product := &model.Product{
		ID:        uuid.New(),
		Code:      strings.TrimSpace(input.Code),
		Name:      strings.TrimSpace(input.Name),
		Unit:      strings.TrimSpace(input.Unit),
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, storeError(err)
	}
	return product, nil
}

// requireProducts loads ids and fails with ErrInvalidInput when any is unknown.
func requireProducts(ctx context.Context, repo ProductStore, ids []uuid.UUID) (map[uuid.UUID]model.Product, error) {
	products, err := repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return nil, fmt.Errorf("%w: product %s not found", ErrInvalidInput, id)
		}
	}
	return products, nil
}
