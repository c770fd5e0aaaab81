package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/model"
)

type CustomerStore interface {
	List(ctx context.Context, q model.ListQuery) (*model.Page[model.Customer], error)
	Get(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	Create(ctx context.Context, customer *model.Customer) error
	Update(ctx context.Context, customer *model.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CustomerService struct {
	repo CustomerStore
}

type CustomerInput struct {
	Code    string
	Name    string
	TaxID   string
	Email   string
	Phone   string
	Address string
	Region  string
}

func NewCustomerService(repo CustomerStore) *CustomerService {
	return &CustomerService{repo: repo}
}

func (s *CustomerService) List(ctx context.Context, q model.ListQuery) (*model.Page[model.Customer], error) {
	return s.repo.List(ctx, q)
}

func (s *CustomerService) Get(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	customer, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return customer, nil
}

func (s *CustomerService) Create(ctx context.Context, input CustomerInput) (*model.Customer, error) {
	if err := validateCustomer(input); err != nil {
		return nil, err
	}
	now := time.Now()
	customer := &model.Customer{ID: uuid.New(), CreatedAt: now}
	applyCustomerInput(customer, input)
	customer.UpdatedAt = now
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, storeError(err)
	}
	return customer, nil
}

func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, input CustomerInput) (*model.Customer, error) {
	customer, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if err := validateCustomer(input); err != nil {
		return nil, err
	}
	applyCustomerInput(customer, input)
	customer.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, storeError(err)
	}
	return customer, nil
}

func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if storeError(err) == ErrInvalidInput {
		// foreign keys from contracts or purchase orders
		return ErrConflict
	}
	return storeError(err)
}

func validateCustomer(input CustomerInput) error {
	if err := required("code", input.Code); err != nil {
		return err
	}
	if err := required("name", input.Name); err != nil {
		return err
	}
	return validEmail(strings.TrimSpace(input.Email))
}

func applyCustomerInput(customer *model.Customer, input CustomerInput) {
	customer.Code = strings.TrimSpace(input.Code)
	customer.Name = strings.TrimSpace(input.Name)
	customer.TaxID = strings.TrimSpace(input.TaxID)
	customer.Email = strings.TrimSpace(input.Email)
	customer.Phone = strings.TrimSpace(input.Phone)
	customer.Address = strings.TrimSpace(input.Address)
	customer.Region = strings.TrimSpace(input.Region)
}
