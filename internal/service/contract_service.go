package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/model"
)

type ContractStore interface {
	List(ctx context.Context, q model.ListQuery) (*model.Page[model.Contract], error)
	Get(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	Create(ctx context.Context, contract *model.Contract) error
	Update(ctx context.Context, contract *model.Contract) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountEndingBetween(ctx context.Context, from, to time.Time) (int64, error)
}

type ContractService struct {
	repo      ContractStore
	customers CustomerStore
}

type ContractInput struct {
	Number       string
	Name         string
	CustomerID   uuid.UUID
	DepartmentID *uuid.UUID
	Amount       float64
	StartAt      time.Time
	EndAt        time.Time
	Notes        string
	Status       model.ContractStatus
}

func NewContractService(repo ContractStore, customers CustomerStore) *ContractService {
	return &ContractService{repo: repo, customers: customers}
}

func (s *ContractService) List(ctx context.Context, q model.ListQuery) (*model.Page[model.Contract], error) {
	return s.repo.List(ctx, q)
}

func (s *ContractService) Get(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return contract, nil
}

func (s *ContractService) Create(ctx context.Context, principal model.Principal, input ContractInput) (*model.Contract, error) {
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}
	if input.Status != "" && input.Status != model.ContractStatusDraft {
		return nil, fmt.Errorf("%w: new contracts start as DRAFT", ErrInvalidInput)
	}

	now := time.Now()
	contract := &model.Contract{
		ID:        uuid.New(),
		Status:    model.ContractStatusDraft,
		CreatedBy: principal.UserID,
		CreatedAt: now,
	}
	applyContractInput(contract, input)
	contract.UpdatedAt = now
	if err := s.repo.Create(ctx, contract); err != nil {
		return nil, storeError(err)
	}
	return contract, nil
}

func (s *ContractService) Update(ctx context.Context, id uuid.UUID, input ContractInput) (*model.Contract, error) {
	contract, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if contract.Status == model.ContractStatusClosed {
		return nil, fmt.Errorf("%w: closed contracts cannot be edited", ErrInvalidState)
	}
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}
	if input.Status != "" && input.Status != contract.Status {
		if !contract.Status.CanTransition(input.Status) {
			return nil, fmt.Errorf("%w: cannot move contract from %s to %s", ErrInvalidState, contract.Status, input.Status)
		}
		contract.Status = input.Status
	}

	applyContractInput(contract, input)
	contract.UpdatedAt = time.Now()
	contract.Customer = nil
	if err := s.repo.Update(ctx, contract); err != nil {
		return nil, storeError(err)
	}
	return contract, nil
}

func (s *ContractService) Delete(ctx context.Context, id uuid.UUID) error {
	contract, err := s.repo.Get(ctx, id)
	if err != nil {
		return storeError(err)
	}
	if contract.Status != model.ContractStatusDraft {
		return fmt.Errorf("%w: only draft contracts can be deleted", ErrInvalidState)
	}
	err = s.repo.Delete(ctx, id)
	if storeError(err) == ErrInvalidInput {
		return ErrConflict
	}
	return storeError(err)
}

func (s *ContractService) validate(ctx context.Context, input ContractInput) error {
	if err := required("number", input.Number); err != nil {
		return err
	}
	if err := required("name", input.Name); err != nil {
		return err
	}
	if input.CustomerID == uuid.Nil {
		return fmt.Errorf("%w: customer_id is required", ErrInvalidInput)
	}
	if input.StartAt.IsZero() || input.EndAt.IsZero() {
		return fmt.Errorf("%w: contract dates are required", ErrInvalidInput)
	}
	if dateOnly(input.StartAt).After(dateOnly(input.EndAt)) {
		return fmt.Errorf("%w: start_at must be before or equal to end_at", ErrInvalidInput)
	}
	if input.Amount < 0 {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	if _, err := s.customers.Get(ctx, input.CustomerID); err != nil {
		if storeError(err) == ErrNotFound {
			return fmt.Errorf("%w: customer not found", ErrInvalidInput)
		}
		return err
	}
	return nil
}

func applyContractInput(contract *model.Contract, input ContractInput) {
	contract.Number = strings.TrimSpace(input.Number)
	contract.Name = strings.TrimSpace(input.Name)
	contract.CustomerID = input.CustomerID
	contract.DepartmentID = input.DepartmentID
	contract.Amount = model.RoundMoney(input.Amount)
	contract.StartAt = dateOnly(input.StartAt)
	contract.EndAt = dateOnly(input.EndAt)
	contract.Notes = strings.TrimSpace(input.Notes)
}
