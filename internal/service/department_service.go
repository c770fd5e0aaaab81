package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/model"
)

type DepartmentStore interface {
	List(ctx context.Context, q model.ListQuery) (*model.Page[model.Department], error)
	Get(ctx context.Context, id uuid.UUID) (*model.Department, error)
	Create(ctx context.Context, dept *model.Department) error
	Update(ctx context.Context, dept *model.Department) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountReferences(ctx context.Context, id uuid.UUID) (int64, error)
	Ancestors(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
}

type DepartmentService struct {
	repo DepartmentStore
}

type DepartmentInput struct {
	Code     string
	Name     string
	ParentID *uuid.UUID
	IsActive *bool
}

func NewDepartmentService(repo DepartmentStore) *DepartmentService {
	return &DepartmentService{repo: repo}
}

func (s *DepartmentService) List(ctx context.Context, q model.ListQuery) (*model.Page[model.Department], error) {
	return s.repo.List(ctx, q)
}

func (s *DepartmentService) Get(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	dept, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return dept, nil
}

func (s *DepartmentService) Create(ctx context.Context, input DepartmentInput) (*model.Department, error) {
	if err := s.validate(ctx, uuid.Nil, input); err != nil {
		return nil, err
	}
	now := time.Now()
	dept := &model.Department{
		ID:        uuid.New(),
		Code:      strings.TrimSpace(input.Code),
		Name:      strings.TrimSpace(input.Name),
		ParentID:  input.ParentID,
		IsActive:  input.IsActive == nil || *input.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, dept); err != nil {
		return nil, storeError(err)
	}
	return dept, nil
}

func (s *DepartmentService) Update(ctx context.Context, id uuid.UUID, input DepartmentInput) (*model.Department, error) {
	dept, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if err := s.validate(ctx, id, input); err != nil {
		return nil, err
	}
	dept.Code = strings.TrimSpace(input.Code)
	dept.Name = strings.TrimSpace(input.Name)
	dept.ParentID = input.ParentID
	if input.IsActive != nil {
		dept.IsActive = *input.IsActive
	}
	dept.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, dept); err != nil {
		return nil, storeError(err)
	}
	return dept, nil
}

func (s *DepartmentService) Delete(ctx context.Context, id uuid.UUID) error {
	refs, err := s.repo.CountReferences(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: department is referenced by %d records", ErrConflict, refs)
	}
	return storeError(s.repo.Delete(ctx, id))
}

func (s *DepartmentService) validate(ctx context.Context, id uuid.UUID, input DepartmentInput) error {
	if err := required("code", input.Code); err != nil {
		return err
	}
	if err := required("name", input.Name); err != nil {
		return err
	}
	if input.ParentID == nil {
		return nil
	}
	if *input.ParentID == id {
		return fmt.Errorf("%w: department cannot be its own parent", ErrInvalidInput)
	}
	if _, err := s.repo.Get(ctx, *input.ParentID); err != nil {
		if storeError(err) == ErrNotFound {
			return fmt.Errorf("%w: parent department not found", ErrInvalidInput)
		}
		return err
	}
	if id == uuid.Nil {
		return nil
	}
	chain, err := s.repo.Ancestors(ctx, *input.ParentID)
	if err != nil {
		return err
	}
	for _, ancestor := range chain {
		if ancestor == id {
			return fmt.Errorf("%w: parent would create a cycle", ErrInvalidInput)
		}
	}
	return nil
}
