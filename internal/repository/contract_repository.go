package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/erp-console/internal/model"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) List(ctx context.Context, q model.ListQuery) (*model.Page[model.Contract], error) {
	query := r.db.Model(&model.Contract{})
	if q.Search != "" {
		pattern := likePattern(q.Search)
		query = query.Where("number ILIKE ? OR name ILIKE ?", pattern, pattern)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	return paginate[model.Contract](ctx, query, q, "start_at DESC, number ASC", "Customer")
}

func (r *ContractRepository) Get(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	if err := r.db.WithContext(ctx).Preload("Customer").First(&contract, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) Create(ctx context.Context, contract *model.Contract) error {
	return r.db.WithContext(ctx).Omit("Customer").Create(contract).Error
}

func (r *ContractRepository) Update(ctx context.Context, contract *model.Contract) error {
	return r.db.WithContext(ctx).Omit("Customer").Save(contract).Error
}

func (r *ContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Contract{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountEndingBetween counts active contracts whose end date is in [from, to].
func (r *ContractRepository) CountEndingBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("status = ? AND end_at >= ? AND end_at <= ?", model.ContractStatusActive, from, to).
		Count(&count).Error
	return count, err
}
