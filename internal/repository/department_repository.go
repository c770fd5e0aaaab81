package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/erp-console/internal/model"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) List(ctx context.Context, q model.ListQuery) (*model.Page[model.Department], error) {
	query := r.db.Model(&model.Department{})
	if q.Search != "" {
		pattern := likePattern(q.Search)
		query = query.Where("name ILIKE ? OR code ILIKE ?", pattern, pattern)
	}
	return paginate[model.Department](ctx, query, q, "code ASC")
}

func (r *DepartmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	var dept model.Department
	if err := r.db.WithContext(ctx).First(&dept, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *DepartmentRepository) Create(ctx context.Context, dept *model.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *DepartmentRepository) Update(ctx context.Context, dept *model.Department) error {
	return r.db.WithContext(ctx).Save(dept).Error
}

func (r *DepartmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Department{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountReferences returns how many child departments and users point at id.
func (r *DepartmentRepository) CountReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			(SELECT COUNT(*) FROM departments WHERE parent_id = ?) +
			(SELECT COUNT(*) FROM users WHERE department_id = ?)
	`, id, id).Scan(&count).Error
	return count, err
}

// Ancestors walks parent links upward from id and returns the visited ids.
func (r *DepartmentRepository) Ancestors(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Raw(`
		WITH RECURSIVE chain AS (
			SELECT id, parent_id FROM departments WHERE id = ?
			UNION
			SELECT d.id, d.parent_id FROM departments d JOIN chain c ON d.id = c.parent_id
		)
		SELECT id FROM chain
	`, id).Scan(&ids).Error
	return ids, err
}
