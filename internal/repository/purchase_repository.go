package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/erp-console/internal/model"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) List(ctx context.Context, q model.ListQuery) (*model.Page[model.PurchaseOrder], error) {
	query := r.db.Model(&model.PurchaseOrder{})
	if q.Search != "" {
		query = query.Where("number ILIKE ?", likePattern(q.Search))
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	return paginate[model.PurchaseOrder](ctx, query, q, "order_date DESC, number DESC", "Customer")
}

func (r *PurchaseRepository) Get(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	if err := r.db.WithContext(ctx).Preload("Customer").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}

	var lines []model.PurchaseLine
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			l.id,
			l.order_id,
			l.line_no,
			l.product_id,
			l.quantity,
			l.unit_price,
			l.amount,
			p.code AS product_code,
			p.name AS product_name,
			p.unit
		FROM purchase_lines l
		JOIN products p ON p.id = l.product_id
		WHERE l.order_id = ?
		ORDER BY l.line_no ASC
	`, id).Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	order.Lines = lines
	return &order, nil
}

func (r *PurchaseRepository) Create(ctx context.Context, order *model.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines", "Customer").Create(order).Error; err != nil {
			return err
		}
		return insertPurchaseLines(tx, order)
	})
}

func (r *PurchaseRepository) Update(ctx context.Context, order *model.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines", "Customer").Save(order).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&model.PurchaseLine{}).Error; err != nil {
			return err
		}
		return insertPurchaseLines(tx, order)
	})
}

func insertPurchaseLines(tx *gorm.DB, order *model.PurchaseOrder) error {
	if len(order.Lines) == 0 {
		return nil
	}
	for i := range order.Lines {
		if order.Lines[i].ID == uuid.Nil {
			order.Lines[i].ID = uuid.New()
		}
		order.Lines[i].OrderID = order.ID
	}
	return tx.Create(&order.Lines).Error
}

func (r *PurchaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.PurchaseOrder{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Transition applies a status change guarded by the expected current status.
func (r *PurchaseRepository) Transition(
	ctx context.Context,
	id uuid.UUID,
	from []model.PurchaseStatus,
	to model.PurchaseStatus,
	decidedBy *uuid.UUID,
	reason *string,
) error {
	updates := map[string]any{"status": to, "updated_at": time.Now()}
	if decidedBy != nil {
		updates["decided_by_user_id"] = *decidedBy
		updates["decided_at"] = time.Now()
	}
	if reason != nil {
		updates["rejection_reason"] = *reason
	}
	res := r.db.WithContext(ctx).Model(&model.PurchaseOrder{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PurchaseRepository) CountByStatus(ctx context.Context, status model.PurchaseStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PurchaseOrder{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
