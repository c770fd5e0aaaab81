package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/erp-console/internal/model"
)

type BulletinRepository struct {
	db *gorm.DB
}

func NewBulletinRepository(db *gorm.DB) *BulletinRepository {
	return &BulletinRepository{db: db}
}

func (r *BulletinRepository) List(ctx context.Context, q model.ListQuery, region string) (*model.Page[model.PriceBulletin], error) {
	query := r.db.Model(&model.PriceBulletin{})
	if q.Search != "" {
		query = query.Where("number ILIKE ?", likePattern(q.Search))
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if region != "" {
		query = query.Where("region = ?", region)
	}
	return paginate[model.PriceBulletin](ctx, query, q, "region ASC, version DESC")
}

func (r *BulletinRepository) Get(ctx context.Context, id uuid.UUID) (*model.PriceBulletin, error) {
	var bulletin model.PriceBulletin
	if err := r.db.WithContext(ctx).First(&bulletin, "id = ?", id).Error; err != nil {
		return nil, err
	}

	var items []model.PriceBulletinItem
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			i.id,
			i.bulletin_id,
			i.product_id,
			i.unit_price,
			p.code AS product_code,
			p.name AS product_name,
			p.unit
		FROM price_bulletin_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.bulletin_id = ?
		ORDER BY p.code ASC
	`, id).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	bulletin.Items = items
	return &bulletin, nil
}

// Create stores a bulletin with its items and assigns the next version number
// in the bulletin's region.
func (r *BulletinRepository) Create(ctx context.Context, bulletin *model.PriceBulletin) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createBulletin(tx, bulletin)
	})
}

func createBulletin(tx *gorm.DB, bulletin *model.PriceBulletin) error {
	if err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext(?))`, "bulletin:"+bulletin.Region).Error; err != nil {
		return err
	}
	var next int
	if err := tx.Raw(`
		SELECT COALESCE(MAX(version), 0) + 1 FROM price_bulletins WHERE region = ?
	`, bulletin.Region).Scan(&next).Error; err != nil {
		return err
	}
	bulletin.Version = next

	if err := tx.Omit("Items").Create(bulletin).Error; err != nil {
		return err
	}
	return insertBulletinItems(tx, bulletin)
}

// Update saves header fields and replaces the item list.
func (r *BulletinRepository) Update(ctx context.Context, bulletin *model.PriceBulletin) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(bulletin).Error; err != nil {
			return err
		}
		if err := tx.Where("bulletin_id = ?", bulletin.ID).Delete(&model.PriceBulletinItem{}).Error; err != nil {
			return err
		}
		return insertBulletinItems(tx, bulletin)
	})
}

func insertBulletinItems(tx *gorm.DB, bulletin *model.PriceBulletin) error {
	if len(bulletin.Items) == 0 {
		return nil
	}
	for i := range bulletin.Items {
		if bulletin.Items[i].ID == uuid.Nil {
			bulletin.Items[i].ID = uuid.New()
		}
		bulletin.Items[i].BulletinID = bulletin.ID
	}
	return tx.Create(&bulletin.Items).Error
}

// Delete removes a bulletin and unlinks the import job that produced it.
func (r *BulletinRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.PriceImportJob{}).
			Where("bulletin_id = ?", id).
			Update("bulletin_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.PriceBulletin{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// UpdateStatus moves a bulletin from one status to another. It reports
// gorm.ErrRecordNotFound when the bulletin is not in the expected status.
func (r *BulletinRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to model.BulletinStatus,
	publishedAt *time.Time,
) error {
	updates := map[string]any{"status": to, "updated_at": time.Now()}
	if publishedAt != nil {
		updates["published_at"] = *publishedAt
	}
	res := r.db.WithContext(ctx).Model(&model.PriceBulletin{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindQuotes resolves unit prices for products in a region on a given day.
// The ORDER BY mirrors model.PriceBulletin.Supersedes: the newest published
// version covering the day wins and equal versions fall back to the later
// valid_from.
func (r *BulletinRepository) FindQuotes(
	ctx context.Context,
	region string,
	day time.Time,
	productIDs []uuid.UUID,
) (map[uuid.UUID]model.PriceQuote, error) {
	result := make(map[uuid.UUID]model.PriceQuote, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		ProductID  uuid.UUID
		UnitPrice  float64
		BulletinID uuid.UUID
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT ON (i.product_id)
			i.product_id,
			i.unit_price,
			b.id AS bulletin_id
		FROM price_bulletin_items i
		JOIN price_bulletins b ON b.id = i.bulletin_id
		WHERE b.region = ?
			AND b.status = ?
			AND b.valid_from <= ?
			AND (b.valid_to IS NULL OR b.valid_to >= ?)
			AND i.product_id IN ?
		ORDER BY i.product_id, b.version DESC, b.valid_from DESC
	`, region, model.BulletinStatusPublished, day, day, productIDs).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		bulletinID := row.BulletinID
		result[row.ProductID] = model.PriceQuote{
			ProductID:  row.ProductID,
			UnitPrice:  row.UnitPrice,
			BulletinID: &bulletinID,
			Found:      true,
		}
	}
	return result, nil
}

// ArchiveLapsed archives published bulletins whose validity ended before day.
func (r *BulletinRepository) ArchiveLapsed(ctx context.Context, day time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE price_bulletins
		SET status = ?, updated_at = NOW()
		WHERE status = ? AND valid_to IS NOT NULL AND valid_to < ?
	`, model.BulletinStatusArchived, model.BulletinStatusPublished, day)
	return res.RowsAffected, res.Error
}
