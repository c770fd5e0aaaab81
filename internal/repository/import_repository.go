package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/erp-console/internal/model"
)

type ImportRepository struct {
	db *gorm.DB
}

func NewImportRepository(db *gorm.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

func (r *ImportRepository) CreateJob(ctx context.Context, job *model.PriceImportJob) error {
	return r.db.WithContext(ctx).Omit("Rows").Create(job).Error
}

// GetJob loads a job with its rows. The uploaded file is not loaded unless
// withContent is set.
func (r *ImportRepository) GetJob(ctx context.Context, id uuid.UUID, withContent bool) (*model.PriceImportJob, error) {
	var job model.PriceImportJob
	query := r.db.WithContext(ctx)
	if !withContent {
		query = query.Omit("content")
	}
	if err := query.First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}

	var rows []model.PriceImportRow
	if err := r.db.WithContext(ctx).
		Where("job_id = ?", id).
		Order("line_no ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	job.Rows = rows
	return &job, nil
}

func (r *ImportRepository) ListJobIDsByStatus(ctx context.Context, statuses ...model.ImportStatus) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.PriceImportJob{}).
		Where("status IN ?", statuses).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *ImportRepository) CountByStatus(ctx context.Context, status model.ImportStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PriceImportJob{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// Transition moves the job to a new status when it is currently in one of
// from. It reports gorm.ErrRecordNotFound otherwise.
func (r *ImportRepository) Transition(
	ctx context.Context,
	id uuid.UUID,
	from []model.ImportStatus,
	to model.ImportStatus,
	errText string,
) error {
	res := r.db.WithContext(ctx).Model(&model.PriceImportJob{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]any{"status": to, "error": errText, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SaveParsed replaces the job rows and marks it READY in one transaction.
func (r *ImportRepository) SaveParsed(ctx context.Context, id uuid.UUID, rows []model.PriceImportRow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&model.PriceImportRow{}).Error; err != nil {
			return err
		}
		for i := range rows {
			if rows[i].ID == uuid.Nil {
				rows[i].ID = uuid.New()
			}
			rows[i].JobID = id
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(&rows, 200).Error; err != nil {
				return err
			}
		}
		res := tx.Model(&model.PriceImportJob{}).
			Where("id = ? AND status = ?", id, model.ImportStatusParsing).
			Updates(map[string]any{"status": model.ImportStatusReady, "error": "", "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *ImportRepository) UpdateRow(ctx context.Context, row *model.PriceImportRow) error {
	return r.db.WithContext(ctx).Save(row).Error
}

// Commit stores the bulletin produced from a job and marks the job COMMITTED
// in the same transaction.
func (r *ImportRepository) Commit(ctx context.Context, id uuid.UUID, bulletin *model.PriceBulletin) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createBulletin(tx, bulletin); err != nil {
			return err
		}
		res := tx.Model(&model.PriceImportJob{}).
			Where("id = ? AND status = ?", id, model.ImportStatusReady).
			Updates(map[string]any{
				"status":      model.ImportStatusCommitted,
				"bulletin_id": bulletin.ID,
				"updated_at":  time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ExpireStale marks unfinished jobs created before cutoff as EXPIRED.
func (r *ImportRepository) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.PriceImportJob{}).
		Where("status IN ? AND created_at < ?", []model.ImportStatus{
			model.ImportStatusPending,
			model.ImportStatusParsing,
			model.ImportStatusReady,
		}, cutoff).
		Updates(map[string]any{"status": model.ImportStatusExpired, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}
