package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/erp-console/internal/events"
	"github.com/nurpe/erp-console/internal/model"
)

type BulletinStore interface {
	QuoteStore
	List(ctx context.Context, q model.ListQuery, region string) (*model.Page[model.PriceBulletin], error)
	Get(ctx context.Context, id uuid.UUID) (*model.PriceBulletin, error)
	Create(ctx context.Context, bulletin *model.PriceBulletin) error
	Update(ctx context.Context, bulletin *model.PriceBulletin) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.BulletinStatus, publishedAt *time.Time) error
	ArchiveLapsed(ctx context.Context, day time.Time) (int64, error)
}

type BulletinExporter interface {
	Bulletin(bulletin model.PriceBulletin) ([]byte, error)
}

type BulletinService struct {
	repo     BulletinStore
	products ProductStore
	excel    BulletinExporter
	events   events.Publisher
	log      zerolog.Logger
}

type BulletinItemInput struct {
	ProductID uuid.UUID
	UnitPrice float64
}

type BulletinInput struct {
	Number    string
	Region    string
	ValidFrom time.Time
	ValidTo   *time.Time
	Items     []BulletinItemInput
}

func NewBulletinService(
	repo BulletinStore,
	products ProductStore,
	excel BulletinExporter,
	publisher events.Publisher,
	log zerolog.Logger,
) *BulletinService {
	return &BulletinService{
		repo:     repo,
		products: products,
		excel:    excel,
		events:   publisher,
		log:      log,
	}
}

func (s *BulletinService) List(ctx context.Context, q model.ListQuery, region string) (*model.Page[model.PriceBulletin], error) {
	return s.repo.List(ctx, q, strings.TrimSpace(region))
}

func (s *BulletinService) Get(ctx context.Context, id uuid.UUID) (*model.PriceBulletin, error) {
	bulletin, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return bulletin, nil
}

func (s *BulletinService) Create(ctx context.Context, principal model.Principal, input BulletinInput) (*model.PriceBulletin, error) {
	items, err := s.validate(ctx, input)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	bulletin := &model.PriceBulletin{
		ID:        uuid.New(),
		Status:    model.BulletinStatusDraft,
		CreatedBy: principal.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyBulletinInput(bulletin, input, items)
	if err := s.repo.Create(ctx, bulletin); err != nil {
		return nil, storeError(err)
	}
	return bulletin, nil
}

func (s *BulletinService) Update(ctx context.Context, id uuid.UUID, input BulletinInput) (*model.PriceBulletin, error) {
	bulletin, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if bulletin.Status != model.BulletinStatusDraft {
		return nil, fmt.Errorf("%w: only draft bulletins can be edited", ErrInvalidState)
	}
	if strings.TrimSpace(input.Region) != bulletin.Region {
		return nil, fmt.Errorf("%w: region cannot change after creation", ErrInvalidInput)
	}
	items, err := s.validate(ctx, input)
	if err != nil {
		return nil, err
	}
	applyBulletinInput(bulletin, input, items)
	bulletin.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, bulletin); err != nil {
		return nil, storeError(err)
	}
	return bulletin, nil
}

func (s *BulletinService) Delete(ctx context.Context, id uuid.UUID) error {
	bulletin, err := s.repo.Get(ctx, id)
	if err != nil {
		return storeError(err)
	}
	if bulletin.Status != model.BulletinStatusDraft {
		return fmt.Errorf("%w: only draft bulletins can be deleted", ErrInvalidState)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return fmt.Errorf("%w: bulletin is still referenced", ErrConflict)
		}
		return storeError(err)
	}
	return nil
}

func (s *BulletinService) Publish(ctx context.Context, id uuid.UUID) (*model.PriceBulletin, error) {
	bulletin, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if bulletin.Status != model.BulletinStatusDraft {
		return nil, fmt.Errorf("%w: bulletin is %s", ErrInvalidState, bulletin.Status)
	}
	if len(bulletin.Items) == 0 {
		return nil, fmt.Errorf("%w: bulletin has no items", ErrInvalidState)
	}

	now := time.Now()
	if err := s.repo.UpdateStatus(ctx, id, model.BulletinStatusDraft, model.BulletinStatusPublished, &now); err != nil {
		if errors.Is(storeError(err), ErrNotFound) {
			return nil, fmt.Errorf("%w: bulletin changed concurrently", ErrInvalidState)
		}
		return nil, err
	}
	bulletin.Status = model.BulletinStatusPublished
	bulletin.PublishedAt = &now

	events.Emit(ctx, s.events, s.log, events.TypeBulletinPublished, bulletin.ID, map[string]any{
		"number":     bulletin.Number,
		"region":     bulletin.Region,
		"version":    bulletin.Version,
		"valid_from": bulletin.ValidFrom,
		"valid_to":   bulletin.ValidTo,
		"items":      len(bulletin.Items),
	})
	return bulletin, nil
}

func (s *BulletinService) Archive(ctx context.Context, id uuid.UUID) (*model.PriceBulletin, error) {
	if err := s.repo.UpdateStatus(ctx, id, model.BulletinStatusPublished, model.BulletinStatusArchived, nil); err != nil {
		if errors.Is(storeError(err), ErrNotFound) {
			if _, getErr := s.repo.Get(ctx, id); getErr != nil {
				return nil, storeError(getErr)
			}
			return nil, fmt.Errorf("%w: only published bulletins can be archived", ErrInvalidState)
		}
		return nil, err
	}
	bulletin, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	events.Emit(ctx, s.events, s.log, events.TypeBulletinArchived, bulletin.ID, map[string]any{
		"number": bulletin.Number,
		"region": bulletin.Region,
	})
	return bulletin, nil
}

func (s *BulletinService) Export(ctx context.Context, id uuid.UUID) (*FileResult, error) {
	bulletin, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	content, err := s.excel.Bulletin(*bulletin)
	if err != nil {
		return nil, err
	}
	name := sanitizeFileName(bulletin.Number)
	if name == "" {
		name = bulletin.ID.String()
	}
	return &FileResult{
		FileName:    fmt.Sprintf("price-bulletin-%s-v%d.xlsx", name, bulletin.Version),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     content,
	}, nil
}

// ArchiveLapsed archives published bulletins whose validity has ended.
func (s *BulletinService) ArchiveLapsed(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.ArchiveLapsed(ctx, dateOnly(now))
}

func (s *BulletinService) validate(ctx context.Context, input BulletinInput) ([]model.PriceBulletinItem, error) {
	if err := required("number", input.Number); err != nil {
		return nil, err
	}
	if err := required("region", input.Region); err != nil {
		return nil, err
	}
	if input.ValidFrom.IsZero() {
		return nil, fmt.Errorf("%w: valid_from is required", ErrInvalidInput)
	}
	if input.ValidTo != nil && dateOnly(*input.ValidTo).Before(dateOnly(input.ValidFrom)) {
		return nil, fmt.Errorf("%w: valid_to must not be before valid_from", ErrInvalidInput)
	}

	ids := make([]uuid.UUID, 0, len(input.Items))
	seen := make(map[uuid.UUID]struct{}, len(input.Items))
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: product_id is required", ErrInvalidInput)
		}
		if item.UnitPrice <= 0 {
			return nil, fmt.Errorf("%w: unit_price must be positive", ErrInvalidInput)
		}
		if _, ok := seen[item.ProductID]; ok {
			return nil, fmt.Errorf("%w: product %s listed twice", ErrInvalidInput, item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	products, err := requireProducts(ctx, s.products, ids)
	if err != nil {
		return nil, err
	}

	items := make([]model.PriceBulletinItem, 0, len(input.Items))
	for _, item := range input.Items {
		product := products[item.ProductID]
		items = append(items, model.PriceBulletinItem{
			ProductID:   item.ProductID,
			ProductCode: product.Code,
			ProductName: product.Name,
			Unit:        product.Unit,
			UnitPrice:   item.UnitPrice,
		})
	}
	return items, nil
}

func applyBulletinInput(bulletin *model.PriceBulletin, input BulletinInput, items []model.PriceBulletinItem) {
	bulletin.Number = strings.TrimSpace(input.Number)
	bulletin.Region = strings.TrimSpace(input.Region)
	bulletin.ValidFrom = dateOnly(input.ValidFrom)
	if input.ValidTo != nil {
		validTo := dateOnly(*input.ValidTo)
		bulletin.ValidTo = &validTo
	} else {
		bulletin.ValidTo = nil
	}
	bulletin.Items = items
}
