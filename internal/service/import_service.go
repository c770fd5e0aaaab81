package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/erp-console/internal/events"
	"github.com/nurpe/erp-console/internal/model"
	"github.com/nurpe/erp-console/internal/priceimport"
)

type ImportStore interface {
	CreateJob(ctx context.Context, job *model.PriceImportJob) error
	GetJob(ctx context.Context, id uuid.UUID, withContent bool) (*model.PriceImportJob, error)
	ListJobIDsByStatus(ctx context.Context, statuses ...model.ImportStatus) ([]uuid.UUID, error)
	CountByStatus(ctx context.Context, status model.ImportStatus) (int64, error)
	Transition(ctx context.Context, id uuid.UUID, from []model.ImportStatus, to model.ImportStatus, errText string) error
	SaveParsed(ctx context.Context, id uuid.UUID, rows []model.PriceImportRow) error
	UpdateRow(ctx context.Context, row *model.PriceImportRow) error
	Commit(ctx context.Context, id uuid.UUID, bulletin *model.PriceBulletin) error
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, id uuid.UUID) error
}

type ImportSettings struct {
	MaxFileBytes   int64
	MatchThreshold float64
	JobTTL         time.Duration
}

// ImportService runs the price list import workflow: upload, background
// parse, row review and commit into a draft bulletin.
type ImportService struct {
	repo     ImportStore
	products ProductStore
	queue    Enqueuer
	settings ImportSettings
	events   events.Publisher
	log      zerolog.Logger
}

type UploadInput struct {
	FileName  string
	Content   []byte
	Region    string
	ValidFrom time.Time
}

// RowPatch carries reviewer overrides. Nil fields are left unchanged.
type RowPatch struct {
	ProductID *uuid.UUID
	UnitPrice *float64
	Excluded  *bool
}

type CommitInput struct {
	Number string
}

func NewImportService(
	repo ImportStore,
	products ProductStore,
	queue Enqueuer,
	settings ImportSettings,
	publisher events.Publisher,
	log zerolog.Logger,
) *ImportService {
	return &ImportService{
		repo:     repo,
		products: products,
		queue:    queue,
		settings: settings,
		events:   publisher,
		log:      log,
	}
}

// MaxFileBytes is the upload size limit; zero means unlimited.
func (s *ImportService) MaxFileBytes() int64 {
	return s.settings.MaxFileBytes
}

func (s *ImportService) Upload(ctx context.Context, principal model.Principal, input UploadInput) (*model.PriceImportJob, error) {
	if len(input.Content) == 0 {
		return nil, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	if s.settings.MaxFileBytes > 0 && int64(len(input.Content)) > s.settings.MaxFileBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, s.settings.MaxFileBytes)
	}
	format, ok := priceimport.DetectFormat(input.FileName, input.Content)
	if !ok {
		return nil, fmt.Errorf("%w: only PDF and XLSX price lists are supported", ErrInvalidInput)
	}
	if err := required("region", input.Region); err != nil {
		return nil, err
	}
	if input.ValidFrom.IsZero() {
		return nil, fmt.Errorf("%w: valid_from is required", ErrInvalidInput)
	}

	now := time.Now()
	job := &model.PriceImportJob{
		ID:        uuid.New(),
		FileName:  filepath.Base(strings.TrimSpace(input.FileName)),
		Format:    format,
		Content:   input.Content,
		Region:    strings.TrimSpace(input.Region),
		ValidFrom: dateOnly(input.ValidFrom),
		Status:    model.ImportStatusPending,
		CreatedBy: principal.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, storeError(err)
	}
	if err := s.queue.Enqueue(ctx, job.ID); err != nil {
		// the job stays PENDING and is picked up again on restart
		s.log.Warn().Err(err).Str("job_id", job.ID.String()).Msg("enqueue import job")
	}
	job.Content = nil
	return job, nil
}

func (s *ImportService) Get(ctx context.Context, id uuid.UUID) (*model.PriceImportJob, error) {
	job, err := s.repo.GetJob(ctx, id, false)
	if err != nil {
		return nil, storeError(err)
	}
	return job, nil
}

// Process parses one job. It is called by the worker pool.
func (s *ImportService) Process(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Transition(ctx, id,
		[]model.ImportStatus{model.ImportStatusPending, model.ImportStatusParsing},
		model.ImportStatusParsing, "")
	if err != nil {
		if errors.Is(storeError(err), ErrNotFound) {
			return nil
		}
		return err
	}

	job, err := s.repo.GetJob(ctx, id, true)
	if err != nil {
		return err
	}
	rows, err := s.parse(ctx, job)
	if err != nil {
		return s.fail(ctx, id, err)
	}
	if err := s.repo.SaveParsed(ctx, id, rows); err != nil {
		if errors.Is(storeError(err), ErrNotFound) {
			// cancelled or expired while parsing
			return nil
		}
		return s.fail(ctx, id, err)
	}
	s.log.Info().Str("job_id", id.String()).Int("rows", len(rows)).Msg("price import parsed")
	return nil
}

func (s *ImportService) parse(ctx context.Context, job *model.PriceImportJob) ([]model.PriceImportRow, error) {
	lines, err := priceimport.Extract(job.Format, job.Content)
	if err != nil {
		return nil, err
	}
	products, err := s.products.All(ctx)
	if err != nil {
		return nil, err
	}
	rows := priceimport.NewMatcher(products, s.settings.MatchThreshold).BuildRows(lines)
	if len(rows) == 0 {
		return nil, errors.New("no price rows found")
	}
	return rows, nil
}

func (s *ImportService) fail(ctx context.Context, id uuid.UUID, cause error) error {
	err := s.repo.Transition(ctx, id, []model.ImportStatus{model.ImportStatusParsing}, model.ImportStatusFailed, cause.Error())
	if err != nil && !errors.Is(storeError(err), ErrNotFound) {
		return fmt.Errorf("mark job failed: %w (cause: %v)", err, cause)
	}
	s.log.Warn().Err(cause).Str("job_id", id.String()).Msg("price import failed")
	return nil
}

// Resume re-enqueues jobs left unfinished by a previous run.
func (s *ImportService) Resume(ctx context.Context) (int, error) {
	ids, err := s.repo.ListJobIDsByStatus(ctx, model.ImportStatusPending, model.ImportStatusParsing)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := s.queue.Enqueue(ctx, id); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

func (s *ImportService) UpdateRow(ctx context.Context, id uuid.UUID, lineNo int, patch RowPatch) (*model.PriceImportRow, error) {
	job, err := s.repo.GetJob(ctx, id, false)
	if err != nil {
		return nil, storeError(err)
	}
	if job.Status != model.ImportStatusReady {
		return nil, fmt.Errorf("%w: import is %s", ErrInvalidState, job.Status)
	}

	var row *model.PriceImportRow
	for i := range job.Rows {
		if job.Rows[i].LineNo == lineNo {
			row = &job.Rows[i]
			break
		}
	}
	if row == nil {
		return nil, fmt.Errorf("%w: row %d", ErrNotFound, lineNo)
	}

	if patch.ProductID != nil {
		if _, err := requireProducts(ctx, s.products, []uuid.UUID{*patch.ProductID}); err != nil {
			return nil, err
		}
		productID := *patch.ProductID
		row.MatchedProductID = &productID
		row.Overridden = true
	}
	if patch.UnitPrice != nil {
		if *patch.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: unit_price must not be negative", ErrInvalidInput)
		}
		row.UnitPrice = model.RoundMoney(*patch.UnitPrice)
		row.Overridden = true
	}
	if patch.Excluded != nil {
		row.Excluded = *patch.Excluded
	}
	priceimport.Classify(row)

	if err := s.repo.UpdateRow(ctx, row); err != nil {
		return nil, storeError(err)
	}
	return row, nil
}

// Commit turns the reviewed rows of a READY job into a draft bulletin.
func (s *ImportService) Commit(ctx context.Context, principal model.Principal, id uuid.UUID, input CommitInput) (*model.PriceBulletin, error) {
	job, err := s.repo.GetJob(ctx, id, false)
	if err != nil {
		return nil, storeError(err)
	}
	if job.Status != model.ImportStatusReady {
		return nil, fmt.Errorf("%w: import is %s", ErrInvalidState, job.Status)
	}

	prices := make(map[uuid.UUID]float64)
	order := make([]uuid.UUID, 0, len(job.Rows))
	for _, row := range job.Rows {
		if row.Excluded {
			continue
		}
		if row.Status != model.RowStatusMatched || row.MatchedProductID == nil {
			return nil, fmt.Errorf("%w: row %d is %s", ErrInvalidState, row.LineNo, row.Status)
		}
		productID := *row.MatchedProductID
		if _, seen := prices[productID]; !seen {
			order = append(order, productID)
		}
		prices[productID] = row.UnitPrice
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("%w: no rows to commit", ErrInvalidState)
	}

	number := strings.TrimSpace(input.Number)
	if number == "" {
		number = strings.TrimSuffix(job.FileName, filepath.Ext(job.FileName))
	}
	if number == "" {
		number = "IMPORT-" + strings.ToUpper(job.ID.String()[:8])
	}

	now := time.Now()
	jobID := job.ID
	bulletin := &model.PriceBulletin{
		ID:          uuid.New(),
		Number:      number,
		Region:      job.Region,
		ValidFrom:   job.ValidFrom,
		Status:      model.BulletinStatusDraft,
		SourceJobID: &jobID,
		CreatedBy:   principal.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items:       make([]model.PriceBulletinItem, 0, len(order)),
	}
	for _, productID := range order {
		bulletin.Items = append(bulletin.Items, model.PriceBulletinItem{
			ProductID: productID,
			UnitPrice: prices[productID],
		})
	}

	if err := s.repo.Commit(ctx, id, bulletin); err != nil {
		if errors.Is(storeError(err), ErrNotFound) {
			return nil, fmt.Errorf("%w: import changed concurrently", ErrInvalidState)
		}
		return nil, storeError(err)
	}

	events.Emit(ctx, s.events, s.log, events.TypeImportCommitted, job.ID, map[string]any{
		"bulletin_id": bulletin.ID,
		"region":      bulletin.Region,
		"version":     bulletin.Version,
		"items":       len(bulletin.Items),
	})
	return bulletin, nil
}

func (s *ImportService) Cancel(ctx context.Context, id uuid.UUID) (*model.PriceImportJob, error) {
	err := s.repo.Transition(ctx, id,
		[]model.ImportStatus{model.ImportStatusPending, model.ImportStatusParsing, model.ImportStatusReady},
		model.ImportStatusCancelled, "")
	if err != nil {
		if !errors.Is(storeError(err), ErrNotFound) {
			return nil, err
		}
		job, getErr := s.repo.GetJob(ctx, id, false)
		if getErr != nil {
			return nil, storeError(getErr)
		}
		return nil, fmt.Errorf("%w: import is %s", ErrInvalidState, job.Status)
	}
	return s.Get(ctx, id)
}

// ExpireStale marks unfinished jobs older than the configured TTL as EXPIRED.
func (s *ImportService) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.ExpireStale(ctx, now.Add(-s.settings.JobTTL))
}
