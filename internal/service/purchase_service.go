package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/erp-console/internal/events"
	"github.com/nurpe/erp-console/internal/model"
)

type PurchaseStore interface {
	List(ctx context.Context, q model.ListQuery) (*model.Page[model.PurchaseOrder], error)
	Get(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	Create(ctx context.Context, order *model.PurchaseOrder) error
	Update(ctx context.Context, order *model.PurchaseOrder) error
	Delete(ctx context.Context, id uuid.UUID) error
	Transition(ctx context.Context, id uuid.UUID, from []model.PurchaseStatus, to model.PurchaseStatus, decidedBy *uuid.UUID, reason *string) error
	CountByStatus(ctx context.Context, status model.PurchaseStatus) (int64, error)
}

type PurchaseRenderer interface {
	PurchaseOrder(order model.PurchaseOrder) ([]byte, error)
}

type PurchaseService struct {
	repo      PurchaseStore
	customers CustomerStore
	contracts ContractStore
	products  ProductStore
	pricing   *PricingService
	pdf       PurchaseRenderer
	events    events.Publisher
	log       zerolog.Logger
}

type PurchaseLineInput struct {
	ProductID uuid.UUID
	Quantity  float64
	UnitPrice float64
}

type PurchaseInput struct {
	Number     string
	CustomerID uuid.UUID
	ContractID *uuid.UUID
	Region     string
	OrderDate  time.Time
	Lines      []PurchaseLineInput
}

func NewPurchaseService(
	repo PurchaseStore,
	customers CustomerStore,
	contracts ContractStore,
	products ProductStore,
	pricing *PricingService,
	pdf PurchaseRenderer,
	publisher events.Publisher,
	log zerolog.Logger,
) *PurchaseService {
	return &PurchaseService{
		repo:      repo,
		customers: customers,
		contracts: contracts,
		products:  products,
		pricing:   pricing,
		pdf:       pdf,
		events:    publisher,
		log:       log,
	}
}

func (s *PurchaseService) List(ctx context.Context, q model.ListQuery) (*model.Page[model.PurchaseOrder], error) {
	return s.repo.List(ctx, q)
}

func (s *PurchaseService) Get(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return order, nil
}

func (s *PurchaseService) Create(ctx context.Context, principal model.Principal, input PurchaseInput) (*model.PurchaseOrder, error) {
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}
	now := time.Now()
	order := &model.PurchaseOrder{
		ID:              uuid.New(),
		Status:          model.PurchaseStatusDraft,
		CreatedByUserID: principal.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.apply(ctx, order, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, storeError(err)
	}
	return s.Get(ctx, order.ID)
}

func (s *PurchaseService) Update(ctx context.Context, id uuid.UUID, input PurchaseInput) (*model.PurchaseOrder, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if order.Status != model.PurchaseStatusDraft {
		return nil, fmt.Errorf("%w: only draft purchase orders can be edited", ErrInvalidState)
	}
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}
	if err := s.apply(ctx, order, input); err != nil {
		return nil, err
	}
	order.Customer = nil
	order.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, storeError(err)
	}
	return s.Get(ctx, order.ID)
}

func (s *PurchaseService) Delete(ctx context.Context, id uuid.UUID) error {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return storeError(err)
	}
	if order.Status != model.PurchaseStatusDraft {
		return fmt.Errorf("%w: only draft purchase orders can be deleted", ErrInvalidState)
	}
	return storeError(s.repo.Delete(ctx, id))
}

func (s *PurchaseService) Submit(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if order.Status != model.PurchaseStatusDraft {
		return nil, fmt.Errorf("%w: purchase order is %s", ErrInvalidState, order.Status)
	}
	if len(order.Lines) == 0 {
		return nil, fmt.Errorf("%w: purchase order has no lines", ErrInvalidState)
	}
	for _, line := range order.Lines {
		if line.UnitPrice <= 0 {
			return nil, fmt.Errorf("%w: line %d has no unit price", ErrInvalidState, line.LineNo)
		}
	}
	return s.transition(ctx, order, []model.PurchaseStatus{model.PurchaseStatusDraft},
		model.PurchaseStatusSubmitted, nil, nil, events.TypePurchaseSubmitted)
}

func (s *PurchaseService) Approve(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.PurchaseOrder, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if order.Status != model.PurchaseStatusSubmitted {
		return nil, fmt.Errorf("%w: purchase order is %s", ErrInvalidState, order.Status)
	}
	decidedBy := principal.UserID
	return s.transition(ctx, order, []model.PurchaseStatus{model.PurchaseStatusSubmitted},
		model.PurchaseStatusApproved, &decidedBy, nil, events.TypePurchaseApproved)
}

func (s *PurchaseService) Reject(ctx context.Context, principal model.Principal, id uuid.UUID, reason string) (*model.PurchaseOrder, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrInvalidInput)
	}
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if order.Status != model.PurchaseStatusSubmitted {
		return nil, fmt.Errorf("%w: purchase order is %s", ErrInvalidState, order.Status)
	}
	decidedBy := principal.UserID
	return s.transition(ctx, order, []model.PurchaseStatus{model.PurchaseStatusSubmitted},
		model.PurchaseStatusRejected, &decidedBy, &reason, events.TypePurchaseRejected)
}

func (s *PurchaseService) Cancel(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if order.Status != model.PurchaseStatusDraft && order.Status != model.PurchaseStatusSubmitted {
		return nil, fmt.Errorf("%w: purchase order is %s", ErrInvalidState, order.Status)
	}
	return s.transition(ctx, order,
		[]model.PurchaseStatus{model.PurchaseStatusDraft, model.PurchaseStatusSubmitted},
		model.PurchaseStatusCancelled, nil, nil, "")
}

func (s *PurchaseService) PDF(ctx context.Context, id uuid.UUID) (*FileResult, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	content, err := s.pdf.PurchaseOrder(*order)
	if err != nil {
		return nil, err
	}
	name := sanitizeFileName(order.Number)
	if name == "" {
		name = order.ID.String()
	}
	return &FileResult{
		FileName:    fmt.Sprintf("purchase-order-%s.pdf", name),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

func (s *PurchaseService) transition(
	ctx context.Context,
	order *model.PurchaseOrder,
	from []model.PurchaseStatus,
	to model.PurchaseStatus,
	decidedBy *uuid.UUID,
	reason *string,
	eventType string,
) (*model.PurchaseOrder, error) {
	if err := s.repo.Transition(ctx, order.ID, from, to, decidedBy, reason); err != nil {
		if errors.Is(storeError(err), ErrNotFound) {
			return nil, fmt.Errorf("%w: purchase order changed concurrently", ErrInvalidState)
		}
		return nil, err
	}
	updated, err := s.repo.Get(ctx, order.ID)
	if err != nil {
		return nil, storeError(err)
	}
	if eventType != "" {
		payload := map[string]any{
			"number":      updated.Number,
			"customer_id": updated.CustomerID,
			"region":      updated.Region,
			"total":       updated.Total,
			"status":      updated.Status,
		}
		if updated.RejectionReason != nil {
			payload["rejection_reason"] = *updated.RejectionReason
		}
		events.Emit(ctx, s.events, s.log, eventType, updated.ID, payload)
	}
	return updated, nil
}

func (s *PurchaseService) validate(ctx context.Context, input PurchaseInput) error {
	if err := required("number", input.Number); err != nil {
		return err
	}
	if err := required("region", input.Region); err != nil {
		return err
	}
	if input.OrderDate.IsZero() {
		return fmt.Errorf("%w: order_date is required", ErrInvalidInput)
	}
	if input.CustomerID == uuid.Nil {
		return fmt.Errorf("%w: customer_id is required", ErrInvalidInput)
	}
	if _, err := s.customers.Get(ctx, input.CustomerID); err != nil {
		if errors.Is(storeError(err), ErrNotFound) {
			return fmt.Errorf("%w: customer not found", ErrInvalidInput)
		}
		return err
	}
	if input.ContractID != nil {
		contract, err := s.contracts.Get(ctx, *input.ContractID)
		if err != nil {
			if errors.Is(storeError(err), ErrNotFound) {
				return fmt.Errorf("%w: contract not found", ErrInvalidInput)
			}
			return err
		}
		if contract.CustomerID != input.CustomerID {
			return fmt.Errorf("%w: contract belongs to another customer", ErrInvalidInput)
		}
	}
	for i, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return fmt.Errorf("%w: line %d: product_id is required", ErrInvalidInput, i+1)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: line %d: quantity must be positive", ErrInvalidInput, i+1)
		}
		if line.UnitPrice < 0 {
			return fmt.Errorf("%w: line %d: unit_price must not be negative", ErrInvalidInput, i+1)
		}
	}
	return nil
}

// apply copies input onto order, fills missing unit prices from published
// bulletins and recalculates amounts.
func (s *PurchaseService) apply(ctx context.Context, order *model.PurchaseOrder, input PurchaseInput) error {
	ids := make([]uuid.UUID, 0, len(input.Lines))
	for _, line := range input.Lines {
		ids = append(ids, line.ProductID)
	}
	if _, err := requireProducts(ctx, s.products, ids); err != nil {
		return err
	}

	order.Number = strings.TrimSpace(input.Number)
	order.CustomerID = input.CustomerID
	order.ContractID = input.ContractID
	order.Region = strings.TrimSpace(input.Region)
	order.OrderDate = dateOnly(input.OrderDate)

	lines := make([]model.PurchaseLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		lines = append(lines, model.PurchaseLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	if len(lines) > 0 {
		quotes, err := s.pricing.Quote(ctx, QuoteInput{
			Region:     order.Region,
			Date:       order.OrderDate,
			ProductIDs: ids,
		})
		if err != nil {
			return err
		}
		fillUnitPrices(lines, quotes)
	}

	order.Lines = lines
	order.Recalculate()
	return nil
}
