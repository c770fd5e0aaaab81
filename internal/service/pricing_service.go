package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/model"
)

type QuoteStore interface {
	FindQuotes(ctx context.Context, region string, day time.Time, productIDs []uuid.UUID) (map[uuid.UUID]model.PriceQuote, error)
}

// PricingService resolves unit prices from published price bulletins.
type PricingService struct {
	repo QuoteStore
}

type QuoteInput struct {
	Region     string
	Date       time.Time
	ProductIDs []uuid.UUID
}

func NewPricingService(repo QuoteStore) *PricingService {
	return &PricingService{repo: repo}
}

// Quote returns one quote per requested product id, in request order.
// Duplicated ids get duplicated quotes; unknown prices come back with
// Found=false.
func (s *PricingService) Quote(ctx context.Context, input QuoteInput) ([]model.PriceQuote, error) {
	region := strings.TrimSpace(input.Region)
	if region == "" {
		return nil, fmt.Errorf("%w: region is required", ErrInvalidInput)
	}
	if input.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if len(input.ProductIDs) == 0 {
		return []model.PriceQuote{}, nil
	}

	unique := make([]uuid.UUID, 0, len(input.ProductIDs))
	seen := make(map[uuid.UUID]struct{}, len(input.ProductIDs))
	for _, id := range input.ProductIDs {
		if id == uuid.Nil {
			return nil, fmt.Errorf("%w: product id is required", ErrInvalidInput)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	found, err := s.repo.FindQuotes(ctx, region, dateOnly(input.Date), unique)
	if err != nil {
		return nil, err
	}

	result := make([]model.PriceQuote, 0, len(input.ProductIDs))
	for _, id := range input.ProductIDs {
		quote, ok := found[id]
		if !ok {
			quote = model.PriceQuote{ProductID: id}
		}
		result = append(result, quote)
	}
	return result, nil
}

// fillUnitPrices sets the unit price of lines that have none from quotes.
// Lines with a price already set are left alone.
func fillUnitPrices(lines []model.PurchaseLine, quotes []model.PriceQuote) {
	byProduct := make(map[uuid.UUID]model.PriceQuote, len(quotes))
	for _, q := range quotes {
		if q.Found {
			byProduct[q.ProductID] = q
		}
	}
	for i := range lines {
		if lines[i].UnitPrice != 0 {
			continue
		}
		if q, ok := byProduct[lines[i].ProductID]; ok {
			lines[i].UnitPrice = q.UnitPrice
		}
	}
}
