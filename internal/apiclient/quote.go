package apiclient

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/model"
)

// FillUnitPrices sets the unit price of every line that has none from the
// found quote of its product. Prices already set are never overwritten. It
// returns the number of lines filled.
func FillUnitPrices(lines []PurchaseLineRequest, quotes []model.PriceQuote) int {
	byProduct := make(map[uuid.UUID]float64, len(quotes))
	for _, q := range quotes {
		if q.Found {
			byProduct[q.ProductID] = q.UnitPrice
		}
	}
	filled := 0
	for i := range lines {
		if lines[i].UnitPrice != 0 {
			continue
		}
		if price, ok := byProduct[lines[i].ProductID]; ok {
			lines[i].UnitPrice = price
			filled++
		}
	}
	return filled
}

// QuoteLines asks for prices of the unpriced lines in one purchase.quote call
// and returns a copy of lines with those prices filled. Without unpriced
// lines no request is made.
func (p PurchasesAPI) QuoteLines(ctx context.Context, region string, date time.Time, lines []PurchaseLineRequest) ([]PurchaseLineRequest, error) {
	result := append([]PurchaseLineRequest(nil), lines...)

	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, line := range result {
		if line.UnitPrice != 0 || line.ProductID == uuid.Nil {
			continue
		}
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	if len(ids) == 0 {
		return result, nil
	}

	quotes, err := p.Quote(ctx, QuoteRequest{Region: region, Date: FormatDate(date), ProductIDs: ids})
	if err != nil {
		return nil, err
	}
	FillUnitPrices(result, quotes)
	return result, nil
}
