package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/model"
)

func publishedBulletin(region string, version int, from string, to *string, items map[uuid.UUID]float64) model.PriceBulletin {
	b := model.PriceBulletin{
		ID:        uuid.New(),
		Region:    region,
		Version:   version,
		ValidFrom: day(from),
		Status:    model.BulletinStatusPublished,
	}
	if to != nil {
		end := day(*to)
		b.ValidTo = &end
	}
	for id, price := range items {
		b.Items = append(b.Items, model.PriceBulletinItem{ProductID: id, UnitPrice: price})
	}
	return b
}

func TestQuotePicksHighestVersionCoveringDate(t *testing.T) {
	cement, sand, gravel := uuid.New(), uuid.New(), uuid.New()
	end := "2026-03-31"

	bulletins := newFakeBulletins()
	v1 := publishedBulletin("north", 1, "2026-01-01", nil, map[uuid.UUID]float64{cement: 100, sand: 50})
	v2 := publishedBulletin("north", 2, "2026-02-01", &end, map[uuid.UUID]float64{cement: 120})
	south := publishedBulletin("south", 3, "2026-01-01", nil, map[uuid.UUID]float64{gravel: 70})
	for _, b := range []model.PriceBulletin{v1, v2, south} {
		bulletins.items[b.ID] = b
	}
	svc := NewPricingService(bulletins)

	quotes, err := svc.Quote(context.Background(), QuoteInput{
		Region:     "north",
		Date:       day("2026-03-15"),
		ProductIDs: []uuid.UUID{sand, cement, gravel, cement},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if len(quotes) != 4 {
		t.Fatalf("expected 4 quotes, got %d", len(quotes))
	}
	if quotes[0].ProductID != sand || quotes[0].UnitPrice != 50 || *quotes[0].BulletinID != v1.ID {
		t.Fatalf("unexpected sand quote %+v", quotes[0])
	}
	if quotes[1].UnitPrice != 120 || *quotes[1].BulletinID != v2.ID {
		t.Fatalf("expected newer version price for cement, got %+v", quotes[1])
	}
	if quotes[2].Found || quotes[2].ProductID != gravel {
		t.Fatalf("expected gravel unresolved in north, got %+v", quotes[2])
	}
	if quotes[3] != quotes[1] {
		t.Fatalf("expected duplicate id to get the same quote")
	}

	// after v2 lapses the older bulletin applies again
	quotes, err = svc.Quote(context.Background(), QuoteInput{
		Region:     "north",
		Date:       day("2026-04-01"),
		ProductIDs: []uuid.UUID{cement},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quotes[0].UnitPrice != 100 {
		t.Fatalf("expected 100 after v2 lapsed, got %+v", quotes[0])
	}
}

func TestQuoteValidation(t *testing.T) {
	svc := NewPricingService(newFakeBulletins())
	ctx := context.Background()
	if _, err := svc.Quote(ctx, QuoteInput{Date: day("2026-01-01")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected missing region to fail, got %v", err)
	}
	if _, err := svc.Quote(ctx, QuoteInput{Region: "north"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected missing date to fail, got %v", err)
	}
	quotes, err := svc.Quote(ctx, QuoteInput{Region: "north", Date: day("2026-01-01")})
	if err != nil || len(quotes) != 0 {
		t.Fatalf("expected empty quote list, got %v %v", quotes, err)
	}
}

func TestFillUnitPricesKeepsExplicitPrices(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	lines := []model.PurchaseLine{
		{ProductID: a},
		{ProductID: b, UnitPrice: 9.99},
		{ProductID: c},
	}
	quotes := []model.PriceQuote{
		{ProductID: a, UnitPrice: 10, Found: true},
		{ProductID: b, UnitPrice: 20, Found: true},
		{ProductID: c},
	}
	fillUnitPrices(lines, quotes)
	if lines[0].UnitPrice != 10 || lines[1].UnitPrice != 9.99 || lines[2].UnitPrice != 0 {
		t.Fatalf("unexpected prices %+v", lines)
	}
}

func TestQuoteEqualVersionsPreferLaterStart(t *testing.T) {
	cement := uuid.New()
	bulletins := newFakeBulletins()
	early := publishedBulletin("north", 2, "2026-01-01", nil, map[uuid.UUID]float64{cement: 100})
	late := publishedBulletin("north", 2, "2026-03-01", nil, map[uuid.UUID]float64{cement: 130})
	bulletins.items[early.ID] = early
	bulletins.items[late.ID] = late

	quotes, err := NewPricingService(bulletins).Quote(context.Background(), QuoteInput{
		Region:     "north",
		Date:       day("2026-03-15"),
		ProductIDs: []uuid.UUID{cement},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quotes[0].UnitPrice != 130 || *quotes[0].BulletinID != late.ID {
		t.Fatalf("expected later bulletin to win, got %+v", quotes[0])
	}
}
