package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/model"
)

func TestFillUnitPricesKeepsSetPrices(t *testing.T) {
	cement, sand, gravel := uuid.New(), uuid.New(), uuid.New()
	lines := []PurchaseLineRequest{
		{ProductID: cement, Quantity: 1},
		{ProductID: sand, Quantity: 2, UnitPrice: 9.5},
		{ProductID: gravel, Quantity: 3},
	}
	quotes := []model.PriceQuote{
		{ProductID: cement, UnitPrice: 120, Found: true},
		{ProductID: sand, UnitPrice: 11, Found: true},
		{ProductID: gravel, Found: false},
	}

	filled := FillUnitPrices(lines, quotes)
	if filled != 1 {
		t.Fatalf("expected one line filled, got %d", filled)
	}
	if lines[0].UnitPrice != 120 || lines[1].UnitPrice != 9.5 || lines[2].UnitPrice != 0 {
		t.Fatalf("unexpected prices %+v", lines)
	}
}

func TestQuoteLinesBatchesOneCall(t *testing.T) {
	cement, sand := uuid.New(), uuid.New()
	calls := 0
	var got QuoteRequest
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/purchases/quote" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		quotes := make([]model.PriceQuote, 0, len(got.ProductIDs))
		for _, id := range got.ProductIDs {
			quotes = append(quotes, model.PriceQuote{ProductID: id, UnitPrice: 50, Found: true})
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": quotes})
	}))

	lines := []PurchaseLineRequest{
		{ProductID: cement, Quantity: 1},
		{ProductID: cement, Quantity: 4},
		{ProductID: sand, Quantity: 2, UnitPrice: 7},
	}
	result, err := client.Purchases().QuoteLines(context.Background(), "north", time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC), lines)
	if err != nil {
		t.Fatalf("quote lines: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one quote call, got %d", calls)
	}
	if got.Region != "north" || got.Date != "2025-05-02" || len(got.ProductIDs) != 1 || got.ProductIDs[0] != cement {
		t.Fatalf("unexpected quote request %+v", got)
	}
	if result[0].UnitPrice != 50 || result[1].UnitPrice != 50 || result[2].UnitPrice != 7 {
		t.Fatalf("unexpected result %+v", result)
	}
	if lines[0].UnitPrice != 0 {
		t.Fatalf("input lines must not change")
	}

	priced := []PurchaseLineRequest{{ProductID: sand, Quantity: 1, UnitPrice: 3}}
	if _, err := client.Purchases().QuoteLines(context.Background(), "north", time.Now(), priced); err != nil {
		t.Fatalf("quote priced lines: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no call for priced lines, got %d", calls)
	}
}
