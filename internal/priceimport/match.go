package priceimport

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/nurpe/erp-console/internal/model"
)

const maxSuggestions = 3

type candidate struct {
	product model.Product
	tokens  map[string]struct{}
}

// Matcher resolves parsed lines against the product catalogue.
type Matcher struct {
	byCode     map[string]model.Product
	candidates []candidate
	threshold  float64
}

func NewMatcher(products []model.Product, threshold float64) *Matcher {
	m := &Matcher{
		byCode:     make(map[string]model.Product, len(products)),
		candidates: make([]candidate, 0, len(products)),
		threshold:  threshold,
	}
	for _, p := range products {
		if code := strings.ToLower(strings.TrimSpace(p.Code)); code != "" {
			m.byCode[code] = p
		}
		m.candidates = append(m.candidates, candidate{product: p, tokens: tokenSet(p.Name)})
	}
	return m
}

// Match returns the product whose code equals the line code, or up to three
// name suggestions scoring at least the threshold, best first.
func (m *Matcher) Match(line Line) (*model.Product, []model.Suggestion) {
	if code := strings.ToLower(strings.TrimSpace(line.Code)); code != "" {
		if p, ok := m.byCode[code]; ok {
			return &p, nil
		}
	}

	name := tokenSet(line.Name)
	if len(name) == 0 {
		return nil, nil
	}
	var suggestions []model.Suggestion
	for _, c := range m.candidates {
		score := jaccard(name, c.tokens)
		if score < m.threshold || score == 0 {
			continue
		}
		suggestions = append(suggestions, model.Suggestion{
			ProductID: c.product.ID,
			Code:      c.product.Code,
			Name:      c.product.Name,
			Score:     score,
		})
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Code < suggestions[j].Code
	})
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return nil, suggestions
}

// BuildRows parses every extracted line and matches it. Row numbers follow
// source line positions, starting at 1.
func (m *Matcher) BuildRows(lines []string) []model.PriceImportRow {
	rows := make([]model.PriceImportRow, 0, len(lines))
	for i, text := range lines {
		parsed, ok := ParseLine(text)
		if !ok {
			continue
		}
		row := model.PriceImportRow{
			LineNo:      i + 1,
			RawText:     strings.TrimSpace(text),
			ProductCode: parsed.Code,
			ProductName: parsed.Name,
			Unit:        parsed.Unit,
			UnitPrice:   parsed.Price,
		}
		product, suggestions := m.Match(parsed)
		if product != nil {
			id := product.ID
			row.MatchedProductID = &id
		}
		row.Suggestions = suggestions
		if parsed.Ambiguous {
			row.PriceCheck = true
			row.Note = fmt.Sprintf("price read as %s from grouped digits; %s if the first group belongs to the name",
				formatPrice(parsed.Price), formatPrice(parsed.AltPrice))
		}
		Classify(&row)
		rows = append(rows, row)
	}
	return rows
}

// Classify derives the row status from its price, match and suggestions. A
// matched row waiting on a price check stays SUGGESTED until a reviewer
// overrides it.
func Classify(row *model.PriceImportRow) {
	matched := row.MatchedProductID != nil && *row.MatchedProductID != uuid.Nil
	switch {
	case row.UnitPrice <= 0:
		row.Status = model.RowStatusInvalid
	case matched && row.PriceCheck && !row.Overridden:
		row.Status = model.RowStatusSuggested
	case matched:
		row.Status = model.RowStatusMatched
	case len(row.Suggestions) > 0:
		row.Status = model.RowStatusSuggested
	default:
		row.Status = model.RowStatusUnmatched
	}
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for t := range a {
		if _, ok := b[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(a)+len(b)-shared)
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
