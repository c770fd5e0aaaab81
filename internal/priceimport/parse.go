package priceimport

import (
	"strconv"
	"strings"
	"unicode"
)

// Line is one parsed price list entry. Ambiguous is set when the price was
// joined from digit groups that directly follow the name, so the first group
// may be a pack size or quantity instead; AltPrice is the value read without
// that group.
type Line struct {
	Code      string
	Name      string
	Unit      string
	Price     float64
	Ambiguous bool
	AltPrice  float64
}

var units = map[string]struct{}{
	"pc": {}, "pcs": {}, "ea": {}, "unit": {}, "set": {}, "box": {}, "pack": {}, "roll": {},
	"kg": {}, "g": {}, "t": {}, "l": {}, "m": {}, "m2": {}, "m3": {}, "km": {}, "h": {}, "hr": {},
	"шт": {}, "кг": {}, "г": {}, "т": {}, "л": {}, "м": {}, "м2": {}, "м3": {}, "компл": {}, "уп": {},
}

// ParseLine splits a text row into code, name, unit and price. The last
// numeric token is the price; a space-separated thousands group directly in
// front of it is joined back ("1 234,56"). A first token holding a digit is
// the code, even when nothing else precedes the price. Tokens after the
// price are dropped. It reports false when the row carries no price or
// nothing besides it.
func ParseLine(text string) (Line, bool) {
	tokens := strings.Fields(text)

	priceAt := -1
	for i := len(tokens) - 1; i >= 0; i-- {
		if isNumeric(tokens[i]) {
			priceAt = i
			break
		}
	}
	if priceAt < 0 {
		return Line{}, false
	}

	raw := tokens[priceAt]
	start := priceAt
	for start > 0 && isThousandsLead(tokens[start-1]) && leadingDigits(tokens[start]) == 3 {
		raw = tokens[start-1] + raw
		start--
	}
	price, ok := parseNumber(raw)
	if !ok {
		return Line{}, false
	}

	rest := tokens[:start]
	var line Line
	line.Price = price
	joined := start < priceAt

	if n := len(rest); n > 0 {
		if _, ok := units[normalizeUnit(rest[n-1])]; ok {
			line.Unit = rest[n-1]
			rest = rest[:n-1]
		}
	}
	if len(rest) > 0 && hasDigit(rest[0]) {
		line.Code = rest[0]
		rest = rest[1:]
	}
	line.Name = strings.Join(rest, " ")

	if line.Code == "" && line.Name == "" {
		return Line{}, false
	}
	if joined && line.Unit == "" && line.Name != "" {
		alt, ok := parseNumber(strings.Join(tokens[start+1:priceAt+1], ""))
		if ok {
			line.Ambiguous = true
			line.AltPrice = alt
		}
	}
	return line, true
}

func isNumeric(token string) bool {
	digits := 0
	for _, r := range token {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ',' || r == '.':
		default:
			return false
		}
	}
	return digits > 0
}

func isThousandsLead(token string) bool {
	if len(token) == 0 || len(token) > 3 {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func leadingDigits(token string) int {
	n := 0
	for _, r := range token {
		if r < '0' || r > '9' {
			break
		}
		n++
	}
	return n
}

// parseNumber accepts "1234.5", "1234,5", "1,234.56" and "1.234,56". When
// both separators appear the later one is the decimal mark. A lone comma
// followed by exactly three digits is a thousands separator.
func parseNumber(raw string) (float64, bool) {
	raw = strings.Trim(raw, ".,")
	if raw == "" {
		return 0, false
	}
	lastComma := strings.LastIndex(raw, ",")
	lastDot := strings.LastIndex(raw, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			raw = strings.ReplaceAll(raw, ".", "")
			raw = strings.Replace(raw, ",", ".", 1)
		} else {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(raw, ",") == 1 && len(raw)-lastComma-1 != 3 {
			raw = strings.Replace(raw, ",", ".", 1)
		} else {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	case strings.Count(raw, ".") > 1:
		raw = strings.ReplaceAll(raw, ".", "")
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func normalizeUnit(token string) string {
	return strings.TrimSuffix(strings.ToLower(token), ".")
}

func hasDigit(token string) bool {
	for _, r := range token {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
