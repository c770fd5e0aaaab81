package priceimport

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/erp-console/internal/model"
)

var ErrNoText = errors.New("document contains no text")

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
)

// DetectFormat identifies a supported price list by its leading bytes.
// XLSX files are zip archives, so the file name must also end in .xlsx.
func DetectFormat(fileName string, content []byte) (model.ImportFormat, bool) {
	switch {
	case bytes.HasPrefix(content, pdfMagic):
		return model.ImportFormatPDF, true
	case bytes.HasPrefix(content, zipMagic) && strings.HasSuffix(strings.ToLower(fileName), ".xlsx"):
		return model.ImportFormatXLSX, true
	default:
		return "", false
	}
}

// Extract returns the document text one visual row per entry. Blank rows are
// kept as empty strings so entry positions match source line numbers.
func Extract(format model.ImportFormat, content []byte) ([]string, error) {
	var (
		lines []string
		err   error
	)
	switch format {
	case model.ImportFormatPDF:
		lines, err = extractPDF(content)
	case model.ImportFormatXLSX:
		lines, err = extractXLSX(content)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			return lines, nil
		}
	}
	return nil, ErrNoText
}

func extractPDF(content []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var lines []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("read pdf page %d: %w", i, err)
		}
		for _, row := range rows {
			lines = append(lines, joinGlyphs(row.Content))
		}
	}
	return lines, nil
}

// joinGlyphs rebuilds a text row from positioned glyphs, inserting a space
// where the horizontal gap exceeds a quarter of the font size.
func joinGlyphs(glyphs pdf.TextHorizontal) string {
	sorted := make([]pdf.Text, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var b strings.Builder
	end := 0.0
	for i, g := range sorted {
		if i > 0 && g.X-end > g.FontSize*0.25 {
			b.WriteByte(' ')
		}
		b.WriteString(g.S)
		end = g.X + g.W
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func extractXLSX(content []byte) ([]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoText
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			if s := strings.TrimSpace(cell); s != "" {
				cells = append(cells, s)
			}
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return lines, nil
}
