package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/erp-console/internal/model"
)

const maxSheetName = 31

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Bulletin renders a price bulletin as a workbook with a summary sheet and
// one sheet holding the items.
func (g *Generator) Bulletin(bulletin model.PriceBulletin) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	summarySheet := "Summary"
	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	g.writeSummary(file, summarySheet, bulletin)

	itemsSheet := buildSheetName("Items "+bulletin.Number, map[string]struct{}{summarySheet: {}})
	if _, err := file.NewSheet(itemsSheet); err != nil {
		return nil, err
	}
	if err := g.writeItems(file, itemsSheet, bulletin); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, bulletin model.PriceBulletin) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	validTo := ""
	if bulletin.ValidTo != nil {
		validTo = formatDate(*bulletin.ValidTo)
	}

	set("A1", "Bulletin")
	set("B1", bulletin.Number)
	set("A2", "Region")
	set("B2", bulletin.Region)
	set("A3", "Version")
	set("B3", bulletin.Version)
	set("A4", "Valid from")
	set("B4", formatDate(bulletin.ValidFrom))
	set("A5", "Valid to")
	set("B5", validTo)
	set("A6", "Status")
	set("B6", string(bulletin.Status))
	set("A7", "Items")
	set("B7", len(bulletin.Items))

	_ = file.SetColWidth(sheet, "A", "A", 18)
	_ = file.SetColWidth(sheet, "B", "B", 30)
}

func (g *Generator) writeItems(file *excelize.File, sheet string, bulletin model.PriceBulletin) error {
	headers := []string{"Code", "Product", "Unit", "Unit price"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		_ = file.SetCellValue(sheet, cell, header)
	}

	for i, item := range bulletin.Items {
		row := i + 2
		_ = file.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.ProductCode)
		_ = file.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.ProductName)
		_ = file.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.Unit)
		_ = file.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.UnitPrice)
	}

	_ = file.SetColWidth(sheet, "A", "A", 16)
	_ = file.SetColWidth(sheet, "B", "B", 48)
	_ = file.SetColWidth(sheet, "C", "C", 10)
	_ = file.SetColWidth(sheet, "D", "D", 14)
	return nil
}

func buildSheetName(name string, used map[string]struct{}) string {
	base := sanitizeSheetName(name)
	if len([]rune(base)) > maxSheetName {
		base = string([]rune(base)[:maxSheetName])
	}

	candidate := base
	counter := 2
	for {
		if _, exists := used[candidate]; !exists {
			return candidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		trimmed := []rune(base)
		if len(trimmed)+len(suffix) > maxSheetName {
			trimmed = trimmed[:maxSheetName-len(suffix)]
		}
		candidate = string(trimmed) + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Sheet"
	}

	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = strings.TrimSpace(replacer.Replace(value))
	if value == "" {
		return "Sheet"
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
