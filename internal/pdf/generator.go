package pdf

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/erp-console/internal/model"
)

var (
	//go:embed fonts/DejaVuSans.ttf
	regularFont []byte
	//go:embed fonts/DejaVuSans-Bold.ttf
	boldFont []byte
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "DejaVuSans"}
}

// PurchaseOrder renders a purchase order with its lines and totals.
func (g *Generator) PurchaseOrder(order model.PurchaseOrder) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddUTF8FontFromBytes(g.fontName, "", regularFont)
	pdf.AddUTF8FontFromBytes(g.fontName, "B", boldFont)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, fmt.Sprintf("Purchase order %s", order.Number), "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Date: %s    Region: %s    Status: %s",
		formatDate(order.OrderDate), safeValue(order.Region), order.Status), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if order.Customer != nil {
		addCustomerBlock(pdf, g.fontName, *order.Customer)
		pdf.Ln(4)
	}

	headers := []string{"#", "Code", "Product", "Unit", "Qty", "Unit price", "Amount"}
	colWidths := []float64{10, 25, 60, 15, 20, 25, 25}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)

	for _, line := range order.Lines {
		row := []string{
			fmt.Sprintf("%d", line.LineNo),
			line.ProductCode,
			line.ProductName,
			line.Unit,
			formatAmount(line.Quantity, 3),
			formatAmount(line.UnitPrice, 2),
			formatAmount(line.Amount, 2),
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}

	pdf.Ln(2)
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total: %s", formatAmount(order.Total, 2)), "", 1, "R", false, 0, "")

	if order.Status == model.PurchaseStatusRejected && order.RejectionReason != nil {
		pdf.SetTextColor(200, 0, 0)
		pdf.SetFont(g.fontName, "", 10)
		pdf.MultiCell(0, 6, "Rejected: "+*order.RejectionReason, "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addCustomerBlock(pdf *gofpdf.Fpdf, fontName string, customer model.Customer) {
	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(0, 6, "Customer", "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	lines := []string{
		customer.Name,
		fmt.Sprintf("Tax ID: %s", safeValue(customer.TaxID)),
		fmt.Sprintf("Address: %s", safeValue(customer.Address)),
		fmt.Sprintf("Phone: %s", safeValue(customer.Phone)),
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, line, "", "L", false)
	}
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 9)
	for i, col := range cols {
		align := "L"
		if i >= 4 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, truncate(col, widths[i]), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

// truncate keeps cell text roughly inside its column at 9pt.
func truncate(value string, width float64) string {
	limit := int(width / 1.8)
	runes := []rune(value)
	if len(runes) <= limit || limit < 2 {
		return value
	}
	return string(runes[:limit-1]) + "."
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAmount(value float64, precision int) string {
	format := fmt.Sprintf("%%.%df", precision)
	return fmt.Sprintf(format, value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02.01.2006")
}
