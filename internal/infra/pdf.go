package infra

// pdf.go: stock report generation using go-pdf/fpdf.
// A4 portrait with:
//   - Header and generation timestamp
//   - Summary counters (products, units, valuation, status buckets)
//   - Product table (id, name, stock, available, status)
//   - Fabric table (id, name, meters, value, status)

import (
	"fmt"
	"io"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/dto"

	"github.com/go-pdf/fpdf"
)

// WriteStockReportPDF renders the overview and fabric list as a PDF into w.
func WriteStockReportPDF(w io.Writer, overview *dto.StockOverviewResponse, fabrics []dto.FabricResponse, generatedAt time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 8, "Stock Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Generated "+generatedAt.Format("02 Jan 2006 15:04 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// ── Summary ──────────────────────────────────────────────────────────────
	summary := [][2]string{
		{"Products", fmt.Sprintf("%d", overview.TotalProducts)},
		{"Units on hand", fmt.Sprintf("%d", overview.TotalItems)},
		{"Stock value", overview.TotalStockValue.StringFixed(2)},
		{"In stock", fmt.Sprintf("%d", overview.InStock)},
		{"Low stock", fmt.Sprintf("%d", overview.LowStock)},
		{"Out of stock", fmt.Sprintf("%d", overview.OutOfStock)},
	}
	pdf.SetFont("Helvetica", "", 9)
	for _, row := range summary {
		pdf.CellFormat(40, 5, row[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 5, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// ── Products ─────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 7, "Products", "", 1, "L", false, 0, "")

	pcols := []float64{contentW * 0.18, contentW * 0.40, contentW * 0.12, contentW * 0.12, contentW * 0.18}
	pdf.SetFont("Helvetica", "B", 8)
	for i, h := range []string{"ID", "Name", "Stock", "Available", "Status"} {
		pdf.CellFormat(pcols[i], 6, h, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, item := range overview.StockStatus {
		pdf.CellFormat(pcols[0], 5, item.ProductID, "", 0, "L", false, 0, "")
		pdf.CellFormat(pcols[1], 5, truncate(item.Name, 40), "", 0, "L", false, 0, "")
		pdf.CellFormat(pcols[2], 5, fmt.Sprintf("%d", item.Stock), "", 0, "L", false, 0, "")
		pdf.CellFormat(pcols[3], 5, fmt.Sprintf("%d", item.AvailableStock), "", 0, "L", false, 0, "")
		pdf.CellFormat(pcols[4], 5, item.Status, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// ── Fabrics ──────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 7, "Fabrics", "", 1, "L", false, 0, "")

	fcols := []float64{contentW * 0.18, contentW * 0.36, contentW * 0.14, contentW * 0.14, contentW * 0.18}
	pdf.SetFont("Helvetica", "B", 8)
	for i, h := range []string{"ID", "Name", "Meters", "Value", "Status"} {
		pdf.CellFormat(fcols[i], 6, h, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, f := range fabrics {
		pdf.CellFormat(fcols[0], 5, f.FabricID, "", 0, "L", false, 0, "")
		pdf.CellFormat(fcols[1], 5, truncate(f.Name, 36), "", 0, "L", false, 0, "")
		pdf.CellFormat(fcols[2], 5, f.CurrentStock.StringFixed(2), "", 0, "L", false, 0, "")
		pdf.CellFormat(fcols[3], 5, f.TotalValue.StringFixed(2), "", 0, "L", false, 0, "")
		pdf.CellFormat(fcols[4], 5, f.Status, "", 1, "L", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write report: %w", err)
	}
	return nil
}

// truncate shortens long names to fit a table cell.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "..."
}
