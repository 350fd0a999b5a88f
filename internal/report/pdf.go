package report

import (
	"bytes"
	"fmt"
	"strconv"

	"arriendo-cajas-backend/internal/utils"

	"github.com/jung-kurt/gofpdf"
)

const pdfFont = "Helvetica"

type PDFGenerator struct{}

func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

// Generate renders a landscape A4 listing of the rentals in data
func (g *PDFGenerator) Generate(data Data) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	// core fonts are cp1252, accents need translating
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(pdfFont, "B", 14)
	pdf.CellFormat(0, 10, tr("Reporte de arriendos"), "", 1, "C", false, 0, "")

	pdf.SetFont(pdfFont, "", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Período: %s al %s", utils.FormatDate(data.From), utils.FormatDate(data.LastDay()))), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if s := data.Summary; s != nil {
		pdf.SetFont(pdfFont, "B", 12)
		pdf.CellFormat(0, 8, "Resumen", "", 1, "L", false, 0, "")
		pdf.SetFont(pdfFont, "", 10)
		lines := []string{
			fmt.Sprintf("Arriendos en el período: %d", len(data.Rows)),
			fmt.Sprintf("Cajas en terreno: %d", s.BoxesOut),
			fmt.Sprintf("Recaudado: %s", utils.FormatCLP(s.RevenueCollected)),
			fmt.Sprintf("Deuda pendiente: %s", utils.FormatCLP(s.OutstandingDebt)),
			fmt.Sprintf("Correos enviados: %d, fallidos: %d", s.EmailsByStatus["sent"], s.EmailsByStatus["failed"]),
		}
		for _, line := range lines {
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
		}
		pdf.Ln(4)
	}

	widths := []float64{24, 52, 28, 14, 22, 22, 34, 24, 24, 24}
	drawRow(pdf, tr, rowHeaders, widths, true)

	var total, paid int64
	for _, row := range data.Rows {
		r := row.Rental
		total += r.TotalAmount
		paid += r.PaidAmount
		drawRow(pdf, tr, []string{
			r.TrackingCode,
			row.CustomerName,
			r.Status.Label(),
			strconv.Itoa(r.BoxQuantity),
			utils.FormatDate(r.DeliveryDate),
			utils.FormatDate(r.ReturnDate()),
			safeValue(row.DriverName),
			utils.FormatCLP(r.TotalAmount),
			utils.FormatCLP(r.PaidAmount),
			utils.FormatCLP(r.PendingAmount()),
		}, widths, false)
	}

	pdf.Ln(2)
	pdf.SetFont(pdfFont, "B", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Total: %s  Pagado: %s", utils.FormatCLP(total), utils.FormatCLP(paid))), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawRow(pdf *gofpdf.Fpdf, tr func(string) string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(pdfFont, style, 9)
	for i, col := range cols {
		align := "L"
		if i == 3 || i > 6 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, tr(col), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}
