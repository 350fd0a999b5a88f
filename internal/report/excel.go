package report

import (
	"fmt"

	"arriendo-cajas-backend/internal/utils"

	"github.com/xuri/excelize/v2"
)

type ExcelGenerator struct{}

func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

// Generate renders a workbook with a summary sheet and one row per rental
func (g *ExcelGenerator) Generate(data Data) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	summarySheet := "Resumen"
	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	g.writeSummary(file, summarySheet, data)

	rentalsSheet := "Arriendos"
	if _, err := file.NewSheet(rentalsSheet); err != nil {
		return nil, err
	}
	if err := g.writeRentals(file, rentalsSheet, data); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *ExcelGenerator) writeSummary(file *excelize.File, sheet string, data Data) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Desde")
	set("B1", utils.FormatDate(data.From))
	set("A2", "Hasta")
	set("B2", utils.FormatDate(data.LastDay()))
	set("A3", "Arriendos")
	set("B3", len(data.Rows))

	if s := data.Summary; s != nil {
		set("A4", "Cajas en terreno")
		set("B4", s.BoxesOut)
		set("A5", "Recaudado")
		set("B5", s.RevenueCollected)
		set("A6", "Deuda pendiente")
		set("B6", s.OutstandingDebt)
		set("A7", "Correos enviados")
		set("B7", s.EmailsByStatus["sent"])
		set("A8", "Correos fallidos")
		set("B8", s.EmailsByStatus["failed"])

		row := 10
		set(fmt.Sprintf("A%d", row), "Estado")
		set(fmt.Sprintf("B%d", row), "Cantidad")
		for i, st := range statusOrder {
			set(fmt.Sprintf("A%d", row+1+i), st.Label())
			set(fmt.Sprintf("B%d", row+1+i), s.RentalsByStatus[st])
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 24)
	_ = file.SetColWidth(sheet, "B", "B", 16)
}

func (g *ExcelGenerator) writeRentals(file *excelize.File, sheet string, data Data) error {
	for i, header := range rowHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		_ = file.SetCellValue(sheet, cell, header)
	}

	for i, row := range data.Rows {
		r := row.Rental
		values := []interface{}{
			r.TrackingCode,
			row.CustomerName,
			r.Status.Label(),
			r.BoxQuantity,
			utils.FormatDate(r.DeliveryDate),
			utils.FormatDate(r.ReturnDate()),
			safeValue(row.DriverName),
			r.TotalAmount,
			r.PaidAmount,
			r.PendingAmount(),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			_ = file.SetCellValue(sheet, cell, v)
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 14)
	_ = file.SetColWidth(sheet, "B", "B", 32)
	_ = file.SetColWidth(sheet, "C", "C", 18)
	_ = file.SetColWidth(sheet, "D", "F", 12)
	_ = file.SetColWidth(sheet, "G", "G", 22)
	_ = file.SetColWidth(sheet, "H", "J", 14)
	return nil
}
