package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	checkin "flightops-cloud/internal/checkin/domain"
)

// BuildDraftPDF renders a minimal PDF for a draft invoice.
func BuildDraftPDF(booking *checkin.Booking, draft *checkin.DraftCalculation) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Check-In Draft Invoice")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Booking: %s", booking.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Aircraft: %s", booking.AircraftID))
	pdf.Ln(5)
	if booking.InstructorID != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Instructor: %s", booking.InstructorID))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Charge basis: %s", draft.BillingBasis))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Billing hours: %s (dual %s, solo %s)", draft.BillingHours, draft.DualTime, draft.SoloTime))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Calculated: %s", draft.CalculatedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	// Lines table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Description", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Hours", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Rate", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Tax", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Total", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, line := range draft.Lines {
		pdf.CellFormat(70, 6, line.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, line.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, line.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, line.TaxAmount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, line.LineTotal.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Subtotal: %s", draft.Totals.Subtotal.StringFixed(2)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Tax: %s", draft.Totals.TaxTotal.StringFixed(2)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total: %s", draft.Totals.TotalAmount.StringFixed(2)))
	pdf.Ln(5)

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildDraftXLSX renders a minimal XLSX for a draft invoice.
func BuildDraftXLSX(booking *checkin.Booking, draft *checkin.DraftCalculation) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	linesSheet := "lines"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(linesSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Check-In Draft Invoice")
	_ = f.SetCellValue(summarySheet, "A3", "Booking")
	_ = f.SetCellValue(summarySheet, "B3", booking.ID)
	_ = f.SetCellValue(summarySheet, "A4", "Aircraft")
	_ = f.SetCellValue(summarySheet, "B4", booking.AircraftID)
	_ = f.SetCellValue(summarySheet, "A5", "Instructor")
	_ = f.SetCellValue(summarySheet, "B5", booking.InstructorID)
	_ = f.SetCellValue(summarySheet, "A6", "Charge basis")
	_ = f.SetCellValue(summarySheet, "B6", string(draft.BillingBasis))
	_ = f.SetCellValue(summarySheet, "A7", "Billing hours")
	_ = f.SetCellValue(summarySheet, "B7", draft.BillingHours.String())
	_ = f.SetCellValue(summarySheet, "A8", "Dual")
	_ = f.SetCellValue(summarySheet, "B8", draft.DualTime.String())
	_ = f.SetCellValue(summarySheet, "A9", "Solo")
	_ = f.SetCellValue(summarySheet, "B9", draft.SoloTime.String())
	_ = f.SetCellValue(summarySheet, "A10", "Subtotal")
	_ = f.SetCellValue(summarySheet, "B10", draft.Totals.Subtotal.StringFixed(2))
	_ = f.SetCellValue(summarySheet, "A11", "Tax")
	_ = f.SetCellValue(summarySheet, "B11", draft.Totals.TaxTotal.StringFixed(2))
	_ = f.SetCellValue(summarySheet, "A12", "Total")
	_ = f.SetCellValue(summarySheet, "B12", draft.Totals.TotalAmount.StringFixed(2))

	_ = f.SetCellValue(linesSheet, "A1", "Description")
	_ = f.SetCellValue(linesSheet, "B1", "Hours")
	_ = f.SetCellValue(linesSheet, "C1", "Rate")
	_ = f.SetCellValue(linesSheet, "D1", "Tax")
	_ = f.SetCellValue(linesSheet, "E1", "Total")
	for i, line := range draft.Lines {
		row := i + 2
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("A%d", row), line.Description)
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("B%d", row), line.Quantity.String())
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("C%d", row), line.UnitPrice.StringFixed(2))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("D%d", row), line.TaxAmount.StringFixed(2))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("E%d", row), line.LineTotal.StringFixed(2))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
