package interfaces

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"uppf-engine/internal/claims/application"
)

// BuildSubmissionPDF renders the regulator filing as a PDF.
func BuildSubmissionPDF(pkg *application.SubmissionPackage) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "UPPF Claims Submission")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Reference: %s", pkg.SubmissionReference))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Pricing Window: %s", pkg.WindowID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Submitted: %s", pkg.SubmissionDate.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Claims: %d", pkg.ClaimCount))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Amount (%s): %.2f", pkg.Currency, pkg.TotalAmount))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(45, 6, "Claim", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Route", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Km Beyond", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Litres", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Tariff", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, line := range pkg.Lines {
		pdf.CellFormat(45, 6, line.ClaimID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, line.RouteID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.1f", line.KmBeyondEqualisation), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.1f", line.LitresMoved), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.4f", line.TariffPerLitreKm), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", line.AmountDue), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildSubmissionXLSX renders the regulator filing as an XLSX workbook.
func BuildSubmissionXLSX(pkg *application.SubmissionPackage) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	claimsSheet := "claims"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(claimsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "UPPF Claims Submission")
	_ = f.SetCellValue(summarySheet, "A3", "Reference")
	_ = f.SetCellValue(summarySheet, "B3", pkg.SubmissionReference)
	_ = f.SetCellValue(summarySheet, "A4", "Pricing Window")
	_ = f.SetCellValue(summarySheet, "B4", pkg.WindowID)
	_ = f.SetCellValue(summarySheet, "A5", "Submitted")
	_ = f.SetCellValue(summarySheet, "B5", pkg.SubmissionDate.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A6", "Claims")
	_ = f.SetCellValue(summarySheet, "B6", pkg.ClaimCount)
	_ = f.SetCellValue(summarySheet, "A7", "Total Amount")
	_ = f.SetCellValue(summarySheet, "B7", pkg.TotalAmount)
	_ = f.SetCellValue(summarySheet, "A8", "Currency")
	_ = f.SetCellValue(summarySheet, "B8", pkg.Currency)

	_ = f.SetCellValue(claimsSheet, "A1", "Claim")
	_ = f.SetCellValue(claimsSheet, "B1", "Route")
	_ = f.SetCellValue(claimsSheet, "C1", "Delivery")
	_ = f.SetCellValue(claimsSheet, "D1", "Km Beyond Equalisation")
	_ = f.SetCellValue(claimsSheet, "E1", "Litres Moved")
	_ = f.SetCellValue(claimsSheet, "F1", "Tariff (per litre-km)")
	_ = f.SetCellValue(claimsSheet, "G1", "Amount Due")
	_ = f.SetCellValue(claimsSheet, "H1", "Evidence")
	for i, line := range pkg.Lines {
		row := i + 2
		_ = f.SetCellValue(claimsSheet, fmt.Sprintf("A%d", row), line.ClaimID)
		_ = f.SetCellValue(claimsSheet, fmt.Sprintf("B%d", row), line.RouteID)
		_ = f.SetCellValue(claimsSheet, fmt.Sprintf("C%d", row), line.DeliveryID)
		_ = f.SetCellValue(claimsSheet, fmt.Sprintf("D%d", row), line.KmBeyondEqualisation)
		_ = f.SetCellValue(claimsSheet, fmt.Sprintf("E%d", row), line.LitresMoved)
		_ = f.SetCellValue(claimsSheet, fmt.Sprintf("F%d", row), line.TariffPerLitreKm)
		_ = f.SetCellValue(claimsSheet, fmt.Sprintf("G%d", row), line.AmountDue)
		_ = f.SetCellValue(claimsSheet, fmt.Sprintf("H%d", row), strings.Join(line.EvidenceLinks, ", "))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
