package payslip

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"payday/internal/domain/payroll"
)

var hundred = decimal.NewFromInt(100)

type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

func (r *PDFRenderer) Render(model Model) ([]byte, error) {
	if model.Status == payroll.StatusPending {
		return nil, payroll.ErrNotReady
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", model.EmployeeName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s", model.Period))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", model.GeneratedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(70, 8, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Type", "B", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Rate", "B", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, "Amount", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range model.Lines {
		rate := ""
		if line.Rate != nil {
			rate = line.Rate.Mul(hundred).StringFixed(2) + "%"
		}
		amount := line.Amount.String()
		if line.Kind == payroll.LineKindDeduction {
			amount = "-" + amount
		}
		pdf.CellFormat(70, 7, line.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, line.Kind, "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, rate, "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, amount, "", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(130, 8, "Gross", "T", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, model.Gross.String(), "T", 1, "R", false, 0, "")
	pdf.CellFormat(130, 8, "Total deductions", "", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, "-"+model.TotalDeductions.String(), "", 1, "R", false, 0, "")
	pdf.CellFormat(130, 8, "Net pay", "", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, model.NetPay.String(), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render payslip %s: %w", model.PayrollID, err)
	}
	return buf.Bytes(), nil
}

var _ Renderer = (*PDFRenderer)(nil)
