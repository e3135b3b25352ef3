package payslip

import (
	"fmt"
	"time"

	"payday/internal/domain/payroll"
	"payday/internal/money"
)

// Model is everything a renderer needs to lay out one payslip. It is a
// plain snapshot so renderers stay decoupled from persistence.
type Model struct {
	PayrollID       string
	Period          string
	Status          string
	EmployeeName    string
	EmployeeEmail   string
	Gross           money.Money
	TotalDeductions money.Money
	NetPay          money.Money
	Lines           []payroll.LineItem
	GeneratedAt     time.Time
}

// Renderer turns a payslip model into an opaque document byte stream.
// Implementations must refuse a pending payroll: its numbers are not
// finalized yet.
type Renderer interface {
	Render(model Model) ([]byte, error)
}

func BuildModel(p payroll.Payroll, employee payroll.Employee) Model {
	return Model{
		PayrollID:       p.ID,
		Period:          p.Period,
		Status:          p.Status,
		EmployeeName:    fmt.Sprintf("%s %s", employee.FirstName, employee.LastName),
		EmployeeEmail:   employee.Email,
		Gross:           p.Gross,
		TotalDeductions: p.TotalDeductions,
		NetPay:          p.NetPay,
		Lines:           p.Lines,
		GeneratedAt:     time.Now().UTC(),
	}
}
