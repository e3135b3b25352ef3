package payroll

import (
	"context"
	"time"
)

type StoreAPI interface {
	ListCohort(ctx context.Context, kind string) ([]Employee, error)
	GetEmployee(ctx context.Context, employeeID string) (Employee, error)

	ListComponents(ctx context.Context, employeeID string) ([]SalaryComponent, error)
	CreateComponent(ctx context.Context, component SalaryComponent) (string, error)
	SetComponentActive(ctx context.Context, componentID string, active bool) error

	// ListDeductions returns the employee's deductions plus global ones,
	// in catalog order.
	ListDeductions(ctx context.Context, employeeID string) ([]Deduction, error)
	CreateDeduction(ctx context.Context, deduction Deduction) (string, error)
	SetDeductionActive(ctx context.Context, deductionID string, active bool) error

	PayrollExists(ctx context.Context, employeeID, period string) (bool, error)
	// InsertPayroll persists the payroll and its line items atomically.
	// A unique-key violation on (employee_id, period) surfaces as
	// ErrAlreadyRun.
	InsertPayroll(ctx context.Context, p *Payroll) error
	GetPayroll(ctx context.Context, payrollID string) (Payroll, error)
	ListPayrolls(ctx context.Context, filter Filter) ([]Payroll, error)
	UpdateStatus(ctx context.Context, payrollID, status string) error
	MarkExported(ctx context.Context, payrollID string, exportedAt time.Time) error
	MarkSent(ctx context.Context, payrollID string, sentAt time.Time) error
	RegisterRows(ctx context.Context, period string) ([]RegisterRow, error)
}
