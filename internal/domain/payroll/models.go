package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"payday/internal/money"
)

type Employee struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	// Email is empty when no user account is linked to the employee.
	// Payroll still runs for them; delivery reports no_recipient.
	Email  string `json:"email,omitempty"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
}

type SalaryComponent struct {
	ID         string      `json:"id"`
	EmployeeID string      `json:"employeeId"`
	Name       string      `json:"name"`
	Amount     money.Money `json:"amountCents"`
	Active     bool        `json:"active"`
	Position   int         `json:"position"`
	CreatedAt  time.Time   `json:"createdAt"`
}

type Deduction struct {
	ID string `json:"id"`
	// EmployeeID is empty for globally scoped deductions.
	EmployeeID string      `json:"employeeId,omitempty"`
	Name       string      `json:"name"`
	Kind       string      `json:"kind"`
	Amount     money.Money `json:"amountCents,omitempty"`
	// Rate is the fraction of gross for percentage deductions, e.g. 0.10.
	Rate     decimal.Decimal `json:"rate,omitempty"`
	Active   bool            `json:"active"`
	Position int             `json:"position"`
}

// LineItem is an immutable snapshot of one earning or deduction
// contribution. Catalog edits never alter persisted lines.
type LineItem struct {
	Kind     string           `json:"kind"`
	Name     string           `json:"name"`
	Amount   money.Money      `json:"amountCents"`
	Rate     *decimal.Decimal `json:"rate,omitempty"`
	Position int              `json:"position"`
}

type Payroll struct {
	ID              string      `json:"id"`
	EmployeeID      string      `json:"employeeId"`
	Period          string      `json:"period"`
	Gross           money.Money `json:"grossCents"`
	TotalDeductions money.Money `json:"totalDeductionsCents"`
	NetPay          money.Money `json:"netPayCents"`
	Status          string      `json:"status"`
	SentAt          *time.Time  `json:"sentAt,omitempty"`
	ExportedAt      *time.Time  `json:"exportedAt,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	Lines           []LineItem  `json:"lines,omitempty"`
}

// Breakdown is the result of one computation, shared verbatim between
// Preview and Run so the two can never diverge.
type Breakdown struct {
	Gross           money.Money `json:"grossCents"`
	TotalDeductions money.Money `json:"totalDeductionsCents"`
	NetPay          money.Money `json:"netPayCents"`
	Lines           []LineItem  `json:"lines"`
}

type MemberResult struct {
	EmployeeID string   `json:"employeeId"`
	Outcome    string   `json:"outcome"`
	PayrollID  string   `json:"payrollId,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Error      string   `json:"error,omitempty"`
}

type RunReport struct {
	Period  string `json:"period"`
	Cohort  string `json:"cohort"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
	// NoRecipient counts created payrolls whose member has no linked
	// contact; those members also carry a warning in Members.
	NoRecipient int            `json:"noRecipient"`
	Members     []MemberResult `json:"members"`
}

type ExportReceipt struct {
	PayrollID       string      `json:"payrollId"`
	EmployeeID      string      `json:"employeeId"`
	Period          string      `json:"period"`
	Gross           money.Money `json:"grossCents"`
	TotalDeductions money.Money `json:"totalDeductionsCents"`
	NetPay          money.Money `json:"netPayCents"`
	ExportedAt      time.Time   `json:"exportedAt"`
}

type Filter struct {
	Period     string
	EmployeeID string
	Status     string
	Limit      int
	Offset     int
}

type RegisterRow struct {
	EmployeeID      string
	FirstName       string
	LastName        string
	Gross           money.Money
	TotalDeductions money.Money
	NetPay          money.Money
	Status          string
}
