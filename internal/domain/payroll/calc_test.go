package payroll

import (
	"testing"

	"github.com/shopspring/decimal"

	"payday/internal/money"
)

func pct(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	rate, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad rate %q: %v", value, err)
	}
	return rate
}

func TestComputeTypicalPayroll(t *testing.T) {
	components := []SalaryComponent{
		{Name: "Base", Amount: money.FromCents(50000), Active: true},
		{Name: "Bonus", Amount: money.FromCents(5000), Active: true},
	}
	deductions := []Deduction{
		{Name: "Tax", Kind: DeductionKindPercentage, Rate: pct(t, "0.10"), Active: true},
		{Name: "Insurance", Kind: DeductionKindFixed, Amount: money.FromCents(2000), Active: true},
	}

	breakdown := Compute(components, deductions)

	if breakdown.Gross != money.FromCents(55000) {
		t.Fatalf("expected gross 55000, got %d", breakdown.Gross.Cents())
	}
	if breakdown.TotalDeductions != money.FromCents(7500) {
		t.Fatalf("expected deductions 7500, got %d", breakdown.TotalDeductions.Cents())
	}
	if breakdown.NetPay != money.FromCents(47500) {
		t.Fatalf("expected net 47500, got %d", breakdown.NetPay.Cents())
	}
	if len(breakdown.Lines) != 4 {
		t.Fatalf("expected 4 line items, got %d", len(breakdown.Lines))
	}
}

func TestComputeIgnoresInactiveEntries(t *testing.T) {
	components := []SalaryComponent{
		{Name: "Base", Amount: money.FromCents(40000), Active: true},
		{Name: "Old allowance", Amount: money.FromCents(9999), Active: false},
	}
	deductions := []Deduction{
		{Name: "Retired levy", Kind: DeductionKindFixed, Amount: money.FromCents(500), Active: false},
	}

	breakdown := Compute(components, deductions)

	if breakdown.Gross != money.FromCents(40000) {
		t.Fatalf("expected gross 40000, got %d", breakdown.Gross.Cents())
	}
	if breakdown.TotalDeductions != money.FromCents(0) {
		t.Fatalf("expected no deductions, got %d", breakdown.TotalDeductions.Cents())
	}
	if len(breakdown.Lines) != 1 {
		t.Fatalf("expected only the active component line, got %d", len(breakdown.Lines))
	}
}

func TestComputeEmptyCatalogIsZeroNotError(t *testing.T) {
	breakdown := Compute(nil, nil)
	if breakdown.Gross != 0 || breakdown.TotalDeductions != 0 || breakdown.NetPay != 0 {
		t.Fatalf("expected all-zero breakdown, got %+v", breakdown)
	}
	if len(breakdown.Lines) != 0 {
		t.Fatalf("expected no lines, got %d", len(breakdown.Lines))
	}
}

func TestComputeCapsTotalDeductionsAtGross(t *testing.T) {
	components := []SalaryComponent{
		{Name: "Base", Amount: money.FromCents(50000), Active: true},
	}
	deductions := []Deduction{
		{Name: "Garnishment", Kind: DeductionKindFixed, Amount: money.FromCents(35000), Active: true},
		{Name: "Loan", Kind: DeductionKindFixed, Amount: money.FromCents(25000), Active: true},
	}

	breakdown := Compute(components, deductions)

	if breakdown.TotalDeductions != money.FromCents(50000) {
		t.Fatalf("expected deductions capped at 50000, got %d", breakdown.TotalDeductions.Cents())
	}
	if breakdown.NetPay != money.FromCents(0) {
		t.Fatalf("expected net 0, got %d", breakdown.NetPay.Cents())
	}
	// The cap applies to the total; individual lines keep their full
	// amounts for the audit trail.
	if breakdown.Lines[1].Amount != money.FromCents(35000) || breakdown.Lines[2].Amount != money.FromCents(25000) {
		t.Fatalf("expected uncapped line amounts, got %+v", breakdown.Lines)
	}
}

func TestComputePercentageAgainstGrossNeverChains(t *testing.T) {
	components := []SalaryComponent{
		{Name: "Base", Amount: money.FromCents(10000), Active: true},
	}
	deductions := []Deduction{
		{Name: "First", Kind: DeductionKindPercentage, Rate: pct(t, "0.10"), Active: true},
		{Name: "Second", Kind: DeductionKindPercentage, Rate: pct(t, "0.10"), Active: true},
	}

	breakdown := Compute(components, deductions)

	// Both percentages apply to gross, not to a running remainder.
	if breakdown.Lines[1].Amount != money.FromCents(1000) || breakdown.Lines[2].Amount != money.FromCents(1000) {
		t.Fatalf("expected both percentage lines at 1000, got %+v", breakdown.Lines)
	}
	if breakdown.NetPay != money.FromCents(8000) {
		t.Fatalf("expected net 8000, got %d", breakdown.NetPay.Cents())
	}
}

func TestComputeLineOrderFollowsCatalogOrder(t *testing.T) {
	components := []SalaryComponent{
		{Name: "Base", Amount: money.FromCents(1000), Active: true},
		{Name: "Bonus", Amount: money.FromCents(100), Active: true},
	}
	deductions := []Deduction{
		{Name: "Tax", Kind: DeductionKindPercentage, Rate: pct(t, "0.05"), Active: true},
	}

	breakdown := Compute(components, deductions)

	names := []string{"Base", "Bonus", "Tax"}
	for i, want := range names {
		if breakdown.Lines[i].Name != want {
			t.Fatalf("expected line %d to be %s, got %s", i, want, breakdown.Lines[i].Name)
		}
		if breakdown.Lines[i].Position != i {
			t.Fatalf("expected position %d, got %d", i, breakdown.Lines[i].Position)
		}
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	components := []SalaryComponent{
		{Name: "Base", Amount: money.FromCents(333333), Active: true},
	}
	deductions := []Deduction{
		{Name: "Tax", Kind: DeductionKindPercentage, Rate: pct(t, "0.0725"), Active: true},
	}

	first := Compute(components, deductions)
	for i := 0; i < 50; i++ {
		again := Compute(components, deductions)
		if again.Gross != first.Gross || again.TotalDeductions != first.TotalDeductions || again.NetPay != first.NetPay {
			t.Fatalf("run %d diverged: %+v vs %+v", i, again, first)
		}
	}
	if first.NetPay != first.Gross.Sub(first.TotalDeductions) {
		t.Fatalf("net %d != gross %d - deductions %d", first.NetPay.Cents(), first.Gross.Cents(), first.TotalDeductions.Cents())
	}
}
