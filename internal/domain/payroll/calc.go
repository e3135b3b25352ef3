package payroll

import (
	"payday/internal/money"
)

// Compute turns an employee's active components and deductions into a
// payroll breakdown. Pure and deterministic: no clock, no store, no
// side effects, so it is safe to call concurrently and Preview/Run can
// share it as the single source of truth.
//
// Rules:
//   - gross is the sum of active component amounts (an empty catalog is
//     a valid zero payroll, not an error)
//   - a fixed deduction contributes its value, a percentage deduction
//     contributes gross*rate rounded half-up to the minor unit
//   - total deductions are capped at gross; the cap applies to the
//     total, never per line, so entry order cannot penalize anyone
//   - net pay is gross minus total deductions, floored at zero
//
// Line items keep catalog order, components first, then deductions.
func Compute(components []SalaryComponent, deductions []Deduction) Breakdown {
	var lines []LineItem
	var gross money.Money
	position := 0

	for _, component := range components {
		if !component.Active {
			continue
		}
		gross = gross.Add(component.Amount)
		lines = append(lines, LineItem{
			Kind:     LineKindEarning,
			Name:     component.Name,
			Amount:   component.Amount,
			Position: position,
		})
		position++
	}

	var total money.Money
	for _, deduction := range deductions {
		if !deduction.Active {
			continue
		}
		line := LineItem{
			Kind:     LineKindDeduction,
			Name:     deduction.Name,
			Position: position,
		}
		switch deduction.Kind {
		case DeductionKindFixed:
			line.Amount = deduction.Amount
		case DeductionKindPercentage:
			line.Amount = gross.MulFraction(deduction.Rate)
			rate := deduction.Rate
			line.Rate = &rate
		default:
			continue
		}
		total = total.Add(line.Amount)
		lines = append(lines, line)
		position++
	}

	if total.Cmp(gross) > 0 {
		total = gross
	}

	return Breakdown{
		Gross:           gross,
		TotalDeductions: total,
		NetPay:          gross.Sub(total).ClampZero(),
		Lines:           lines,
	}
}
