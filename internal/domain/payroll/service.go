package payroll

import (
	"context"
	"fmt"
	"time"
)

const defaultRunWorkers = 4

type Service struct {
	store   StoreAPI
	workers int
}

func NewService(store StoreAPI, workers int) *Service {
	if workers <= 0 {
		workers = defaultRunWorkers
	}
	return &Service{store: store, workers: workers}
}

func (s *Service) Get(ctx context.Context, payrollID string) (Payroll, error) {
	return s.store.GetPayroll(ctx, payrollID)
}

func (s *Service) Employee(ctx context.Context, employeeID string) (Employee, error) {
	return s.store.GetEmployee(ctx, employeeID)
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Payroll, error) {
	if filter.Period != "" {
		if err := ValidatePeriod(filter.Period); err != nil {
			return nil, err
		}
	}
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, filter.Status)
	}
	return s.store.ListPayrolls(ctx, filter)
}

func (s *Service) ListForEmployee(ctx context.Context, employeeID string) ([]Payroll, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.store.ListPayrolls(ctx, Filter{EmployeeID: employeeID})
}

// UpdateStatus advances the payroll along the lifecycle. The record is
// left untouched when the transition is rejected.
func (s *Service) UpdateStatus(ctx context.Context, payrollID, target string) (Payroll, error) {
	p, err := s.store.GetPayroll(ctx, payrollID)
	if err != nil {
		return Payroll{}, err
	}
	if err := Transition(&p, target); err != nil {
		return Payroll{}, err
	}
	if target == StatusExported {
		now := time.Now().UTC()
		if err := s.store.MarkExported(ctx, payrollID, now); err != nil {
			return Payroll{}, err
		}
		p.ExportedAt = &now
		return p, nil
	}
	if err := s.store.UpdateStatus(ctx, payrollID, target); err != nil {
		return Payroll{}, err
	}
	return p, nil
}

// Export marks the payroll as exported to the accounting feed and
// returns the receipt. Re-exporting an already exported payroll
// re-emits the receipt without changing state.
func (s *Service) Export(ctx context.Context, payrollID string) (ExportReceipt, error) {
	p, err := s.store.GetPayroll(ctx, payrollID)
	if err != nil {
		return ExportReceipt{}, err
	}
	if p.Status == StatusExported {
		exportedAt := time.Now().UTC()
		if p.ExportedAt != nil {
			exportedAt = *p.ExportedAt
		}
		return receiptFor(p, exportedAt), nil
	}
	if !CanTransition(p.Status, StatusExported) {
		return ExportReceipt{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, StatusExported)
	}
	now := time.Now().UTC()
	if err := s.store.MarkExported(ctx, payrollID, now); err != nil {
		return ExportReceipt{}, err
	}
	return receiptFor(p, now), nil
}

func (s *Service) Register(ctx context.Context, period string) ([]RegisterRow, error) {
	if err := ValidatePeriod(period); err != nil {
		return nil, err
	}
	return s.store.RegisterRows(ctx, period)
}

func receiptFor(p Payroll, exportedAt time.Time) ExportReceipt {
	return ExportReceipt{
		PayrollID:       p.ID,
		EmployeeID:      p.EmployeeID,
		Period:          p.Period,
		Gross:           p.Gross,
		TotalDeductions: p.TotalDeductions,
		NetPay:          p.NetPay,
		ExportedAt:      exportedAt,
	}
}

// ValidatePeriod accepts month identifiers of the form YYYY-MM.
func ValidatePeriod(period string) error {
	if _, err := time.Parse("2006-01", period); err != nil {
		return fmt.Errorf("%w: period must be YYYY-MM, got %q", ErrValidation, period)
	}
	return nil
}
