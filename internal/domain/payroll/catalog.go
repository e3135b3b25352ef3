package payroll

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var oneFraction = decimal.NewFromInt(1)

func (s *Service) ListComponents(ctx context.Context, employeeID string) ([]SalaryComponent, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.store.ListComponents(ctx, employeeID)
}

func (s *Service) CreateComponent(ctx context.Context, component SalaryComponent) (string, error) {
	if strings.TrimSpace(component.Name) == "" {
		return "", fmt.Errorf("%w: component name is required", ErrValidation)
	}
	if component.Amount.IsNegative() {
		return "", fmt.Errorf("%w: component amount must not be negative", ErrValidation)
	}
	if _, err := s.store.GetEmployee(ctx, component.EmployeeID); err != nil {
		return "", err
	}
	return s.store.CreateComponent(ctx, component)
}

func (s *Service) SetComponentActive(ctx context.Context, componentID string, active bool) error {
	return s.store.SetComponentActive(ctx, componentID, active)
}

func (s *Service) ListDeductions(ctx context.Context, employeeID string) ([]Deduction, error) {
	if employeeID != "" {
		if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
			return nil, err
		}
	}
	return s.store.ListDeductions(ctx, employeeID)
}

func (s *Service) CreateDeduction(ctx context.Context, deduction Deduction) (string, error) {
	if strings.TrimSpace(deduction.Name) == "" {
		return "", fmt.Errorf("%w: deduction name is required", ErrValidation)
	}
	switch deduction.Kind {
	case DeductionKindFixed:
		if deduction.Amount.IsNegative() {
			return "", fmt.Errorf("%w: fixed deduction amount must not be negative", ErrValidation)
		}
	case DeductionKindPercentage:
		if deduction.Rate.IsNegative() || deduction.Rate.GreaterThan(oneFraction) {
			return "", fmt.Errorf("%w: percentage rate must be between 0 and 1", ErrValidation)
		}
	default:
		return "", fmt.Errorf("%w: unknown deduction kind %q", ErrValidation, deduction.Kind)
	}
	if deduction.EmployeeID != "" {
		if _, err := s.store.GetEmployee(ctx, deduction.EmployeeID); err != nil {
			return "", err
		}
	}
	return s.store.CreateDeduction(ctx, deduction)
}

func (s *Service) SetDeductionActive(ctx context.Context, deductionID string, active bool) error {
	return s.store.SetDeductionActive(ctx, deductionID, active)
}
