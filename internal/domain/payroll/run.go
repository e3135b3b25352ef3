package payroll

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

var cohortKinds = map[string]string{
	CohortEmployees: EmployeeKindEmployee,
	CohortInterns:   EmployeeKindIntern,
}

// Run computes and persists payroll for every active member of the
// cohort. Only an unresolvable period or cohort is fatal; per-member
// failures are collected in the report and never abort siblings.
// Members are processed with bounded parallelism; the DB unique key on
// (employee_id, period) is the idempotency backstop, so two concurrent
// runs cannot double-insert. After ctx is cancelled no new member is
// started, in-flight members finish and stay persisted.
func (s *Service) Run(ctx context.Context, period, cohort string) (RunReport, error) {
	if err := ValidatePeriod(period); err != nil {
		return RunReport{}, err
	}
	kind, ok := cohortKinds[cohort]
	if !ok {
		return RunReport{}, fmt.Errorf("%w: unknown cohort %q", ErrValidation, cohort)
	}

	members, err := s.store.ListCohort(ctx, kind)
	if err != nil {
		return RunReport{}, fmt.Errorf("list cohort %s: %w", cohort, err)
	}

	report := RunReport{Period: period, Cohort: cohort}
	var mu sync.Mutex

	group := new(errgroup.Group)
	group.SetLimit(s.workers)
	for _, member := range members {
		if ctx.Err() != nil {
			break
		}
		member := member
		group.Go(func() error {
			result := s.runMember(ctx, period, member)
			mu.Lock()
			defer mu.Unlock()
			report.Members = append(report.Members, result)
			switch result.Outcome {
			case OutcomeCreated:
				report.Created++
			case OutcomeAlreadyRun:
				report.Skipped++
			case OutcomeFailed:
				report.Failed++
			}
			for _, warning := range result.Warnings {
				if warning == WarningNoRecipient {
					report.NoRecipient++
				}
			}
			return nil
		})
	}
	_ = group.Wait()

	sort.Slice(report.Members, func(i, j int) bool {
		return report.Members[i].EmployeeID < report.Members[j].EmployeeID
	})
	return report, nil
}

func (s *Service) runMember(ctx context.Context, period string, member Employee) MemberResult {
	result := MemberResult{EmployeeID: member.ID}

	exists, err := s.store.PayrollExists(ctx, member.ID, period)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		return result
	}
	if exists {
		result.Outcome = OutcomeAlreadyRun
		return result
	}

	breakdown, err := s.computeFor(ctx, member.ID)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		return result
	}

	p := Payroll{
		EmployeeID:      member.ID,
		Period:          period,
		Gross:           breakdown.Gross,
		TotalDeductions: breakdown.TotalDeductions,
		NetPay:          breakdown.NetPay,
		Status:          StatusPending,
		Lines:           breakdown.Lines,
	}
	if err := s.store.InsertPayroll(ctx, &p); err != nil {
		// Lost the race against a concurrent run; the existing record wins.
		if errors.Is(err, ErrAlreadyRun) {
			result.Outcome = OutcomeAlreadyRun
			return result
		}
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		return result
	}

	result.Outcome = OutcomeCreated
	result.PayrollID = p.ID
	// Payroll must exist for accounting even when delivery is impossible.
	if member.Email == "" {
		result.Warnings = append(result.Warnings, WarningNoRecipient)
	}
	return result
}

// Preview computes the breakdown for one employee without persisting
// anything. It shares computeFor with Run, so the numbers cannot
// diverge between a preview and the committed run.
func (s *Service) Preview(ctx context.Context, period, employeeID string) (Breakdown, error) {
	if err := ValidatePeriod(period); err != nil {
		return Breakdown{}, err
	}
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return Breakdown{}, err
	}
	return s.computeFor(ctx, employeeID)
}

func (s *Service) computeFor(ctx context.Context, employeeID string) (Breakdown, error) {
	components, err := s.store.ListComponents(ctx, employeeID)
	if err != nil {
		return Breakdown{}, fmt.Errorf("list components: %w", err)
	}
	deductions, err := s.store.ListDeductions(ctx, employeeID)
	if err != nil {
		return Breakdown{}, fmt.Errorf("list deductions: %w", err)
	}
	return Compute(components, deductions), nil
}
