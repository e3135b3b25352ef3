package payroll

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fakeStore is an in-memory StoreAPI used by the service tests. It
// enforces the same (employee_id, period) uniqueness as the database
// unique key so idempotency behaves like production.
type fakeStore struct {
	mu         sync.Mutex
	employees  map[string]Employee
	components map[string][]SalaryComponent
	deductions []Deduction
	payrolls   map[string]*Payroll
	byKey      map[string]string
	seq        int

	componentsErr map[string]error
	insertErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		employees:     map[string]Employee{},
		components:    map[string][]SalaryComponent{},
		payrolls:      map[string]*Payroll{},
		byKey:         map[string]string{},
		componentsErr: map[string]error{},
	}
}

func (f *fakeStore) addEmployee(e Employee) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.employees[e.ID] = e
}

func (f *fakeStore) ListCohort(_ context.Context, kind string) ([]Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Employee
	for _, e := range f.employees {
		if e.Kind == kind && e.Status == EmployeeStatusActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) GetEmployee(_ context.Context, employeeID string) (Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.employees[employeeID]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, nil
}

func (f *fakeStore) ListComponents(_ context.Context, employeeID string) ([]SalaryComponent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.componentsErr[employeeID]; err != nil {
		return nil, err
	}
	return append([]SalaryComponent(nil), f.components[employeeID]...), nil
}

func (f *fakeStore) CreateComponent(_ context.Context, component SalaryComponent) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	component.ID = fmt.Sprintf("component-%d", f.seq)
	component.Position = len(f.components[component.EmployeeID])
	f.components[component.EmployeeID] = append(f.components[component.EmployeeID], component)
	return component.ID, nil
}

func (f *fakeStore) SetComponentActive(_ context.Context, componentID string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for employeeID, list := range f.components {
		for i := range list {
			if list[i].ID == componentID {
				f.components[employeeID][i].Active = active
				return nil
			}
		}
	}
	return ErrNotFound
}

func (f *fakeStore) ListDeductions(_ context.Context, employeeID string) ([]Deduction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Deduction
	for _, d := range f.deductions {
		if d.EmployeeID == "" || d.EmployeeID == employeeID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateDeduction(_ context.Context, deduction Deduction) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	deduction.ID = fmt.Sprintf("deduction-%d", f.seq)
	deduction.Position = len(f.deductions)
	f.deductions = append(f.deductions, deduction)
	return deduction.ID, nil
}

func (f *fakeStore) SetDeductionActive(_ context.Context, deductionID string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.deductions {
		if f.deductions[i].ID == deductionID {
			f.deductions[i].Active = active
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeStore) PayrollExists(_ context.Context, employeeID, period string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byKey[employeeID+"|"+period]
	return ok, nil
}

func (f *fakeStore) InsertPayroll(_ context.Context, p *Payroll) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	key := p.EmployeeID + "|" + p.Period
	if _, ok := f.byKey[key]; ok {
		return ErrAlreadyRun
	}
	f.seq++
	p.ID = fmt.Sprintf("payroll-%d", f.seq)
	p.CreatedAt = time.Now().UTC()
	stored := *p
	f.payrolls[p.ID] = &stored
	f.byKey[key] = p.ID
	return nil
}

func (f *fakeStore) GetPayroll(_ context.Context, payrollID string) (Payroll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payrolls[payrollID]
	if !ok {
		return Payroll{}, ErrNotFound
	}
	return *p, nil
}

func (f *fakeStore) ListPayrolls(_ context.Context, filter Filter) ([]Payroll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Payroll
	for _, p := range f.payrolls {
		if filter.Period != "" && p.Period != filter.Period {
			continue
		}
		if filter.EmployeeID != "" && p.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, payrollID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payrolls[payrollID]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	return nil
}

func (f *fakeStore) MarkExported(_ context.Context, payrollID string, exportedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payrolls[payrollID]
	if !ok {
		return ErrNotFound
	}
	p.Status = StatusExported
	p.ExportedAt = &exportedAt
	return nil
}

func (f *fakeStore) MarkSent(_ context.Context, payrollID string, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payrolls[payrollID]
	if !ok {
		return ErrNotFound
	}
	p.SentAt = &sentAt
	return nil
}

func (f *fakeStore) RegisterRows(_ context.Context, period string) ([]RegisterRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []RegisterRow
	for _, p := range f.payrolls {
		if p.Period != period {
			continue
		}
		e := f.employees[p.EmployeeID]
		out = append(out, RegisterRow{
			EmployeeID:      p.EmployeeID,
			FirstName:       e.FirstName,
			LastName:        e.LastName,
			Gross:           p.Gross,
			TotalDeductions: p.TotalDeductions,
			NetPay:          p.NetPay,
			Status:          p.Status,
		})
	}
	return out, nil
}

var _ StoreAPI = (*fakeStore)(nil)
