package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"payday/internal/money"
)

const uniqueViolation = "23505"

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

var _ StoreAPI = (*Store)(nil)

func (s *Store) ListCohort(ctx context.Context, kind string) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, first_name, last_name, COALESCE(email, ''), kind, status
    FROM employees
    WHERE kind = $1 AND status = $2
    ORDER BY last_name, first_name
  `, kind, EmployeeStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var employee Employee
		if err := rows.Scan(&employee.ID, &employee.FirstName, &employee.LastName, &employee.Email, &employee.Kind, &employee.Status); err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	return employees, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	var employee Employee
	err := s.DB.QueryRow(ctx, `
    SELECT id, first_name, last_name, COALESCE(email, ''), kind, status
    FROM employees
    WHERE id = $1
  `, employeeID).Scan(&employee.ID, &employee.FirstName, &employee.LastName, &employee.Email, &employee.Kind, &employee.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	return employee, nil
}

func (s *Store) ListComponents(ctx context.Context, employeeID string) ([]SalaryComponent, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, name, amount_cents, active, position, created_at
    FROM salary_components
    WHERE employee_id = $1
    ORDER BY position, created_at
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var components []SalaryComponent
	for rows.Next() {
		var component SalaryComponent
		var cents int64
		if err := rows.Scan(&component.ID, &component.EmployeeID, &component.Name, &cents, &component.Active, &component.Position, &component.CreatedAt); err != nil {
			return nil, err
		}
		component.Amount = money.FromCents(cents)
		components = append(components, component)
	}
	return components, rows.Err()
}

func (s *Store) CreateComponent(ctx context.Context, component SalaryComponent) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO salary_components (employee_id, name, amount_cents, active, position)
    VALUES ($1, $2, $3, $4,
      COALESCE((SELECT MAX(position) + 1 FROM salary_components WHERE employee_id = $1), 0))
    RETURNING id
  `, component.EmployeeID, component.Name, component.Amount.Cents(), component.Active).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) SetComponentActive(ctx context.Context, componentID string, active bool) error {
	tag, err := s.DB.Exec(ctx, "UPDATE salary_components SET active = $1 WHERE id = $2", active, componentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListDeductions(ctx context.Context, employeeID string) ([]Deduction, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, COALESCE(employee_id::text, ''), name, kind, amount_cents, COALESCE(rate::text, ''), active, position
    FROM deductions
    WHERE employee_id IS NULL OR employee_id = $1
    ORDER BY position, created_at
  `, nullIfEmpty(employeeID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeductions(rows)
}

func scanDeductions(rows pgx.Rows) ([]Deduction, error) {
	var deductions []Deduction
	for rows.Next() {
		var deduction Deduction
		var cents int64
		var rateText string
		if err := rows.Scan(&deduction.ID, &deduction.EmployeeID, &deduction.Name, &deduction.Kind, &cents, &rateText, &deduction.Active, &deduction.Position); err != nil {
			return nil, err
		}
		deduction.Amount = money.FromCents(cents)
		if rateText != "" {
			rate, err := decimal.NewFromString(rateText)
			if err != nil {
				return nil, fmt.Errorf("deduction %s has malformed rate %q: %w", deduction.ID, rateText, err)
			}
			deduction.Rate = rate
		}
		deductions = append(deductions, deduction)
	}
	return deductions, rows.Err()
}

func (s *Store) CreateDeduction(ctx context.Context, deduction Deduction) (string, error) {
	var rate any
	if deduction.Kind == DeductionKindPercentage {
		rate = deduction.Rate.String()
	}
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO deductions (employee_id, name, kind, amount_cents, rate, active, position)
    VALUES ($1, $2, $3, $4, $5, $6,
      COALESCE((SELECT MAX(position) + 1 FROM deductions), 0))
    RETURNING id
  `, nullIfEmpty(deduction.EmployeeID), deduction.Name, deduction.Kind, deduction.Amount.Cents(), rate, deduction.Active).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) SetDeductionActive(ctx context.Context, deductionID string, active bool) error {
	tag, err := s.DB.Exec(ctx, "UPDATE deductions SET active = $1 WHERE id = $2", active, deductionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) PayrollExists(ctx context.Context, employeeID, period string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payrolls WHERE employee_id = $1 AND period = $2", employeeID, period).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) InsertPayroll(ctx context.Context, p *Payroll) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
    INSERT INTO payrolls (employee_id, period, gross_cents, total_deductions_cents, net_pay_cents, status)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING id, created_at
  `, p.EmployeeID, p.Period, p.Gross.Cents(), p.TotalDeductions.Cents(), p.NetPay.Cents(), p.Status).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyRun
		}
		return err
	}

	for _, line := range p.Lines {
		var rate any
		if line.Rate != nil {
			rate = line.Rate.String()
		}
		if _, err := tx.Exec(ctx, `
      INSERT INTO payroll_line_items (payroll_id, position, kind, name, amount_cents, rate)
      VALUES ($1, $2, $3, $4, $5, $6)
    `, p.ID, line.Position, line.Kind, line.Name, line.Amount.Cents(), rate); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) GetPayroll(ctx context.Context, payrollID string) (Payroll, error) {
	p, err := s.scanPayroll(s.DB.QueryRow(ctx, `
    SELECT id, employee_id, period, gross_cents, total_deductions_cents, net_pay_cents, status, sent_at, exported_at, created_at
    FROM payrolls
    WHERE id = $1
  `, payrollID))
	if err != nil {
		return Payroll{}, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT position, kind, name, amount_cents, COALESCE(rate::text, '')
    FROM payroll_line_items
    WHERE payroll_id = $1
    ORDER BY position
  `, payrollID)
	if err != nil {
		return Payroll{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var line LineItem
		var cents int64
		var rateText string
		if err := rows.Scan(&line.Position, &line.Kind, &line.Name, &cents, &rateText); err != nil {
			return Payroll{}, err
		}
		line.Amount = money.FromCents(cents)
		if rateText != "" {
			rate, err := decimal.NewFromString(rateText)
			if err != nil {
				return Payroll{}, err
			}
			line.Rate = &rate
		}
		p.Lines = append(p.Lines, line)
	}
	return p, rows.Err()
}

func (s *Store) ListPayrolls(ctx context.Context, filter Filter) ([]Payroll, error) {
	query := `
    SELECT id, employee_id, period, gross_cents, total_deductions_cents, net_pay_cents, status, sent_at, exported_at, created_at
    FROM payrolls
    WHERE ($1 = '' OR period = $1)
      AND ($2 = '' OR employee_id::text = $2)
      AND ($3 = '' OR status = $3)
    ORDER BY period DESC, created_at DESC
  `
	args := []any{filter.Period, filter.EmployeeID, filter.Status}
	if filter.Limit > 0 {
		query += " LIMIT $4 OFFSET $5"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payrolls []Payroll
	for rows.Next() {
		p, err := s.scanPayroll(rows)
		if err != nil {
			return nil, err
		}
		payrolls = append(payrolls, p)
	}
	return payrolls, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, payrollID, status string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE payrolls SET status = $1 WHERE id = $2", status, payrollID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) MarkExported(ctx context.Context, payrollID string, exportedAt time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payrolls SET status = $1, exported_at = $2 WHERE id = $3
  `, StatusExported, exportedAt, payrollID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) MarkSent(ctx context.Context, payrollID string, sentAt time.Time) error {
	tag, err := s.DB.Exec(ctx, "UPDATE payrolls SET sent_at = $1 WHERE id = $2", sentAt, payrollID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) RegisterRows(ctx context.Context, period string) ([]RegisterRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT p.employee_id, e.first_name, e.last_name, p.gross_cents, p.total_deductions_cents, p.net_pay_cents, p.status
    FROM payrolls p
    JOIN employees e ON p.employee_id = e.id
    WHERE p.period = $1
    ORDER BY e.last_name, e.first_name
  `, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RegisterRow
	for rows.Next() {
		var row RegisterRow
		var gross, deductions, net int64
		if err := rows.Scan(&row.EmployeeID, &row.FirstName, &row.LastName, &gross, &deductions, &net, &row.Status); err != nil {
			return nil, err
		}
		row.Gross = money.FromCents(gross)
		row.TotalDeductions = money.FromCents(deductions)
		row.NetPay = money.FromCents(net)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) scanPayroll(row pgx.Row) (Payroll, error) {
	var p Payroll
	var gross, deductions, net int64
	err := row.Scan(&p.ID, &p.EmployeeID, &p.Period, &gross, &deductions, &net, &p.Status, &p.SentAt, &p.ExportedAt, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payroll{}, ErrNotFound
	}
	if err != nil {
		return Payroll{}, err
	}
	p.Gross = money.FromCents(gross)
	p.TotalDeductions = money.FromCents(deductions)
	p.NetPay = money.FromCents(net)
	return p, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
