package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"payday/internal/domain/payroll"
	"payday/internal/payslip"
	"payday/internal/platform/metrics"
)

const (
	OutcomeSent        = "sent"
	OutcomeNoRecipient = "no_recipient"
)

var (
	ErrRenderFailed   = errors.New("payslip render failed")
	ErrDeliveryFailed = errors.New("payslip delivery failed")
)

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string, attachments []Attachment) error
}

// Store is the slice of the payroll store the dispatcher needs.
type Store interface {
	GetPayroll(ctx context.Context, payrollID string) (payroll.Payroll, error)
	GetEmployee(ctx context.Context, employeeID string) (payroll.Employee, error)
	MarkSent(ctx context.Context, payrollID string, sentAt time.Time) error
}

type Result struct {
	PayrollID string     `json:"payrollId"`
	Outcome   string     `json:"outcome"`
	Recipient string     `json:"recipient,omitempty"`
	SentAt    *time.Time `json:"sentAt,omitempty"`
}

// Dispatcher renders a payslip and delivers it to the employee's
// registered contact address. It runs inside the background job queue,
// never on the request path; the queue owns retries, so any returned
// error is retryable from its point of view.
type Dispatcher struct {
	store    Store
	renderer payslip.Renderer
	mailer   Mailer
	from     string
	metrics  *metrics.Collector
}

func New(store Store, renderer payslip.Renderer, mailer Mailer, from string, collector *metrics.Collector) *Dispatcher {
	return &Dispatcher{store: store, renderer: renderer, mailer: mailer, from: from, metrics: collector}
}

// Dispatch delivers the payslip for one payroll record.
//
// Delivery is at-least-once: the send and the sent_at stamp are not
// atomic, so a crash between them can lead to a duplicate send on
// retry. Payslip content is idempotent, so that is acceptable.
func (d *Dispatcher) Dispatch(ctx context.Context, payrollID string) (Result, error) {
	result := Result{PayrollID: payrollID}

	p, err := d.store.GetPayroll(ctx, payrollID)
	if err != nil {
		d.metrics.RecordDispatchFailure()
		return result, fmt.Errorf("load payroll %s: %w", payrollID, err)
	}
	employee, err := d.store.GetEmployee(ctx, p.EmployeeID)
	if err != nil {
		d.metrics.RecordDispatchFailure()
		return result, fmt.Errorf("load employee %s: %w", p.EmployeeID, err)
	}

	// No linked contact is a reported outcome, not an error: the
	// payroll record stands on its own for accounting.
	if employee.Email == "" {
		slog.Info("payslip dispatch skipped, no recipient", "payrollId", payrollID, "employeeId", employee.ID)
		d.metrics.RecordDispatchNoRecipient()
		result.Outcome = OutcomeNoRecipient
		return result, nil
	}

	document, err := d.renderer.Render(payslip.BuildModel(p, employee))
	if err != nil {
		d.metrics.RecordDispatchFailure()
		return result, fmt.Errorf("%w: payroll %s: %w", ErrRenderFailed, payrollID, err)
	}

	subject := fmt.Sprintf("Your payslip for %s", p.Period)
	body := fmt.Sprintf("Hi %s,\n\nYour payslip for %s is attached.\n", employee.FirstName, p.Period)
	attachment := Attachment{
		Filename:    fmt.Sprintf("payslip-%s.pdf", p.Period),
		ContentType: "application/pdf",
		Data:        document,
	}
	if err := d.mailer.Send(ctx, d.from, employee.Email, subject, body, []Attachment{attachment}); err != nil {
		d.metrics.RecordDispatchFailure()
		return result, fmt.Errorf("%w: payroll %s to %s: %w", ErrDeliveryFailed, payrollID, employee.Email, err)
	}

	now := time.Now().UTC()
	if err := d.store.MarkSent(ctx, payrollID, now); err != nil {
		// The document is already out; a retry re-sends rather than
		// losing the record of delivery entirely.
		return result, fmt.Errorf("payslip sent but sent_at stamp failed for %s: %w", payrollID, err)
	}

	d.metrics.RecordPayslipSent()
	result.Outcome = OutcomeSent
	result.Recipient = employee.Email
	result.SentAt = &now
	slog.Info("payslip dispatched", "payrollId", payrollID, "recipient", employee.Email)
	return result, nil
}
