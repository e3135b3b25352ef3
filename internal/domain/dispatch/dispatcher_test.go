package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payday/internal/domain/payroll"
	"payday/internal/money"
	"payday/internal/payslip"
	"payday/internal/platform/metrics"
)

type fakeStore struct {
	payrolls  map[string]payroll.Payroll
	employees map[string]payroll.Employee
	sentAt    map[string]time.Time
	markErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		payrolls:  map[string]payroll.Payroll{},
		employees: map[string]payroll.Employee{},
		sentAt:    map[string]time.Time{},
	}
}

func (s *fakeStore) GetPayroll(ctx context.Context, payrollID string) (payroll.Payroll, error) {
	p, ok := s.payrolls[payrollID]
	if !ok {
		return payroll.Payroll{}, payroll.ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) GetEmployee(ctx context.Context, employeeID string) (payroll.Employee, error) {
	e, ok := s.employees[employeeID]
	if !ok {
		return payroll.Employee{}, payroll.ErrEmployeeNotFound
	}
	return e, nil
}

func (s *fakeStore) MarkSent(ctx context.Context, payrollID string, sentAt time.Time) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.sentAt[payrollID] = sentAt
	return nil
}

type fakeMailer struct {
	sends    int
	failures int
	lastTo   string
	lastAtt  []Attachment
}

func (m *fakeMailer) Send(ctx context.Context, from, to, subject, body string, attachments []Attachment) error {
	if m.failures > 0 {
		m.failures--
		return errors.New("smtp connection refused")
	}
	m.sends++
	m.lastTo = to
	m.lastAtt = attachments
	return nil
}

func seed(s *fakeStore, status, email string) payroll.Payroll {
	p := payroll.Payroll{
		ID:              "pr-1",
		EmployeeID:      "emp-1",
		Period:          "2025-06",
		Gross:           money.FromCents(55000),
		TotalDeductions: money.FromCents(7500),
		NetPay:          money.FromCents(47500),
		Status:          status,
	}
	s.payrolls[p.ID] = p
	s.employees["emp-1"] = payroll.Employee{
		ID: "emp-1", FirstName: "Mira", LastName: "Kovacs",
		Email: email, Kind: payroll.EmployeeKindEmployee, Status: payroll.EmployeeStatusActive,
	}
	return p
}

func TestDispatchSendsAndStampsSentAt(t *testing.T) {
	store := newFakeStore()
	seed(store, payroll.StatusProcessed, "mira@example.com")
	mailer := &fakeMailer{}
	d := New(store, payslip.NewPDFRenderer(), mailer, "payroll@example.com", metrics.New())

	result, err := d.Dispatch(context.Background(), "pr-1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeSent, result.Outcome)
	assert.Equal(t, "mira@example.com", result.Recipient)
	require.NotNil(t, result.SentAt)
	assert.Equal(t, 1, mailer.sends)
	require.Len(t, mailer.lastAtt, 1)
	assert.Equal(t, "application/pdf", mailer.lastAtt[0].ContentType)

	stamped, ok := store.sentAt["pr-1"]
	require.True(t, ok)
	assert.Equal(t, *result.SentAt, stamped)
}

func TestDispatchNoRecipientIsReportedNotFailed(t *testing.T) {
	store := newFakeStore()
	seed(store, payroll.StatusProcessed, "")
	mailer := &fakeMailer{}
	d := New(store, payslip.NewPDFRenderer(), mailer, "payroll@example.com", metrics.New())

	result, err := d.Dispatch(context.Background(), "pr-1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoRecipient, result.Outcome)
	assert.Nil(t, result.SentAt)
	assert.Zero(t, mailer.sends)
	_, stamped := store.sentAt["pr-1"]
	assert.False(t, stamped, "no_recipient must not stamp sent_at")
}

func TestDispatchPendingPayrollIsRenderFailure(t *testing.T) {
	store := newFakeStore()
	seed(store, payroll.StatusPending, "mira@example.com")
	mailer := &fakeMailer{}
	d := New(store, payslip.NewPDFRenderer(), mailer, "payroll@example.com", metrics.New())

	_, err := d.Dispatch(context.Background(), "pr-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRenderFailed)
	assert.ErrorIs(t, err, payroll.ErrNotReady)
	assert.Zero(t, mailer.sends)
}

func TestDispatchDeliveryFailureIsRetryable(t *testing.T) {
	store := newFakeStore()
	seed(store, payroll.StatusProcessed, "mira@example.com")
	mailer := &fakeMailer{failures: 1}
	d := New(store, payslip.NewPDFRenderer(), mailer, "payroll@example.com", metrics.New())

	_, err := d.Dispatch(context.Background(), "pr-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	_, stamped := store.sentAt["pr-1"]
	assert.False(t, stamped)

	// A retry after the transient failure succeeds and stamps.
	result, err := d.Dispatch(context.Background(), "pr-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, result.Outcome)
	_, stamped = store.sentAt["pr-1"]
	assert.True(t, stamped)
}

func TestDispatchStampFailureSurfacesAfterSend(t *testing.T) {
	store := newFakeStore()
	seed(store, payroll.StatusProcessed, "mira@example.com")
	store.markErr = errors.New("connection reset")
	mailer := &fakeMailer{}
	d := New(store, payslip.NewPDFRenderer(), mailer, "payroll@example.com", metrics.New())

	_, err := d.Dispatch(context.Background(), "pr-1")
	require.Error(t, err)
	assert.Equal(t, 1, mailer.sends, "mail goes out even though the stamp failed")
}

func TestDispatchUnknownPayroll(t *testing.T) {
	store := newFakeStore()
	d := New(store, payslip.NewPDFRenderer(), &fakeMailer{}, "payroll@example.com", metrics.New())

	_, err := d.Dispatch(context.Background(), "nope")
	assert.ErrorIs(t, err, payroll.ErrNotFound)
}
