package metrics

import (
	"sync/atomic"
	"time"
)

// Collector tracks process-wide counters. Everything is atomic; a
// snapshot is a consistent-enough read for an operator endpoint.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	totalDurationMs uint64

	payrollRuns      uint64
	membersProcessed uint64

	payslipsSent        uint64
	dispatchNoRecipient uint64
	dispatchFailures    uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RecordRun(members int) {
	atomic.AddUint64(&c.payrollRuns, 1)
	atomic.AddUint64(&c.membersProcessed, uint64(members))
}

func (c *Collector) RecordPayslipSent() {
	atomic.AddUint64(&c.payslipsSent, 1)
}

func (c *Collector) RecordDispatchNoRecipient() {
	atomic.AddUint64(&c.dispatchNoRecipient, 1)
}

func (c *Collector) RecordDispatchFailure() {
	atomic.AddUint64(&c.dispatchFailures, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":            total,
		"errorsTotal":              atomic.LoadUint64(&c.errorRequests),
		"avgDurationMs":            avg,
		"payrollRunsTotal":         atomic.LoadUint64(&c.payrollRuns),
		"payrollMembersProcessed":  atomic.LoadUint64(&c.membersProcessed),
		"payslipsSentTotal":        atomic.LoadUint64(&c.payslipsSent),
		"dispatchNoRecipientTotal": atomic.LoadUint64(&c.dispatchNoRecipient),
		"dispatchFailuresTotal":    atomic.LoadUint64(&c.dispatchFailures),
	}
}
