package payroll

import "fmt"

// Forward-only status transitions. Export branches off processed or
// paid and is terminal; everything else is rejected.
var transitions = map[string][]string{
	StatusPending:   {StatusProcessed},
	StatusProcessed: {StatusPaid, StatusExported},
	StatusPaid:      {StatusExported},
	StatusExported:  {},
}

func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusProcessed, StatusPaid, StatusExported:
		return true
	}
	return false
}

// Transition advances the payroll to the target status or returns
// ErrInvalidTransition leaving it unchanged.
func Transition(p *Payroll, target string) error {
	if !ValidStatus(target) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, target)
	}
	if !CanTransition(p.Status, target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, target)
	}
	p.Status = target
	return nil
}
