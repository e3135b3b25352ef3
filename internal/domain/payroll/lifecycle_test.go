package payroll

import (
	"errors"
	"testing"
)

func TestLifecycleForwardPath(t *testing.T) {
	p := Payroll{Status: StatusPending}

	if err := Transition(&p, StatusProcessed); err != nil {
		t.Fatalf("pending -> processed should succeed: %v", err)
	}
	if err := Transition(&p, StatusPaid); err != nil {
		t.Fatalf("processed -> paid should succeed: %v", err)
	}
	if err := Transition(&p, StatusExported); err != nil {
		t.Fatalf("paid -> exported should succeed: %v", err)
	}
}

func TestLifecycleRejectsSkipsAndReversals(t *testing.T) {
	tests := []struct {
		from, to string
	}{
		{StatusPending, StatusPaid},
		{StatusPending, StatusExported},
		{StatusPaid, StatusPending},
		{StatusPaid, StatusProcessed},
		{StatusProcessed, StatusPending},
		{StatusExported, StatusPending},
		{StatusExported, StatusProcessed},
		{StatusExported, StatusPaid},
	}
	for _, tt := range tests {
		p := Payroll{Status: tt.from}
		err := Transition(&p, tt.to)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s -> %s: expected ErrInvalidTransition, got %v", tt.from, tt.to, err)
		}
		if p.Status != tt.from {
			t.Fatalf("%s -> %s: payroll mutated on rejected transition", tt.from, tt.to)
		}
	}
}

func TestLifecycleExportedFromProcessedOrPaid(t *testing.T) {
	if !CanTransition(StatusProcessed, StatusExported) {
		t.Fatal("processed -> exported should be allowed")
	}
	if !CanTransition(StatusPaid, StatusExported) {
		t.Fatal("paid -> exported should be allowed")
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	p := Payroll{Status: StatusPending}
	err := Transition(&p, "archived")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown status, got %v", err)
	}
}
