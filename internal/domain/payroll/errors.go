package payroll

import "errors"

var (
	ErrNotFound          = errors.New("payroll record not found")
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrAlreadyRun        = errors.New("payroll already exists for employee and period")
	ErrInvalidTransition = errors.New("invalid payroll status transition")
	ErrNotReady          = errors.New("payroll is not finalized")
	ErrValidation        = errors.New("validation failed")
)
