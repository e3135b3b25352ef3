package payroll

const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusPaid      = "paid"
	StatusExported  = "exported"

	CohortEmployees = "employees"
	CohortInterns   = "interns"

	EmployeeKindEmployee = "employee"
	EmployeeKindIntern   = "intern"

	EmployeeStatusActive   = "active"
	EmployeeStatusInactive = "inactive"

	LineKindEarning   = "earning"
	LineKindDeduction = "deduction"

	DeductionKindFixed      = "fixed"
	DeductionKindPercentage = "percentage"

	OutcomeCreated    = "created"
	OutcomeAlreadyRun = "already_run"
	OutcomeFailed     = "failed"

	WarningNoRecipient = "no_recipient"
)
