package payrollhandler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"payday/internal/domain/audit"
	"payday/internal/domain/dispatch"
	"payday/internal/domain/payroll"
	"payday/internal/money"
	"payday/internal/payslip"
	"payday/internal/platform/jobs"
	"payday/internal/platform/metrics"
	"payday/internal/transport/http/api"
	"payday/internal/transport/http/middleware"
	"payday/internal/transport/http/shared"
)

type Handler struct {
	Service    *payroll.Service
	Renderer   payslip.Renderer
	Cache      *payslip.Cache
	Dispatcher *dispatch.Dispatcher
	Jobs       *jobs.Service
	Audit      *audit.Service
	Metrics    *metrics.Collector
}

func NewHandler(service *payroll.Service, renderer payslip.Renderer, cache *payslip.Cache, dispatcher *dispatch.Dispatcher, jobsService *jobs.Service, auditService *audit.Service, collector *metrics.Collector) *Handler {
	return &Handler{
		Service:    service,
		Renderer:   renderer,
		Cache:      cache,
		Dispatcher: dispatcher,
		Jobs:       jobsService,
		Audit:      auditService,
		Metrics:    collector,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Post("/runs", h.handleRun)
		r.Get("/preview", h.handlePreview)
		r.Get("/records", h.handleListRecords)
		r.Get("/records/{payrollID}", h.handleGetRecord)
		r.Post("/records/{payrollID}/status", h.handleUpdateStatus)
		r.Post("/records/{payrollID}/export", h.handleExport)
		r.Get("/records/{payrollID}/payslip", h.handleDownloadPayslip)
		r.Post("/records/{payrollID}/email", h.handleEmailPayslip)
		r.Get("/periods/{period}/register.csv", h.handleRegister)

		r.Get("/employees/{employeeID}/payslips", h.handleEmployeePayslips)
		r.Get("/components", h.handleListComponents)
		r.Post("/components", h.handleCreateComponent)
		r.Patch("/components/{componentID}", h.handleSetComponentActive)

		r.Get("/deductions", h.handleListDeductions)
		r.Post("/deductions", h.handleCreateDeduction)
		r.Patch("/deductions/{deductionID}", h.handleSetDeductionActive)
	})
}

type runPayload struct {
	Period string `json:"period"`
	Cohort string `json:"cohort"`
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload runPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if payload.Cohort == "" {
		payload.Cohort = payroll.CohortEmployees
	}

	report, err := h.Service.Run(r.Context(), payload.Period, payload.Cohort)
	if err != nil {
		h.fail(w, r, err, "payroll_run_failed", "failed to run payroll")
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordRun(len(report.Members))
	}
	h.record(r, audit.ActionPayrollRun, "payroll_run", payload.Period, map[string]any{
		"cohort":  payload.Cohort,
		"created": report.Created,
		"skipped": report.Skipped,
		"failed":  report.Failed,
	})
	api.Success(w, report, reqID)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	period := r.URL.Query().Get("period")
	employeeID := r.URL.Query().Get("employeeId")

	breakdown, err := h.Service.Preview(r.Context(), period, employeeID)
	if err != nil {
		h.fail(w, r, err, "payroll_preview_failed", "failed to preview payroll")
		return
	}
	api.Success(w, breakdown, reqID)
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	filter := payroll.Filter{
		Period:     r.URL.Query().Get("period"),
		EmployeeID: r.URL.Query().Get("employeeId"),
		Status:     r.URL.Query().Get("status"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}

	records, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err, "payroll_list_failed", "failed to list payrolls")
		return
	}
	if records == nil {
		records = []payroll.Payroll{}
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Get(r.Context(), chi.URLParam(r, "payrollID"))
	if err != nil {
		h.fail(w, r, err, "payroll_get_failed", "failed to load payroll")
		return
	}
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

type statusPayload struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	payrollID := chi.URLParam(r, "payrollID")
	var payload statusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	p, err := h.Service.UpdateStatus(r.Context(), payrollID, payload.Status)
	if err != nil {
		h.fail(w, r, err, "payroll_status_failed", "failed to update payroll status")
		return
	}

	h.record(r, audit.ActionStatusChange, "payroll", payrollID, map[string]string{"status": payload.Status})
	api.Success(w, p, reqID)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	payrollID := chi.URLParam(r, "payrollID")
	receipt, err := h.Service.Export(r.Context(), payrollID)
	if err != nil {
		h.fail(w, r, err, "payroll_export_failed", "failed to export payroll")
		return
	}

	h.record(r, audit.ActionExport, "payroll", payrollID, receipt)
	api.Success(w, receipt, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDownloadPayslip(w http.ResponseWriter, r *http.Request) {
	payrollID := chi.URLParam(r, "payrollID")
	p, err := h.Service.Get(r.Context(), payrollID)
	if err != nil {
		h.fail(w, r, err, "payslip_get_failed", "failed to load payroll")
		return
	}

	document, err := h.payslipFor(r.Context(), p)
	if err != nil {
		h.fail(w, r, err, "payslip_render_failed", "failed to render payslip")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payslip-%s.pdf", p.Period))
	if _, err := w.Write(document); err != nil {
		slog.Warn("payslip write failed", "payrollId", payrollID, "err", err)
	}
}

func (h *Handler) handleEmailPayslip(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	payrollID := chi.URLParam(r, "payrollID")

	// Validate existence and readiness up front so the caller gets a
	// synchronous error instead of a dead-lettered job.
	p, err := h.Service.Get(r.Context(), payrollID)
	if err != nil {
		h.fail(w, r, err, "payslip_email_failed", "failed to load payroll")
		return
	}
	if p.Status == payroll.StatusPending {
		h.fail(w, r, payroll.ErrNotReady, "payslip_email_failed", "payroll is still pending")
		return
	}

	h.Jobs.Enqueue(jobs.JobPayslipEmail, func(ctx context.Context) (any, error) {
		return h.Dispatcher.Dispatch(ctx, payrollID)
	})

	h.record(r, audit.ActionPayslipEmail, "payroll", payrollID, nil)
	api.WriteJSON(w, http.StatusAccepted, api.Envelope{
		Success:   true,
		Data:      map[string]string{"status": "queued"},
		RequestID: reqID,
	})
}

func (h *Handler) handleEmployeePayslips(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	records, err := h.Service.ListForEmployee(r.Context(), employeeID)
	if err != nil {
		h.fail(w, r, err, "payslip_list_failed", "failed to list payslips")
		return
	}

	// Pending payrolls have no payslip yet and stay out of the feed.
	slips := make([]payroll.Payroll, 0, len(records))
	for _, p := range records {
		if p.Status != payroll.StatusPending {
			slips = append(slips, p)
		}
	}
	api.Success(w, slips, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	period := chi.URLParam(r, "period")
	rows, err := h.Service.Register(r.Context(), period)
	if err != nil {
		h.fail(w, r, err, "register_failed", "failed to build payroll register")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payroll-register-%s.csv", period))
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"employee_id", "first_name", "last_name", "gross", "deductions", "net", "status"}); err != nil {
		slog.Warn("register header write failed", "err", err)
	}
	for _, row := range rows {
		record := []string{
			row.EmployeeID,
			row.FirstName,
			row.LastName,
			row.Gross.String(),
			row.TotalDeductions.String(),
			row.NetPay.String(),
			row.Status,
		}
		if err := writer.Write(record); err != nil {
			slog.Warn("register row write failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("register flush failed", "err", err)
	}
}

type componentPayload struct {
	EmployeeID  string `json:"employeeId"`
	Name        string `json:"name"`
	AmountCents int64  `json:"amountCents"`
	Position    int    `json:"position"`
}

func (h *Handler) handleListComponents(w http.ResponseWriter, r *http.Request) {
	components, err := h.Service.ListComponents(r.Context(), r.URL.Query().Get("employeeId"))
	if err != nil {
		h.fail(w, r, err, "components_list_failed", "failed to list salary components")
		return
	}
	if components == nil {
		components = []payroll.SalaryComponent{}
	}
	api.Success(w, components, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateComponent(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload componentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	component := payroll.SalaryComponent{
		EmployeeID: payload.EmployeeID,
		Name:       payload.Name,
		Amount:     money.FromCents(payload.AmountCents),
		Active:     true,
		Position:   payload.Position,
	}
	id, err := h.Service.CreateComponent(r.Context(), component)
	if err != nil {
		h.fail(w, r, err, "component_create_failed", "failed to create salary component")
		return
	}

	h.record(r, audit.ActionCatalogChange, "salary_component", id, payload)
	api.Created(w, map[string]string{"id": id}, reqID)
}

type activePayload struct {
	Active bool `json:"active"`
}

func (h *Handler) handleSetComponentActive(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	componentID := chi.URLParam(r, "componentID")
	var payload activePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if err := h.Service.SetComponentActive(r.Context(), componentID, payload.Active); err != nil {
		h.fail(w, r, err, "component_update_failed", "failed to update salary component")
		return
	}
	h.record(r, audit.ActionCatalogChange, "salary_component", componentID, payload)
	api.Success(w, map[string]bool{"active": payload.Active}, reqID)
}

type deductionPayload struct {
	EmployeeID  string `json:"employeeId"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	AmountCents int64  `json:"amountCents"`
	Rate        string `json:"rate"`
	Position    int    `json:"position"`
}

func (h *Handler) handleListDeductions(w http.ResponseWriter, r *http.Request) {
	deductions, err := h.Service.ListDeductions(r.Context(), r.URL.Query().Get("employeeId"))
	if err != nil {
		h.fail(w, r, err, "deductions_list_failed", "failed to list deductions")
		return
	}
	if deductions == nil {
		deductions = []payroll.Deduction{}
	}
	api.Success(w, deductions, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDeduction(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload deductionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	deduction := payroll.Deduction{
		EmployeeID: payload.EmployeeID,
		Name:       payload.Name,
		Kind:       payload.Kind,
		Amount:     money.FromCents(payload.AmountCents),
		Active:     true,
		Position:   payload.Position,
	}
	if strings.TrimSpace(payload.Rate) != "" {
		rate, err := decimal.NewFromString(payload.Rate)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid deduction rate", reqID)
			return
		}
		deduction.Rate = rate
	}

	id, err := h.Service.CreateDeduction(r.Context(), deduction)
	if err != nil {
		h.fail(w, r, err, "deduction_create_failed", "failed to create deduction")
		return
	}

	h.record(r, audit.ActionCatalogChange, "deduction", id, payload)
	api.Created(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) handleSetDeductionActive(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	deductionID := chi.URLParam(r, "deductionID")
	var payload activePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if err := h.Service.SetDeductionActive(r.Context(), deductionID, payload.Active); err != nil {
		h.fail(w, r, err, "deduction_update_failed", "failed to update deduction")
		return
	}
	h.record(r, audit.ActionCatalogChange, "deduction", deductionID, payload)
	api.Success(w, map[string]bool{"active": payload.Active}, reqID)
}

// payslipFor serves the cached artifact when one exists and renders and
// caches otherwise. Cache failures degrade to rendering fresh.
func (h *Handler) payslipFor(ctx context.Context, p payroll.Payroll) ([]byte, error) {
	if h.Cache != nil {
		if document, ok, err := h.Cache.Get(p.ID); err == nil && ok {
			return document, nil
		} else if err != nil {
			slog.Warn("payslip cache read failed", "payrollId", p.ID, "err", err)
		}
	}

	employee, err := h.Service.Employee(ctx, p.EmployeeID)
	if err != nil {
		return nil, err
	}
	document, err := h.Renderer.Render(payslip.BuildModel(p, employee))
	if err != nil {
		return nil, err
	}
	if h.Cache != nil {
		if err := h.Cache.Put(p.ID, document); err != nil {
			slog.Warn("payslip cache write failed", "payrollId", p.ID, "err", err)
		}
	}
	return document, nil
}

func (h *Handler) record(r *http.Request, action, entityType, entityID string, details any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), action, entityType, entityID, middleware.GetRequestID(r.Context()), details); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payroll.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), reqID)
	case errors.Is(err, payroll.ErrNotFound), errors.Is(err, payroll.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, payroll.ErrAlreadyRun):
		api.Fail(w, http.StatusConflict, "already_run", err.Error(), reqID)
	case errors.Is(err, payroll.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "invalid_transition", err.Error(), reqID)
	case errors.Is(err, payroll.ErrNotReady):
		api.Fail(w, http.StatusConflict, "not_ready", err.Error(), reqID)
	default:
		slog.Error("payroll handler error", "code", code, "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}
