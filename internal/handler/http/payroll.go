package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-disbursement/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Batches
	CreateBatch(w http.ResponseWriter, r *http.Request)
	GetPendingBatch(w http.ResponseWriter, r *http.Request)
	GetBatch(w http.ResponseWriter, r *http.Request)
	ListItems(w http.ResponseWriter, r *http.Request)

	// Disbursement
	Transfer(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// ========== BATCHES ==========

func (h *payrollHandlerImpl) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.payrollService.CreateBatch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	slog.Info("Payroll batch created", "batch_id", result.ID, "total", result.TotalAmount.String())
	response.Created(w, "Payroll batch created", result)
}

// GetPendingBatch answers data null when the company has no active batch.
func (h *payrollHandlerImpl) GetPendingBatch(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.GetPendingBatch(r.Context(), r.URL.Query().Get("companyId"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GetBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Batch ID is required", nil)
		return
	}

	result, err := h.payrollService.GetBatch(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListItems(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Batch ID is required", nil)
		return
	}

	filter := payroll.ItemFilter{
		Page: queryInt(r, "page", 1),
		Size: queryInt(r, "size", 20),
		Sort: r.URL.Query().Get("sort"),
	}

	result, err := h.payrollService.ListItems(r.Context(), id, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Data, response.NewMeta(result.Page, result.Size, result.TotalCount))
}

// ========== DISBURSEMENT ==========

func (h *payrollHandlerImpl) Transfer(w http.ResponseWriter, r *http.Request) {
	var req payroll.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.payrollService.Transfer(r.Context(), req)
	if err != nil {
		slog.Warn("Payroll transfer rejected", "error", err)
		response.HandleError(w, err)
		return
	}

	slog.Info("Payroll transfer finished",
		"batch_id", result.BatchID,
		"status", result.BatchStatus,
		"transferred", result.TotalTransferred.String(),
		"failed", result.TotalFailed,
	)
	response.Success(w, result)
}
