package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-disbursement/internal/handler/http/response"
)

type CompanyHandler interface {
	GetAccount(w http.ResponseWriter, r *http.Request)
	TopUp(w http.ResponseWriter, r *http.Request)
	ListTransactions(w http.ResponseWriter, r *http.Request)
}

type CompanyHandlerImpl struct {
	companyService company.CompanyService
}

func NewCompanyHandler(companyService company.CompanyService) CompanyHandler {
	return &CompanyHandlerImpl{companyService: companyService}
}

// GetAccount implements CompanyHandler.
func (c *CompanyHandlerImpl) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := c.companyService.GetAccount(r.Context(), r.URL.Query().Get("companyId"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, account)
}

// TopUp implements CompanyHandler.
func (c *CompanyHandlerImpl) TopUp(w http.ResponseWriter, r *http.Request) {
	var req company.TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	req.RequestID = middleware.RequestIDFromContext(r.Context())

	account, err := c.companyService.TopUp(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	slog.Info("Company top-up", "company_id", account.CompanyID, "amount", req.Amount.String(), "balance", account.CurrentBalance.String())
	response.SuccessWithMessage(w, "Top-up successful", account)
}

// ListTransactions implements CompanyHandler.
func (c *CompanyHandlerImpl) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter := company.TransactionFilter{
		Page: queryInt(r, "page", 1),
		Size: queryInt(r, "size", 20),
	}

	result, err := c.companyService.ListTransactions(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Data, response.NewMeta(result.Page, result.Size, result.TotalCount))
}
