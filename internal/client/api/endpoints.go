package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cmlabs-hris/payroll-disbursement/internal/client/session"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/auth"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
)

func pageQuery(page, size int, sort string) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}
	if sort != "" {
		q.Set("sort", sort)
	}
	return q
}

func newPage[T any](items []T, meta *Meta) Page[T] {
	p := Page[T]{Items: items}
	if meta != nil {
		p.Meta = *meta
	}
	return p
}

// ========== AUTH ==========

// Login signs in and stores the new session with the user's profile.
func (c *Client) Login(ctx context.Context, username, password string) (session.Session, error) {
	var token auth.TokenResponse
	if _, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   auth.LoginRequest{Username: username, Password: password},
		anon:   true,
	}, &token); err != nil {
		return session.Session{}, err
	}

	s := session.Session{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   time.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}
	if err := c.sessions.Save(ctx, s); err != nil {
		return session.Session{}, err
	}

	me, err := c.Me(ctx)
	if err != nil {
		return session.Session{}, err
	}
	s.UserID = me.User.ID
	s.Username = me.User.Username
	s.Role = me.User.Role
	s.CompanyID = me.User.CompanyID
	s.AccountNumber = me.Account.AccountNumber
	if err := c.sessions.Save(ctx, s); err != nil {
		return session.Session{}, err
	}
	return s, nil
}

func (c *Client) Me(ctx context.Context) (auth.MeResponse, error) {
	var me auth.MeResponse
	_, err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me"}, &me)
	return me, err
}

// Logout revokes the token server side and always drops the local session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/auth/logout"}, nil)
	if clearErr := c.sessions.Clear(ctx); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

// ========== EMPLOYEES ==========

func (c *Client) ListEmployees(ctx context.Context, page, size int, sort string) (Page[employee.EmployeeResponse], error) {
	var items []employee.EmployeeResponse
	meta, err := c.do(ctx, request{method: http.MethodGet, path: "/employees", query: pageQuery(page, size, sort)}, &items)
	if err != nil {
		return Page[employee.EmployeeResponse]{}, err
	}
	return newPage(items, meta), nil
}

func (c *Client) GetEmployee(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	var e employee.EmployeeResponse
	_, err := c.do(ctx, request{method: http.MethodGet, path: "/employees/" + url.PathEscape(id)}, &e)
	return e, err
}

func (c *Client) CreateEmployee(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	var e employee.EmployeeResponse
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/employees", body: req}, &e)
	return e, err
}

func (c *Client) UpdateEmployee(ctx context.Context, id string, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	var e employee.EmployeeResponse
	_, err := c.do(ctx, request{method: http.MethodPut, path: "/employees/" + url.PathEscape(id), body: req}, &e)
	return e, err
}

func (c *Client) DeleteEmployee(ctx context.Context, id string) error {
	_, err := c.do(ctx, request{method: http.MethodDelete, path: "/employees/" + url.PathEscape(id)}, nil)
	return err
}

// ========== COMPANY ==========

func (c *Client) GetAccount(ctx context.Context, companyID string) (company.AccountResponse, error) {
	q := url.Values{}
	if companyID != "" {
		q.Set("companyId", companyID)
	}
	var a company.AccountResponse
	_, err := c.do(ctx, request{method: http.MethodGet, path: "/company/account", query: q}, &a)
	return a, err
}

func (c *Client) TopUp(ctx context.Context, req company.TopUpRequest) (company.AccountResponse, error) {
	var a company.AccountResponse
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/company/topup", body: req}, &a)
	return a, err
}

func (c *Client) ListTransactions(ctx context.Context, page, size int) (Page[company.TransactionResponse], error) {
	var items []company.TransactionResponse
	meta, err := c.do(ctx, request{method: http.MethodGet, path: "/company/transactions", query: pageQuery(page, size, "")}, &items)
	if err != nil {
		return Page[company.TransactionResponse]{}, err
	}
	return newPage(items, meta), nil
}

// ========== PAYROLL ==========

func (c *Client) CreateBatch(ctx context.Context, req payroll.CreateBatchRequest) (payroll.BatchResponse, error) {
	var b payroll.BatchResponse
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/payroll/batches", body: req}, &b)
	return b, err
}

// PendingBatch returns nil when the company has no active batch.
func (c *Client) PendingBatch(ctx context.Context, companyID string) (*payroll.BatchResponse, error) {
	q := url.Values{}
	if companyID != "" {
		q.Set("companyId", companyID)
	}
	var b *payroll.BatchResponse
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/payroll/batches/pending", query: q}, &b); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Client) GetBatch(ctx context.Context, id string) (payroll.BatchResponse, error) {
	var b payroll.BatchResponse
	_, err := c.do(ctx, request{method: http.MethodGet, path: "/payroll/batches/" + url.PathEscape(id)}, &b)
	return b, err
}

func (c *Client) ListBatchItems(ctx context.Context, batchID string, page, size int, sort string) (Page[payroll.ItemResponse], error) {
	var items []payroll.ItemResponse
	meta, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/payroll/batches/%s/items", url.PathEscape(batchID)),
		query:  pageQuery(page, size, sort),
	}, &items)
	if err != nil {
		return Page[payroll.ItemResponse]{}, err
	}
	return newPage(items, meta), nil
}

func (c *Client) Transfer(ctx context.Context, req payroll.TransferRequest) (payroll.TransferResponse, error) {
	var r payroll.TransferResponse
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/payroll/transfer", body: req}, &r)
	return r, err
}
