package store

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ActiveBatchTracking(t *testing.T) {
	s := New()

	s.PutBatch(payroll.BatchResponse{ID: "b-1", CompanyID: "c-1", Status: string(payroll.BatchStatusPending)})
	b, ok := s.ActiveBatch("c-1")
	require.True(t, ok)
	assert.Equal(t, "b-1", b.ID)

	s.PutBatch(payroll.BatchResponse{ID: "b-1", CompanyID: "c-1", Status: string(payroll.BatchStatusCompleted)})
	_, ok = s.ActiveBatch("c-1")
	assert.False(t, ok)

	_, ok = s.Batch("b-1")
	assert.True(t, ok)
}

func TestStore_EmployeesLoadedFlag(t *testing.T) {
	s := New()

	_, ok := s.Employees()
	assert.False(t, ok)

	s.ReplaceEmployees([]employee.EmployeeResponse{{ID: "e-2", Code: "0002"}, {ID: "e-1", Code: "0001"}})
	list, ok := s.Employees()
	require.True(t, ok)
	require.Len(t, list, 2)
	assert.Equal(t, "0001", list[0].Code)

	s.Invalidate(KindEmployees, "")
	_, ok = s.Employees()
	assert.False(t, ok)
}

func TestStore_InvalidateAccount(t *testing.T) {
	s := New()
	s.PutAccount(company.AccountResponse{CompanyID: "c-1", CurrentBalance: decimal.NewFromInt(10)})

	s.Invalidate(KindAccount, "c-1")
	_, ok := s.Account("c-1")
	assert.False(t, ok)
}

func TestStore_Subscribe(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	events := s.Subscribe(ctx)

	s.PutAccount(company.AccountResponse{CompanyID: "c-1"})
	s.ClearActiveBatch("c-unknown")
	s.PutBatch(payroll.BatchResponse{ID: "b-1", CompanyID: "c-1", Status: string(payroll.BatchStatusPending)})

	select {
	case ev := <-events:
		assert.Equal(t, Event{Kind: KindAccount, ID: "c-1"}, ev)
	case <-time.After(time.Second):
		t.Fatal("no account event")
	}
	select {
	case ev := <-events:
		assert.Equal(t, Event{Kind: KindBatch, ID: "b-1"}, ev)
	case <-time.After(time.Second):
		t.Fatal("no batch event")
	}

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-events
		return !open
	}, time.Second, 10*time.Millisecond)
}
