// Package memory is a process-local storage backend. It implements the same
// repository interfaces as the postgresql package and is used for demos and
// end-to-end tests.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/user"
	"github.com/google/uuid"
)

// Store holds every table. A single lock serialises access; WithinTx holds it
// for the whole callback and restores a snapshot when the callback fails.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	companies    map[string]company.Company
	transactions []company.Transaction
	users        map[string]user.User
	employees    map[string]employee.Employee
	batches      map[string]payroll.Batch
	items        map[string]payroll.Item
}

func NewStore() *Store {
	return &Store{
		now:       time.Now,
		companies: make(map[string]company.Company),
		users:     make(map[string]user.User),
		employees: make(map[string]employee.Employee),
		batches:   make(map[string]payroll.Batch),
		items:     make(map[string]payroll.Item),
	}
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// lock acquires the store unless ctx already runs inside WithinTx.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type snapshot struct {
	companies    map[string]company.Company
	transactions []company.Transaction
	users        map[string]user.User
	employees    map[string]employee.Employee
	batches      map[string]payroll.Batch
	items        map[string]payroll.Item
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		companies:    maps.Clone(s.companies),
		transactions: append([]company.Transaction(nil), s.transactions...),
		users:        maps.Clone(s.users),
		employees:    maps.Clone(s.employees),
		batches:      maps.Clone(s.batches),
		items:        maps.Clone(s.items),
	}
}

func (s *Store) restore(snap snapshot) {
	s.companies = snap.companies
	s.transactions = snap.transactions
	s.users = snap.users
	s.employees = snap.employees
	s.batches = snap.batches
	s.items = snap.items
}

// WithinTx implements database.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
	}
	return err
}

// SetClock replaces the time source. Tests use it to age records.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func newID() string {
	return uuid.NewString()
}
