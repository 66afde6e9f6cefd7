// Package store is the client's single in-process copy of company, batch and
// employee state. Writers replace or invalidate entries after every mutating
// call; readers get copies and may subscribe to change events.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
)

type Kind string

const (
	KindAccount   Kind = "account"
	KindBatch     Kind = "batch"
	KindEmployees Kind = "employees"
)

// Event tells subscribers an entry changed. ID is empty when a whole kind was
// replaced or dropped.
type Event struct {
	Kind    Kind
	ID      string
	Removed bool
}

const subscriberBuffer = 16

type Store struct {
	mu              sync.RWMutex
	accounts        map[string]company.AccountResponse   // by company id
	batches         map[string]payroll.BatchResponse     // by batch id
	active          map[string]string                    // company id -> batch id
	employees       map[string]employee.EmployeeResponse // by employee id
	employeesLoaded bool

	subMu sync.Mutex
	subs  map[chan Event]struct{}
}

func New() *Store {
	return &Store{
		accounts:  make(map[string]company.AccountResponse),
		batches:   make(map[string]payroll.BatchResponse),
		active:    make(map[string]string),
		employees: make(map[string]employee.EmployeeResponse),
		subs:      make(map[chan Event]struct{}),
	}
}

// ========== ACCOUNTS ==========

func (s *Store) PutAccount(a company.AccountResponse) {
	s.mu.Lock()
	s.accounts[a.CompanyID] = a
	s.mu.Unlock()
	s.publish(Event{Kind: KindAccount, ID: a.CompanyID})
}

func (s *Store) Account(companyID string) (company.AccountResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[companyID]
	return a, ok
}

// ========== BATCHES ==========

// PutBatch stores b and tracks it as its company's active batch while its
// status is active.
func (s *Store) PutBatch(b payroll.BatchResponse) {
	s.mu.Lock()
	s.batches[b.ID] = b
	if payroll.BatchStatus(b.Status).IsActive() {
		s.active[b.CompanyID] = b.ID
	} else if s.active[b.CompanyID] == b.ID {
		delete(s.active, b.CompanyID)
	}
	s.mu.Unlock()
	s.publish(Event{Kind: KindBatch, ID: b.ID})
}

func (s *Store) Batch(id string) (payroll.BatchResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[id]
	return b, ok
}

func (s *Store) ActiveBatch(companyID string) (payroll.BatchResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.active[companyID]
	if !ok {
		return payroll.BatchResponse{}, false
	}
	b, ok := s.batches[id]
	return b, ok
}

// ClearActiveBatch forgets the company's active batch after the service
// reported none.
func (s *Store) ClearActiveBatch(companyID string) {
	s.mu.Lock()
	id, ok := s.active[companyID]
	delete(s.active, companyID)
	s.mu.Unlock()
	if ok {
		s.publish(Event{Kind: KindBatch, ID: id, Removed: true})
	}
}

// ========== EMPLOYEES ==========

// ReplaceEmployees swaps in a freshly loaded roster.
func (s *Store) ReplaceEmployees(list []employee.EmployeeResponse) {
	s.mu.Lock()
	s.employees = make(map[string]employee.EmployeeResponse, len(list))
	for _, e := range list {
		s.employees[e.ID] = e
	}
	s.employeesLoaded = true
	s.mu.Unlock()
	s.publish(Event{Kind: KindEmployees})
}

// Employees returns the roster ordered by code, and false when it was never
// loaded or has been invalidated.
func (s *Store) Employees() ([]employee.EmployeeResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.employeesLoaded {
		return nil, false
	}
	out := make([]employee.EmployeeResponse, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, true
}

func (s *Store) Employee(id string) (employee.EmployeeResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	return e, ok
}

// ========== INVALIDATION ==========

// Invalidate drops one entry, or every entry of kind when id is empty.
func (s *Store) Invalidate(kind Kind, id string) {
	s.mu.Lock()
	switch kind {
	case KindAccount:
		if id == "" {
			s.accounts = make(map[string]company.AccountResponse)
		} else {
			delete(s.accounts, id)
		}
	case KindBatch:
		if id == "" {
			s.batches = make(map[string]payroll.BatchResponse)
			s.active = make(map[string]string)
		} else {
			if b, ok := s.batches[id]; ok && s.active[b.CompanyID] == id {
				delete(s.active, b.CompanyID)
			}
			delete(s.batches, id)
		}
	case KindEmployees:
		s.employees = make(map[string]employee.EmployeeResponse)
		s.employeesLoaded = false
		id = ""
	}
	s.mu.Unlock()
	s.publish(Event{Kind: kind, ID: id, Removed: true})
}

// Subscribe streams change events until ctx is done. Slow subscribers miss
// events rather than block writers.
func (s *Store) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subMu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.subMu.Unlock()
	}()
	return ch
}

func (s *Store) publish(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
