package facts

import (
	"context"
	"sync"

	"github.com/munitrack/munitrack/pkg/budget"
)

// RepositoryStub is an in-memory Repository with failure injection and call counting, for tests.
type RepositoryStub struct {
	mu                sync.Mutex
	allocations       []budget.BudgetAllocation
	executions        []budget.MonthlyExecution
	allocationFailure func(query budget.AllocationQuery) error
	executionFailure  func(query budget.ExecutionQuery) error
	allocationCalls   int
	executionCalls    int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{}
}

func (s *RepositoryStub) AddAllocations(allocations ...budget.BudgetAllocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocations = append(s.allocations, allocations...)
}

func (s *RepositoryStub) AddExecutions(executions ...budget.MonthlyExecution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions = append(s.executions, executions...)
}

// FailAllocationsWhen makes FetchAllocations return the error produced by fn, when not nil.
func (s *RepositoryStub) FailAllocationsWhen(fn func(query budget.AllocationQuery) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocationFailure = fn
}

// FailExecutionsWhen makes FetchExecutions return the error produced by fn, when not nil.
func (s *RepositoryStub) FailExecutionsWhen(fn func(query budget.ExecutionQuery) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executionFailure = fn
}

func (s *RepositoryStub) Calls() (allocations int, executions int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allocationCalls, s.executionCalls
}

func (s *RepositoryStub) FetchAllocations(ctx context.Context, query budget.AllocationQuery) ([]budget.BudgetAllocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocationCalls++
	if s.allocationFailure != nil {
		if err := s.allocationFailure(query); err != nil {
			return nil, err
		}
	}
	result := make([]budget.BudgetAllocation, 0)
	for _, a := range s.allocations {
		if a.Year != query.Year {
			continue
		}
		if query.Unit != nil && a.UnitCode != *query.Unit {
			continue
		}
		if !query.Classifier.Matches(a.ClassifierCode) {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

func (s *RepositoryStub) FetchExecutions(ctx context.Context, query budget.ExecutionQuery) ([]budget.MonthlyExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executionCalls++
	if s.executionFailure != nil {
		if err := s.executionFailure(query); err != nil {
			return nil, err
		}
	}
	result := make([]budget.MonthlyExecution, 0)
	for _, e := range s.executions {
		if e.Year != query.Year {
			continue
		}
		if query.Month != nil && e.Month != *query.Month {
			continue
		}
		if query.Unit != nil && e.UnitCode != *query.Unit {
			continue
		}
		if !query.Classifier.Matches(e.ClassifierCode) {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

func (s *RepositoryStub) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocations = nil
	s.executions = nil
	s.allocationFailure = nil
	s.executionFailure = nil
	s.allocationCalls = 0
	s.executionCalls = 0
}
