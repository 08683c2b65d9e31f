package hierarchy

import (
	"context"
	"strings"
	"sync"

	"github.com/munitrack/munitrack/pkg/budget"
)

type RepositoryStub struct {
	mu              sync.Mutex
	units           []budget.ExecutingUnit
	categories      []budget.Category
	classifiers     []budget.Classifier
	unitsErr        error
	categoriesErr   error
	classifiersErr  error
	classifierCalls int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{}
}

func (s *RepositoryStub) AddUnits(units ...budget.ExecutingUnit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = append(s.units, units...)
}

func (s *RepositoryStub) AddCategories(categories ...budget.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, categories...)
}

func (s *RepositoryStub) AddClassifiers(classifiers ...budget.Classifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classifiers = append(s.classifiers, classifiers...)
}

// SetErrors makes the corresponding List call fail. Nil errors restore normal behaviour.
func (s *RepositoryStub) SetErrors(units, categories, classifiers error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unitsErr = units
	s.categoriesErr = categories
	s.classifiersErr = classifiers
}

func (s *RepositoryStub) ClassifierCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classifierCalls
}

func (s *RepositoryStub) ListUnits(ctx context.Context) ([]budget.ExecutingUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unitsErr != nil {
		return nil, s.unitsErr
	}
	return append([]budget.ExecutingUnit{}, s.units...), nil
}

func (s *RepositoryStub) ListCategories(ctx context.Context) ([]budget.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categoriesErr != nil {
		return nil, s.categoriesErr
	}
	return append([]budget.Category{}, s.categories...), nil
}

func (s *RepositoryStub) ListClassifiers(ctx context.Context, codePrefix string) ([]budget.Classifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classifierCalls++
	if s.classifiersErr != nil {
		return nil, s.classifiersErr
	}
	result := make([]budget.Classifier, 0)
	for _, c := range s.classifiers {
		if strings.HasPrefix(c.Code, codePrefix) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (s *RepositoryStub) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = nil
	s.categories = nil
	s.classifiers = nil
	s.unitsErr = nil
	s.categoriesErr = nil
	s.classifiersErr = nil
	s.classifierCalls = 0
}
