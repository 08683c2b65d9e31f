package hierarchy

import (
	"context"
	"errors"
	"strings"

	"github.com/munitrack/munitrack/pkg/budget"
	log "github.com/sirupsen/logrus"
)

var ErrUnitNotFound = errors.New("executing unit not found")

// Resolver answers questions about the static dimensions: executing units and the
// category -> classifier hierarchy.
type Resolver interface {
	ListUnits(ctx context.Context) ([]budget.ExecutingUnit, error)
	GetUnit(ctx context.Context, code int) (budget.ExecutingUnit, error)
	ListCategories(ctx context.Context) ([]budget.Category, error)
	// ListClassifiersByCategory lists classifiers whose resolved category code starts with
	// categoryPrefix; "" lists all.
	ListClassifiersByCategory(ctx context.Context, categoryPrefix string) ([]budget.Classifier, error)
	// ListClassifiersByCodePrefix lists classifiers whose own code starts with codePrefix.
	ListClassifiersByCodePrefix(ctx context.Context, codePrefix string) ([]budget.Classifier, error)
	// ClassifierIndex returns every known classifier keyed by code.
	ClassifierIndex(ctx context.Context) (map[string]budget.Classifier, error)
	CategoryOf(ctx context.Context, classifier budget.Classifier) (budget.Category, error)
	// Categorizer loads the categories once for resolving many classifiers.
	Categorizer(ctx context.Context) (*Categorizer, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) ListUnits(ctx context.Context) ([]budget.ExecutingUnit, error) {
	return s.repo.ListUnits(ctx)
}

func (s *ServiceImpl) GetUnit(ctx context.Context, code int) (budget.ExecutingUnit, error) {
	units, err := s.repo.ListUnits(ctx)
	if err != nil {
		return budget.ExecutingUnit{}, err
	}
	for _, u := range units {
		if u.Code == code {
			return u, nil
		}
	}
	return budget.ExecutingUnit{}, ErrUnitNotFound
}

func (s *ServiceImpl) ListCategories(ctx context.Context) ([]budget.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *ServiceImpl) ListClassifiersByCategory(ctx context.Context, categoryPrefix string) ([]budget.Classifier, error) {
	classifiers, err := s.repo.ListClassifiers(ctx, "")
	if err != nil {
		return nil, err
	}
	if categoryPrefix == "" {
		return classifiers, nil
	}
	categorizer, err := s.Categorizer(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]budget.Classifier, 0)
	for _, c := range classifiers {
		if strings.HasPrefix(categorizer.CategoryOf(c).Code, categoryPrefix) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (s *ServiceImpl) ListClassifiersByCodePrefix(ctx context.Context, codePrefix string) ([]budget.Classifier, error) {
	return s.repo.ListClassifiers(ctx, codePrefix)
}

func (s *ServiceImpl) ClassifierIndex(ctx context.Context) (map[string]budget.Classifier, error) {
	classifiers, err := s.repo.ListClassifiers(ctx, "")
	if err != nil {
		return nil, err
	}
	index := make(map[string]budget.Classifier, len(classifiers))
	for _, c := range classifiers {
		index[c.Code] = c
	}
	return index, nil
}

func (s *ServiceImpl) CategoryOf(ctx context.Context, classifier budget.Classifier) (budget.Category, error) {
	categorizer, err := s.Categorizer(ctx)
	if err != nil {
		return budget.Category{}, err
	}
	return categorizer.CategoryOf(classifier), nil
}

func (s *ServiceImpl) Categorizer(ctx context.Context) (*Categorizer, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return NewCategorizer(categories), nil
}

// Categorizer resolves the category of a classifier: the explicit association when present,
// otherwise the category whose code equals the classifier code prefix, otherwise a category
// labelled with the raw prefix.
type Categorizer struct {
	byId   map[int]budget.Category
	byCode map[string]budget.Category
}

func NewCategorizer(categories []budget.Category) *Categorizer {
	c := &Categorizer{
		byId:   make(map[int]budget.Category, len(categories)),
		byCode: make(map[string]budget.Category, len(categories)),
	}
	for _, category := range categories {
		c.byId[category.Id] = category
		c.byCode[category.Code] = category
	}
	return c
}

func (c *Categorizer) CategoryOf(classifier budget.Classifier) budget.Category {
	ref := classifier.Category
	if ref.IsExplicit() {
		if category, ok := c.byId[ref.CategoryId]; ok {
			return category
		}
		log.Debugf("classifier %s points to unknown category %d, inferring from code", classifier.Code, ref.CategoryId)
		ref = budget.InferredCategory(budget.CategoryPrefix(classifier.Code))
	}

	prefix := ref.Prefix
	if prefix == "" {
		prefix = budget.CategoryPrefix(classifier.Code)
	}
	if category, ok := c.byCode[prefix]; ok {
		return category
	}
	return budget.Category{Code: prefix, Description: prefix}
}
