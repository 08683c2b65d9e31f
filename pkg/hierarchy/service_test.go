package hierarchy

import (
	"context"
	"fmt"
	"testing"

	"github.com/munitrack/munitrack/pkg/budget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repoStub = NewRepositoryStub()

var personnel = budget.Category{Id: 1, Code: "2.1", Description: "Personnel"}
var goods = budget.Category{Id: 3, Code: "2.3", Description: "Goods and services"}

func setup(t *testing.T) (*ServiceImpl, context.Context, func()) {
	repoStub.AddCategories(personnel, goods)
	repoStub.AddUnits(
		budget.ExecutingUnit{Id: 1, Code: 10, Description: "Public works"},
		budget.ExecutingUnit{Id: 2, Code: 20, Description: "Health"},
	)
	return NewService(repoStub), context.Background(), func() {
		t.Log("Teardown after test")
		repoStub.Cleanup()
	}
}

func TestCategorizer_CategoryOf(t *testing.T) {
	categorizer := NewCategorizer([]budget.Category{personnel, goods})

	tests := []struct {
		name       string
		classifier budget.Classifier
		expected   budget.Category
	}{
		{
			name:       "explicit association wins over code prefix",
			classifier: budget.Classifier{Code: "2.1.1.9", Category: budget.ExplicitCategory(3)},
			expected:   goods,
		},
		{
			name:       "inferred prefix resolves to known category",
			classifier: budget.Classifier{Code: "2.1.1.9.1.4", Category: budget.InferredCategory("2.1")},
			expected:   personnel,
		},
		{
			name:       "unknown prefix is labelled with the raw prefix",
			classifier: budget.NewUnlinkedClassifier("2.6.3.2"),
			expected:   budget.Category{Code: "2.6", Description: "2.6"},
		},
		{
			name:       "code shorter than the prefix length is used whole",
			classifier: budget.NewUnlinkedClassifier("5"),
			expected:   budget.Category{Code: "5", Description: "5"},
		},
		{
			name:       "explicit link to unknown category falls back to prefix inference",
			classifier: budget.Classifier{Code: "2.3.1.5", Category: budget.ExplicitCategory(99)},
			expected:   goods,
		},
		{
			name:       "empty inferred prefix is derived from the code",
			classifier: budget.Classifier{Code: "2.3.1.5", Category: budget.CategoryRef{Kind: budget.CategoryInferred}},
			expected:   goods,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, categorizer.CategoryOf(tt.classifier))
		})
	}
}

func TestServiceImpl_CategoryOf(t *testing.T) {
	t.Run("should resolve category through the repository", func(t *testing.T) {
		service, ctx, teardown := setup(t)
		defer teardown()

		category, err := service.CategoryOf(ctx, budget.NewUnlinkedClassifier("2.1.1.1"))

		require.NoError(t, err)
		assert.Equal(t, personnel, category)
	})

	t.Run("should return error when categories are unavailable", func(t *testing.T) {
		service, ctx, teardown := setup(t)
		defer teardown()
		repoStub.SetErrors(nil, fmt.Errorf("%w: category", budget.ErrDataUnavailable), nil)

		_, err := service.CategoryOf(ctx, budget.NewUnlinkedClassifier("2.1.1.1"))

		assert.ErrorIs(t, err, budget.ErrDataUnavailable)
	})
}

func TestServiceImpl_GetUnit(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()

	unit, err := service.GetUnit(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, "Health", unit.Description)

	_, err = service.GetUnit(ctx, 30)
	assert.ErrorIs(t, err, ErrUnitNotFound)
}

func TestServiceImpl_ClassifierIndex(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()
	repoStub.AddClassifiers(
		budget.Classifier{Id: 1, Code: "2.1.1.1", Description: "Salaries", Category: budget.ExplicitCategory(1)},
		budget.Classifier{Id: 2, Code: "2.3.1.5", Description: "Office supplies", Category: budget.InferredCategory("2.3")},
	)

	index, err := service.ClassifierIndex(ctx)

	require.NoError(t, err)
	assert.Len(t, index, 2)
	assert.Equal(t, "Office supplies", index["2.3.1.5"].Description)
}

func TestServiceImpl_ListClassifiersByCategory(t *testing.T) {
	relinked := budget.Classifier{Id: 1, Code: "2.9.1", Description: "Bonuses", Category: budget.ExplicitCategory(1)}
	supplies := budget.Classifier{Id: 2, Code: "2.3.1.5", Description: "Office supplies", Category: budget.InferredCategory("2.3")}
	wages := budget.Classifier{Id: 3, Code: "2.1.1.1", Description: "Salaries", Category: budget.InferredCategory("2.1")}

	t.Run("should follow the explicit category link before the code prefix", func(t *testing.T) {
		service, ctx, teardown := setup(t)
		defer teardown()
		repoStub.AddClassifiers(relinked, supplies, wages)

		category, err := service.CategoryOf(ctx, relinked)
		require.NoError(t, err)
		list, err := service.ListClassifiersByCategory(ctx, "2.1")

		require.NoError(t, err)
		assert.Equal(t, personnel, category)
		assert.Equal(t, []budget.Classifier{relinked, wages}, list)
	})

	t.Run("should list every classifier for an empty prefix", func(t *testing.T) {
		service, ctx, teardown := setup(t)
		defer teardown()
		repoStub.AddClassifiers(relinked, supplies, wages)

		list, err := service.ListClassifiersByCategory(ctx, "")

		require.NoError(t, err)
		assert.Len(t, list, 3)
	})

	t.Run("should return error when categories are unavailable", func(t *testing.T) {
		service, ctx, teardown := setup(t)
		defer teardown()
		repoStub.AddClassifiers(relinked)
		repoStub.SetErrors(nil, fmt.Errorf("%w: category", budget.ErrDataUnavailable), nil)

		_, err := service.ListClassifiersByCategory(ctx, "2.1")

		assert.ErrorIs(t, err, budget.ErrDataUnavailable)
	})
}

func TestServiceImpl_ListClassifiersByCodePrefix(t *testing.T) {
	service, ctx, teardown := setup(t)
	defer teardown()
	relinked := budget.Classifier{Id: 1, Code: "2.9.1", Description: "Bonuses", Category: budget.ExplicitCategory(1)}
	repoStub.AddClassifiers(relinked)

	byCode, err := service.ListClassifiersByCodePrefix(ctx, "2.9")
	require.NoError(t, err)
	byOtherCode, err := service.ListClassifiersByCodePrefix(ctx, "2.1")
	require.NoError(t, err)

	assert.Equal(t, []budget.Classifier{relinked}, byCode)
	assert.Empty(t, byOtherCode)
}
