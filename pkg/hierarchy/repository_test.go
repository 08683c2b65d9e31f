package hierarchy

import (
	"context"
	"testing"

	"github.com/munitrack/munitrack/internal/test_utils"
	"github.com/munitrack/munitrack/pkg/budget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryImpl_ListClassifiers(t *testing.T) {
	// given
	db, querier := test_utils.SetupTestQuerier(t)
	repo := NewRepository(querier)
	ctx := context.Background()
	test_utils.InsertCategory(t, db, budget.Category{Id: 1, Code: "2.1", Description: "Personnel"})
	test_utils.InsertClassifier(t, db, budget.Classifier{Id: 1, Code: "2.1.1.1", Description: "Salaries", Category: budget.ExplicitCategory(1)})
	test_utils.InsertClassifier(t, db, budget.Classifier{Id: 2, Code: "2.3.1.5", Description: "Office supplies", Category: budget.InferredCategory("2.3")})

	// when
	all, err := repo.ListClassifiers(ctx, "")
	require.NoError(t, err)
	filtered, err := repo.ListClassifiers(ctx, "2.3")
	require.NoError(t, err)

	// then
	require.Len(t, all, 2)
	assert.Equal(t, budget.ExplicitCategory(1), all[0].Category)
	assert.Equal(t, budget.InferredCategory("2.3"), all[1].Category, "missing association is inferred from the code")
	require.Len(t, filtered, 1)
	assert.Equal(t, "Office supplies", filtered[0].Description)
}

func TestRepositoryImpl_ListUnitsAndCategories(t *testing.T) {
	// given
	db, querier := test_utils.SetupTestQuerier(t)
	repo := NewRepository(querier)
	ctx := context.Background()
	test_utils.InsertUnit(t, db, budget.ExecutingUnit{Id: 2, Code: 20, Description: "Health"})
	test_utils.InsertUnit(t, db, budget.ExecutingUnit{Id: 1, Code: 10, Description: "Public works"})
	test_utils.InsertCategory(t, db, budget.Category{Id: 1, Code: "2.1", Description: "Personnel"})

	// when
	units, err := repo.ListUnits(ctx)
	require.NoError(t, err)
	categories, err := repo.ListCategories(ctx)
	require.NoError(t, err)

	// then
	assert.Equal(t, []budget.ExecutingUnit{
		{Id: 1, Code: 10, Description: "Public works"},
		{Id: 2, Code: 20, Description: "Health"},
	}, units)
	assert.Equal(t, []budget.Category{{Id: 1, Code: "2.1", Description: "Personnel"}}, categories)
}

func TestRepositoryImpl_MissingClassifierTable(t *testing.T) {
	// given
	db, querier := test_utils.SetupTestQuerier(t)
	repo := NewRepository(querier)
	_, err := db.Exec("DROP TABLE classifier")
	require.NoError(t, err)

	// when
	_, err = repo.ListClassifiers(context.Background(), "")

	// then
	assert.ErrorIs(t, err, budget.ErrDataUnavailable)
}
