package facts

import (
	"context"
	"database/sql"
	"testing"

	"github.com/munitrack/munitrack/internal/database"
	"github.com/munitrack/munitrack/internal/test_utils"
	"github.com/munitrack/munitrack/pkg/budget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepositoryTest(t *testing.T) (*RepositoryImpl, *sql.DB, context.Context) {
	db, querier := test_utils.SetupTestQuerier(t)
	return NewRepository(querier), db, context.Background()
}

func seedFacts(t *testing.T, db *sql.DB) {
	test_utils.InsertAllocation(t, db, budget.BudgetAllocation{Year: 2024, UnitCode: 1, ClassifierCode: "2.1.1.1", Initial: 900, Modifications: 100, Modified: 1000, Certified: 800, AnnualCommitted: 600})
	test_utils.InsertAllocation(t, db, budget.BudgetAllocation{Year: 2024, UnitCode: 1, ClassifierCode: "2.3.1.5", Modified: 500.5})
	test_utils.InsertAllocation(t, db, budget.BudgetAllocation{Year: 2024, UnitCode: 2, ClassifierCode: "2.1.1.1", Modified: 300})
	test_utils.InsertAllocation(t, db, budget.BudgetAllocation{Year: 2023, UnitCode: 1, ClassifierCode: "2.1.1.1", Modified: 700})

	test_utils.InsertExecution(t, db, budget.MonthlyExecution{Year: 2024, Month: 1, UnitCode: 1, ClassifierCode: "2.1.1.1", Committed: 300, Accrued: 250, Disbursed: 200, Paid: 150})
	test_utils.InsertExecution(t, db, budget.MonthlyExecution{Year: 2024, Month: 2, UnitCode: 1, ClassifierCode: "2.1.1.1", Accrued: 100})
	test_utils.InsertExecution(t, db, budget.MonthlyExecution{Year: 2024, Month: 1, UnitCode: 2, ClassifierCode: "2.1.1.1", Accrued: 50})
	test_utils.InsertExecution(t, db, budget.MonthlyExecution{Year: 2024, Month: 3, UnitCode: 1, ClassifierCode: "2.3.1.5", Accrued: 20.25})
}

func TestRepositoryImpl_FetchAllocations(t *testing.T) {
	repo, db, ctx := setupRepositoryTest(t)
	seedFacts(t, db)
	unit := 1

	t.Run("should fetch all allocations of the year", func(t *testing.T) {
		allocations, err := repo.FetchAllocations(ctx, budget.AllocationQuery{Year: 2024})

		require.NoError(t, err)
		assert.Len(t, allocations, 3)
		assert.Equal(t, budget.BudgetAllocation{Year: 2024, UnitCode: 1, ClassifierCode: "2.1.1.1", Initial: 900, Modifications: 100, Modified: 1000, Certified: 800, AnnualCommitted: 600}, allocations[0])
	})

	t.Run("should filter by unit and classifier prefix", func(t *testing.T) {
		allocations, err := repo.FetchAllocations(ctx, budget.AllocationQuery{Year: 2024, Unit: &unit, Classifier: budget.ClassifierPrefix("2.3")})

		require.NoError(t, err)
		require.Len(t, allocations, 1)
		assert.Equal(t, "2.3.1.5", allocations[0].ClassifierCode)
		assert.Equal(t, 500.5, allocations[0].Modified)
	})

	t.Run("should filter by exact classifier", func(t *testing.T) {
		allocations, err := repo.FetchAllocations(ctx, budget.AllocationQuery{Year: 2024, Classifier: budget.ClassifierCode("2.1.1.1")})

		require.NoError(t, err)
		assert.Len(t, allocations, 2)
	})

	t.Run("should return empty list when nothing matches", func(t *testing.T) {
		allocations, err := repo.FetchAllocations(ctx, budget.AllocationQuery{Year: 2030})

		require.NoError(t, err)
		assert.NotNil(t, allocations)
		assert.Empty(t, allocations)
	})

	t.Run("should treat LIKE wildcards in prefix literally", func(t *testing.T) {
		allocations, err := repo.FetchAllocations(ctx, budget.AllocationQuery{Year: 2024, Classifier: budget.ClassifierPrefix("2_1")})

		require.NoError(t, err)
		assert.Empty(t, allocations)
	})
}

func TestRepositoryImpl_FetchExecutions(t *testing.T) {
	repo, db, ctx := setupRepositoryTest(t)
	seedFacts(t, db)
	unit := 1
	month := 1

	t.Run("should fetch executions ordered by month", func(t *testing.T) {
		executions, err := repo.FetchExecutions(ctx, budget.ExecutionQuery{Year: 2024, Unit: &unit})

		require.NoError(t, err)
		require.Len(t, executions, 3)
		assert.Equal(t, 1, executions[0].Month)
		assert.Equal(t, 2, executions[1].Month)
		assert.Equal(t, 3, executions[2].Month)
		assert.Equal(t, 20.25, executions[2].Accrued)
	})

	t.Run("should filter by month", func(t *testing.T) {
		executions, err := repo.FetchExecutions(ctx, budget.ExecutionQuery{Year: 2024, Month: &month})

		require.NoError(t, err)
		assert.Len(t, executions, 2)
		assert.Equal(t, budget.MonthlyExecution{Year: 2024, Month: 1, UnitCode: 1, ClassifierCode: "2.1.1.1", Committed: 300, Accrued: 250, Disbursed: 200, Paid: 150}, executions[0])
	})

	t.Run("should reject month outside the year before querying", func(t *testing.T) {
		for _, invalid := range []int{0, 13} {
			_, err := repo.FetchExecutions(ctx, budget.ExecutionQuery{Year: 2024, Month: &invalid})

			assert.ErrorIs(t, err, budget.ErrInvalidInput, "month %d", invalid)
		}

		_, err := db.Exec("DROP TABLE monthly_execution")
		require.NoError(t, err)
		invalid := 13
		_, err = repo.FetchExecutions(ctx, budget.ExecutionQuery{Year: 2024, Month: &invalid})
		assert.ErrorIs(t, err, budget.ErrInvalidInput)
		assert.NotErrorIs(t, err, budget.ErrDataUnavailable)
	})
}

func TestRepositoryImpl_MissingTable(t *testing.T) {
	// given
	repo, db, ctx := setupRepositoryTest(t)
	_, err := db.Exec("DROP TABLE monthly_execution")
	require.NoError(t, err)

	// when
	_, err = repo.FetchExecutions(ctx, budget.ExecutionQuery{Year: 2024})

	// then
	assert.ErrorIs(t, err, budget.ErrDataUnavailable)

	// allocations are still reachable
	allocations, err := repo.FetchAllocations(ctx, budget.AllocationQuery{Year: 2024})
	assert.NoError(t, err)
	assert.Empty(t, allocations)
}

func TestRepositoryImpl_CancelledContext(t *testing.T) {
	// given
	repo, db, _ := setupRepositoryTest(t)
	seedFacts(t, db)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// when
	_, err := repo.FetchAllocations(ctx, budget.AllocationQuery{Year: 2024})

	// then
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, budget.ErrDataUnavailable)
}

func TestRepositoryImpl_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	pool := test_utils.TestWithDB(t)
	ctx := context.Background()
	_, err := pool.Exec(ctx, `INSERT INTO budget_allocation (year, unit_code, classifier_code, modified_amount, certified_amount)
		VALUES (2024, 1, '2.1.1.1', 1000, 400), (2024, 1, '2.3.1.5', 200, 0)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO monthly_execution (year, month, unit_code, classifier_code, accrued_amount)
		VALUES (2024, 1, 1, '2.1.1.1', 250.75)`)
	require.NoError(t, err)
	repo := NewRepository(database.NewPgxQuerier(pool))

	allocations, err := repo.FetchAllocations(ctx, budget.AllocationQuery{Year: 2024, Classifier: budget.ClassifierPrefix("2.1")})
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	assert.Equal(t, 1000.0, allocations[0].Modified)
	assert.Equal(t, 400.0, allocations[0].Certified)

	executions, err := repo.FetchExecutions(ctx, budget.ExecutionQuery{Year: 2024})
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, 250.75, executions[0].Accrued)

	_, err = pool.Exec(ctx, "DROP TABLE monthly_execution")
	require.NoError(t, err)
	_, err = repo.FetchExecutions(ctx, budget.ExecutionQuery{Year: 2024})
	assert.ErrorIs(t, err, budget.ErrDataUnavailable)
}
