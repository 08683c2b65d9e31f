package facts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/munitrack/munitrack/internal/database"
	"github.com/munitrack/munitrack/pkg/budget"
	log "github.com/sirupsen/logrus"
)

// Repository gives read-only access to budget allocations and monthly executions.
// No matching rows is an empty slice; budget.ErrDataUnavailable is returned only when the store
// itself or one of its tables cannot be reached.
type Repository interface {
	FetchAllocations(ctx context.Context, query budget.AllocationQuery) ([]budget.BudgetAllocation, error)
	FetchExecutions(ctx context.Context, query budget.ExecutionQuery) ([]budget.MonthlyExecution, error)
}

type RepositoryImpl struct {
	db database.Querier
}

func NewRepository(db database.Querier) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) FetchAllocations(ctx context.Context, query budget.AllocationQuery) ([]budget.BudgetAllocation, error) {
	where := newConditions()
	where.add("year = %s", query.Year)
	if query.Unit != nil {
		where.add("unit_code = %s", *query.Unit)
	}
	where.classifier(query.Classifier)

	sql := `SELECT
				year,
				unit_code,
				classifier_code,
				initial_amount,
				modifications_amount,
				modified_amount,
				certified_amount,
				annual_committed_amount
			FROM budget_allocation
			WHERE ` + where.String() + `
			ORDER BY unit_code, classifier_code`

	rows, err := r.db.Query(ctx, sql, where.args...)
	if err != nil {
		return nil, unavailable(ctx, "budget_allocation", err)
	}
	defer rows.Close()

	allocations := make([]budget.BudgetAllocation, 0)
	for rows.Next() {
		var a budget.BudgetAllocation
		if err := rows.Scan(
			&a.Year,
			&a.UnitCode,
			&a.ClassifierCode,
			&a.Initial,
			&a.Modifications,
			&a.Modified,
			&a.Certified,
			&a.AnnualCommitted,
		); err != nil {
			err := fmt.Errorf("error scanning allocation row: %w", err)
			log.Error(err)
			return nil, err
		}
		allocations = append(allocations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(ctx, "budget_allocation", err)
	}

	log.Tracef("fetched %d allocations for %+v", len(allocations), query)
	return allocations, nil
}

func (r *RepositoryImpl) FetchExecutions(ctx context.Context, query budget.ExecutionQuery) ([]budget.MonthlyExecution, error) {
	if query.Month != nil {
		if err := budget.ValidateMonth(*query.Month); err != nil {
			return nil, err
		}
	}

	where := newConditions()
	where.add("year = %s", query.Year)
	if query.Month != nil {
		where.add("month = %s", *query.Month)
	}
	if query.Unit != nil {
		where.add("unit_code = %s", *query.Unit)
	}
	where.classifier(query.Classifier)

	sql := `SELECT
				year,
				month,
				unit_code,
				classifier_code,
				committed_amount,
				accrued_amount,
				disbursed_amount,
				paid_amount
			FROM monthly_execution
			WHERE ` + where.String() + `
			ORDER BY month, unit_code, classifier_code`

	rows, err := r.db.Query(ctx, sql, where.args...)
	if err != nil {
		return nil, unavailable(ctx, "monthly_execution", err)
	}
	defer rows.Close()

	executions := make([]budget.MonthlyExecution, 0)
	for rows.Next() {
		var e budget.MonthlyExecution
		if err := rows.Scan(
			&e.Year,
			&e.Month,
			&e.UnitCode,
			&e.ClassifierCode,
			&e.Committed,
			&e.Accrued,
			&e.Disbursed,
			&e.Paid,
		); err != nil {
			err := fmt.Errorf("error scanning execution row: %w", err)
			log.Error(err)
			return nil, err
		}
		executions = append(executions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(ctx, "monthly_execution", err)
	}

	log.Tracef("fetched %d executions for %+v", len(executions), query)
	return executions, nil
}

// unavailable classifies a store failure. Cancellation of the request is returned unchanged.
func unavailable(ctx context.Context, table string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if database.IsMissingTable(err) {
		log.Errorf("table %s is missing: %v", table, err)
	} else {
		log.Errorf("could not query %s: %v", table, err)
	}
	return fmt.Errorf("%w: %s: %v", budget.ErrDataUnavailable, table, err)
}

// conditions builds a WHERE clause with sequential $N placeholders.
type conditions struct {
	parts []string
	args  []any
}

func newConditions() *conditions {
	return &conditions{}
}

func (c *conditions) add(format string, arg any) {
	c.args = append(c.args, arg)
	c.parts = append(c.parts, fmt.Sprintf(format, fmt.Sprintf("$%d", len(c.args))))
}

func (c *conditions) classifier(match budget.ClassifierMatch) {
	switch match.Mode {
	case budget.MatchExact:
		c.add("classifier_code = %s", match.Value)
	case budget.MatchPrefix:
		c.add(`classifier_code LIKE %s ESCAPE '\'`, database.EscapeLike(match.Value)+"%")
	}
}

func (c *conditions) String() string {
	if len(c.parts) == 0 {
		return "1 = 1"
	}
	return strings.Join(c.parts, " AND ")
}
