package hierarchy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/munitrack/munitrack/internal/database"
	"github.com/munitrack/munitrack/pkg/budget"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	ListUnits(ctx context.Context) ([]budget.ExecutingUnit, error)
	ListCategories(ctx context.Context) ([]budget.Category, error)
	// ListClassifiers returns classifiers whose code starts with codePrefix; "" returns all of them.
	ListClassifiers(ctx context.Context, codePrefix string) ([]budget.Classifier, error)
}

type RepositoryImpl struct {
	db database.Querier
}

func NewRepository(db database.Querier) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) ListUnits(ctx context.Context) ([]budget.ExecutingUnit, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, description FROM executing_unit ORDER BY code`)
	if err != nil {
		return nil, unavailable(ctx, "executing_unit", err)
	}
	defer rows.Close()

	units := make([]budget.ExecutingUnit, 0)
	for rows.Next() {
		var u budget.ExecutingUnit
		if err := rows.Scan(&u.Id, &u.Code, &u.Description); err != nil {
			err := fmt.Errorf("error scanning unit row: %w", err)
			log.Error(err)
			return nil, err
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(ctx, "executing_unit", err)
	}
	return units, nil
}

func (r *RepositoryImpl) ListCategories(ctx context.Context) ([]budget.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, description FROM category ORDER BY code`)
	if err != nil {
		return nil, unavailable(ctx, "category", err)
	}
	defer rows.Close()

	categories := make([]budget.Category, 0)
	for rows.Next() {
		var c budget.Category
		if err := rows.Scan(&c.Id, &c.Code, &c.Description); err != nil {
			err := fmt.Errorf("error scanning category row: %w", err)
			log.Error(err)
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(ctx, "category", err)
	}
	return categories, nil
}

func (r *RepositoryImpl) ListClassifiers(ctx context.Context, codePrefix string) ([]budget.Classifier, error) {
	query := `SELECT id, code, description, category_id FROM classifier`
	var args []any
	if codePrefix != "" {
		query += ` WHERE code LIKE $1 ESCAPE '\'`
		args = append(args, database.EscapeLike(codePrefix)+"%")
	}
	query += ` ORDER BY code`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, unavailable(ctx, "classifier", err)
	}
	defer rows.Close()

	classifiers := make([]budget.Classifier, 0)
	for rows.Next() {
		var (
			c          budget.Classifier
			categoryId sql.NullInt64
		)
		if err := rows.Scan(&c.Id, &c.Code, &c.Description, &categoryId); err != nil {
			err := fmt.Errorf("error scanning classifier row: %w", err)
			log.Error(err)
			return nil, err
		}
		if categoryId.Valid {
			c.Category = budget.ExplicitCategory(int(categoryId.Int64))
		} else {
			c.Category = budget.InferredCategory(budget.CategoryPrefix(c.Code))
		}
		classifiers = append(classifiers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(ctx, "classifier", err)
	}
	return classifiers, nil
}

func unavailable(ctx context.Context, table string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	log.Errorf("could not query %s: %v", table, err)
	return fmt.Errorf("%w: %s: %v", budget.ErrDataUnavailable, table, err)
}
