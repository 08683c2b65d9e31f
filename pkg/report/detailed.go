package report

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/munitrack/munitrack/pkg/budget"
	"github.com/munitrack/munitrack/pkg/hierarchy"
	"github.com/munitrack/munitrack/pkg/rollup"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	MessageNoData          = "no data"
	MessageDataUnavailable = "data unavailable"
)

// namedMonths is the number of leading months reported as their own column per classifier.
const namedMonths = 3

type DetailedQuery struct {
	Year             int
	Unit             *int
	ClassifierPrefix string
}

func (q DetailedQuery) scope() budget.Scope {
	return budget.Scope{Year: q.Year, Unit: q.Unit, Classifier: budget.ClassifierPrefix(q.ClassifierPrefix)}
}

type ClassifierDetail struct {
	Code        string
	Description string
	Allocation  rollup.Allocations
	// AccruedByMonth holds the accrued amount of months 1 to 3.
	AccruedByMonth [namedMonths]float64
	AccruedTotal   float64
	// RemainingToAccrue is Modified - AccruedTotal. It goes negative on over-execution.
	RemainingToAccrue float64
}

type DetailedReport struct {
	Query DetailedQuery
	// Unit is the resolved unit filter, nil without one.
	Unit               *budget.ExecutingUnit
	NoData             bool
	Message            string
	Totals             rollup.Rollup
	ByMonth            []MonthRollup
	ByClassifier       []ClassifierDetail
	OmittedClassifiers []string
	DegradedSections   []string
}

type snapshot struct {
	allocations []budget.BudgetAllocation
	executions  []budget.MonthlyExecution
}

func (s snapshot) empty() bool {
	return len(s.allocations) == 0 && len(s.executions) == 0
}

// DetailedReport computes totals, the monthly accrual curve and the per-classifier detail of a scope.
// Only invalid input and cancellation are returned as errors; every other failure degrades the
// affected section.
func (e *Engine) DetailedReport(ctx context.Context, query DetailedQuery) (DetailedReport, error) {
	report := DetailedReport{
		Query:        query,
		ByMonth:      []MonthRollup{},
		ByClassifier: []ClassifierDetail{},
	}
	var degraded sections

	if err := budget.ValidateYear(query.Year); err != nil {
		return DetailedReport{}, err
	}
	unit, err := e.validateFilters(ctx, query)
	if err != nil {
		if errors.Is(err, budget.ErrDataUnavailable) {
			log.Warnf("unit %d could not be resolved: %v", *query.Unit, err)
			degraded.add(SectionUnit)
		} else {
			return DetailedReport{}, err
		}
	}
	report.Unit = unit

	data, err := e.checkDataExists(ctx, query.scope())
	if err != nil {
		if cancelled(ctx, err) {
			return DetailedReport{}, err
		}
		log.Errorf("facts unavailable for detailed report %d: %v", query.Year, err)
		degraded.add(SectionTotals, SectionByMonth, SectionByClassifier)
		report.Message = MessageDataUnavailable
		report.DegradedSections = degraded
		return report, nil
	}
	if data.empty() {
		report.NoData = true
		report.Message = MessageNoData
		report.DegradedSections = degraded
		return report, nil
	}

	totals, err := runStage(ctx, SectionTotals, func(ctx context.Context) (rollup.Rollup, error) {
		return rollup.Calculate(data.allocations, data.executions), nil
	})
	if err != nil {
		return DetailedReport{}, err
	}
	if totals.Failed() {
		degraded.add(SectionTotals)
	}
	report.Totals = totals.Value

	months, err := runStage(ctx, SectionByMonth, func(ctx context.Context) ([]MonthRollup, error) {
		executions, err := e.facts.FetchExecutions(ctx, query.scope().Executions())
		if err != nil {
			return nil, err
		}
		return byMonth(executions), nil
	})
	if err != nil {
		return DetailedReport{}, err
	}
	if months.Failed() {
		degraded.add(SectionByMonth)
	} else {
		report.ByMonth = months.Value
	}

	classifiers, err := runStage(ctx, SectionByClassifier, func(ctx context.Context) (classifierStage, error) {
		return e.classifierDetails(ctx, query, data)
	})
	if err != nil {
		return DetailedReport{}, err
	}
	if classifiers.Failed() {
		degraded.add(SectionByClassifier)
	} else {
		report.ByClassifier = classifiers.Value.details
		report.OmittedClassifiers = classifiers.Value.omitted
	}

	report.DegradedSections = degraded
	return report, nil
}

// validateFilters rejects filters naming a unit or classifier prefix that does not exist. When the
// hierarchy cannot be reached the filters are trusted; an unresolved unit is then returned with its
// code only, together with an ErrDataUnavailable error.
func (e *Engine) validateFilters(ctx context.Context, query DetailedQuery) (*budget.ExecutingUnit, error) {
	if query.ClassifierPrefix != "" {
		matching, err := e.resolver.ListClassifiersByCodePrefix(ctx, query.ClassifierPrefix)
		switch {
		case err != nil && cancelled(ctx, err):
			return nil, err
		case err != nil:
			log.Warnf("cannot verify classifier filter %q: %v", query.ClassifierPrefix, err)
		case len(matching) == 0:
			return nil, fmt.Errorf("%w: no classifier starts with %q", budget.ErrInvalidInput, query.ClassifierPrefix)
		}
	}

	if query.Unit == nil {
		return nil, nil
	}
	unit, err := e.resolver.GetUnit(ctx, *query.Unit)
	switch {
	case errors.Is(err, hierarchy.ErrUnitNotFound):
		return nil, fmt.Errorf("%w: executing unit %d does not exist", budget.ErrInvalidInput, *query.Unit)
	case err != nil && cancelled(ctx, err):
		return nil, err
	case err != nil:
		return &budget.ExecutingUnit{Code: *query.Unit}, fmt.Errorf("%w: %v", budget.ErrDataUnavailable, err)
	}
	return &unit, nil
}

func (e *Engine) checkDataExists(ctx context.Context, scope budget.Scope) (snapshot, error) {
	allocations, err := e.facts.FetchAllocations(ctx, scope.Allocations())
	if err != nil {
		return snapshot{}, err
	}
	executions, err := e.facts.FetchExecutions(ctx, scope.Executions())
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{allocations: allocations, executions: executions}, nil
}

type classifierStage struct {
	details []ClassifierDetail
	omitted []string
}

type classifierSlot struct {
	detail ClassifierDetail
	err    error
}

// classifierDetails computes one row per classifier present in the scope. A classifier whose own
// fetch fails is omitted without affecting the others.
func (e *Engine) classifierDetails(ctx context.Context, query DetailedQuery, data snapshot) (classifierStage, error) {
	index, err := e.resolver.ClassifierIndex(ctx)
	if err != nil {
		return classifierStage{}, err
	}

	codes := classifierCodes(data)
	slots := make([]classifierSlot, len(codes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, code := range codes {
		g.Go(func() error {
			detail, err := guard(func() (ClassifierDetail, error) {
				return e.classifierDetail(gctx, query, code)
			})
			if err != nil && cancelled(gctx, err) {
				return err
			}
			detail.Description = index[code].Description
			slots[i] = classifierSlot{detail: detail, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return classifierStage{}, err
	}

	stage := classifierStage{details: make([]ClassifierDetail, 0, len(codes))}
	for i, slot := range slots {
		if slot.err != nil {
			log.WithField("classifier", codes[i]).Warnf("classifier omitted from detailed report: %v", slot.err)
			stage.omitted = append(stage.omitted, codes[i])
			continue
		}
		stage.details = append(stage.details, slot.detail)
	}
	return stage, nil
}

func (e *Engine) classifierDetail(ctx context.Context, query DetailedQuery, code string) (ClassifierDetail, error) {
	scope := budget.Scope{Year: query.Year, Unit: query.Unit, Classifier: budget.ClassifierCode(code)}
	allocations, err := e.facts.FetchAllocations(ctx, scope.Allocations())
	if err != nil {
		return ClassifierDetail{}, err
	}
	executions, err := e.facts.FetchExecutions(ctx, scope.Executions())
	if err != nil {
		return ClassifierDetail{}, err
	}

	detail := ClassifierDetail{Code: code, Allocation: rollup.SumAllocations(allocations)}
	for _, ex := range executions {
		detail.AccruedTotal += ex.Accrued
		if ex.Month >= 1 && ex.Month <= namedMonths {
			detail.AccruedByMonth[ex.Month-1] += ex.Accrued
		}
	}
	detail.RemainingToAccrue = detail.Allocation.Modified - detail.AccruedTotal
	return detail, nil
}

func classifierCodes(data snapshot) []string {
	seen := make(map[string]struct{})
	for _, a := range data.allocations {
		seen[a.ClassifierCode] = struct{}{}
	}
	for _, ex := range data.executions {
		seen[ex.ClassifierCode] = struct{}{}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}
