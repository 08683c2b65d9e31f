package report

import (
	"cmp"
	"context"
	"slices"

	"github.com/munitrack/munitrack/pkg/budget"
	"github.com/munitrack/munitrack/pkg/facts"
	"github.com/munitrack/munitrack/pkg/hierarchy"
	"github.com/munitrack/munitrack/pkg/rollup"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type UnitRollup struct {
	Unit   budget.ExecutingUnit
	Rollup rollup.Rollup
}

type AreaSummary struct {
	Year int
	// NoData is set when no unit has any fact for the year.
	NoData           bool
	Units            []UnitRollup
	OmittedUnits     []int
	DegradedSections []string
}

func (s AreaSummary) Degraded() bool {
	return len(s.DegradedSections) > 0 || len(s.OmittedUnits) > 0
}

type MonthRollup struct {
	Month     int
	Execution rollup.Executions
}

type CategoryRollup struct {
	Category budget.Category
	Rollup   rollup.Rollup
}

type GlobalSummary struct {
	Year             int
	NoData           bool
	Totals           rollup.Rollup
	ByMonth          []MonthRollup
	ByCategory       []CategoryRollup
	DegradedSections []string
}

// Engine computes the rollups behind every report. It never mutates its inputs and keeps all
// intermediate sums local to a call.
type Engine struct {
	facts       facts.Repository
	resolver    hierarchy.Resolver
	parallelism int
}

func NewEngine(facts facts.Repository, resolver hierarchy.Resolver, parallelism int) *Engine {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Engine{facts: facts, resolver: resolver, parallelism: parallelism}
}

type unitSlot struct {
	rollup   rollup.Rollup
	hasFacts bool
	err      error
}

type unitResult struct {
	rollup   rollup.Rollup
	hasFacts bool
}

// SummarizeByUnit computes one rollup per executing unit, ordered by execution percentage.
func (e *Engine) SummarizeByUnit(ctx context.Context, year int) (AreaSummary, error) {
	if err := budget.ValidateYear(year); err != nil {
		return AreaSummary{}, err
	}
	summary := AreaSummary{Year: year, Units: []UnitRollup{}}

	units, err := e.resolver.ListUnits(ctx)
	if err != nil {
		if cancelled(ctx, err) {
			return AreaSummary{}, err
		}
		log.Warnf("executing units unavailable for %d: %v", year, err)
		summary.DegradedSections = []string{SectionUnits}
		return summary, nil
	}
	if len(units) == 0 {
		summary.NoData = true
		return summary, nil
	}

	slots := make([]unitSlot, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, unit := range units {
		g.Go(func() error {
			result, err := guard(func() (unitResult, error) {
				return e.unitRollup(gctx, year, unit.Code)
			})
			if err != nil && cancelled(gctx, err) {
				return err
			}
			slots[i] = unitSlot{rollup: result.rollup, hasFacts: result.hasFacts, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return AreaSummary{}, err
	}

	anyFacts := false
	for i, slot := range slots {
		if slot.err != nil {
			log.WithField("unit", units[i].Code).Warnf("unit omitted from area summary: %v", slot.err)
			summary.OmittedUnits = append(summary.OmittedUnits, units[i].Code)
			continue
		}
		anyFacts = anyFacts || slot.hasFacts
		summary.Units = append(summary.Units, UnitRollup{Unit: units[i], Rollup: slot.rollup})
	}
	if len(summary.OmittedUnits) > 0 {
		summary.DegradedSections = []string{SectionUnits}
	}
	if !anyFacts {
		// all-zero rollups would read as "nothing executed" instead of "nothing recorded"
		summary.Units = []UnitRollup{}
		summary.NoData = len(summary.OmittedUnits) == 0
		return summary, nil
	}

	sortUnits(summary.Units)
	return summary, nil
}

func (e *Engine) unitRollup(ctx context.Context, year int, unitCode int) (unitResult, error) {
	scope := budget.Scope{Year: year, Unit: &unitCode}
	allocations, err := e.facts.FetchAllocations(ctx, scope.Allocations())
	if err != nil {
		return unitResult{}, err
	}
	executions, err := e.facts.FetchExecutions(ctx, scope.Executions())
	if err != nil {
		return unitResult{}, err
	}
	return unitResult{
		rollup:   rollup.Calculate(allocations, executions),
		hasFacts: len(allocations) > 0 || len(executions) > 0,
	}, nil
}

func sortUnits(units []UnitRollup) {
	slices.SortFunc(units, func(a, b UnitRollup) int {
		if c := cmp.Compare(b.Rollup.PercentageExecuted, a.Rollup.PercentageExecuted); c != 0 {
			return c
		}
		return cmp.Compare(a.Unit.Code, b.Unit.Code)
	})
}

// SummarizeGlobal computes the year totals with a per-month and per-category breakdown.
func (e *Engine) SummarizeGlobal(ctx context.Context, year int) (GlobalSummary, error) {
	if err := budget.ValidateYear(year); err != nil {
		return GlobalSummary{}, err
	}
	summary := GlobalSummary{Year: year, ByMonth: []MonthRollup{}, ByCategory: []CategoryRollup{}}
	var degraded sections
	scope := budget.Scope{Year: year}

	allocations, err := e.facts.FetchAllocations(ctx, scope.Allocations())
	if err != nil {
		if cancelled(ctx, err) {
			return GlobalSummary{}, err
		}
		log.Warnf("allocations unavailable for global summary %d: %v", year, err)
		degraded.add(SectionAllocations)
	}
	executions, err := e.facts.FetchExecutions(ctx, scope.Executions())
	if err != nil {
		if cancelled(ctx, err) {
			return GlobalSummary{}, err
		}
		log.Warnf("executions unavailable for global summary %d: %v", year, err)
		degraded.add(SectionExecutions, SectionByMonth)
	}
	if len(degraded) == 0 && len(allocations) == 0 && len(executions) == 0 {
		summary.NoData = true
		return summary, nil
	}

	summary.Totals = rollup.Calculate(allocations, executions)
	summary.ByMonth = byMonth(executions)

	byCategory, err := runStage(ctx, SectionByCategory, func(ctx context.Context) ([]CategoryRollup, error) {
		return e.categoryRollups(ctx, allocations, executions)
	})
	if err != nil {
		return GlobalSummary{}, err
	}
	if byCategory.Failed() {
		degraded.add(SectionByCategory)
	} else {
		summary.ByCategory = byCategory.Value
	}

	summary.DegradedSections = degraded
	return summary, nil
}

// byMonth groups executions by month, ascending, listing only months with facts.
func byMonth(executions []budget.MonthlyExecution) []MonthRollup {
	grouped := make(map[int][]budget.MonthlyExecution)
	for _, ex := range executions {
		grouped[ex.Month] = append(grouped[ex.Month], ex)
	}
	months := make([]MonthRollup, 0, len(grouped))
	for month, group := range grouped {
		months = append(months, MonthRollup{Month: month, Execution: rollup.SumExecutions(group)})
	}
	slices.SortFunc(months, func(a, b MonthRollup) int {
		return cmp.Compare(a.Month, b.Month)
	})
	return months
}

func (e *Engine) categoryRollups(ctx context.Context, allocations []budget.BudgetAllocation, executions []budget.MonthlyExecution) ([]CategoryRollup, error) {
	index, err := e.resolver.ClassifierIndex(ctx)
	if err != nil {
		return nil, err
	}
	categorizer, err := e.resolver.Categorizer(ctx)
	if err != nil {
		return nil, err
	}
	categoryOf := func(code string) budget.Category {
		classifier, ok := index[code]
		if !ok {
			classifier = budget.NewUnlinkedClassifier(code)
		}
		return categorizer.CategoryOf(classifier)
	}

	type bucket struct {
		category    budget.Category
		allocations []budget.BudgetAllocation
		executions  []budget.MonthlyExecution
	}
	buckets := make(map[string]*bucket)
	bucketOf := func(code string) *bucket {
		category := categoryOf(code)
		b, ok := buckets[category.Code]
		if !ok {
			b = &bucket{category: category}
			buckets[category.Code] = b
		}
		return b
	}
	for _, a := range allocations {
		b := bucketOf(a.ClassifierCode)
		b.allocations = append(b.allocations, a)
	}
	for _, ex := range executions {
		b := bucketOf(ex.ClassifierCode)
		b.executions = append(b.executions, ex)
	}

	result := make([]CategoryRollup, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, CategoryRollup{Category: b.category, Rollup: rollup.Calculate(b.allocations, b.executions)})
	}
	slices.SortFunc(result, func(a, b CategoryRollup) int {
		return cmp.Compare(a.Category.Code, b.Category.Code)
	})
	return result, nil
}
