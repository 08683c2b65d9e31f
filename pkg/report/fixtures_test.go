package report

import (
	"errors"
	"testing"
	"time"

	"github.com/munitrack/munitrack/internal/event_bus"
	"github.com/munitrack/munitrack/internal/utils"
	"github.com/munitrack/munitrack/pkg/budget"
	"github.com/munitrack/munitrack/pkg/facts"
	"github.com/munitrack/munitrack/pkg/hierarchy"
	"github.com/munitrack/munitrack/pkg/reportcache"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

var (
	publicWorks = budget.ExecutingUnit{Id: 1, Code: 10, Description: "Public works"}
	health      = budget.ExecutingUnit{Id: 2, Code: 20, Description: "Health"}
	education   = budget.ExecutingUnit{Id: 3, Code: 30, Description: "Education"}
	transport   = budget.ExecutingUnit{Id: 4, Code: 40, Description: "Transport"}
)

var (
	personnel = budget.Category{Id: 1, Code: "2.1", Description: "Personnel"}
	goods     = budget.Category{Id: 3, Code: "2.3", Description: "Goods and services"}
)

var (
	salaries       = budget.Classifier{Id: 1, Code: "2.1.1", Description: "Salaries", Category: budget.ExplicitCategory(1)}
	officeSupplies = budget.Classifier{Id: 2, Code: "2.3.1", Description: "Office supplies", Category: budget.InferredCategory("2.3")}
	vehicles       = budget.Classifier{Id: 3, Code: "2.6.3", Description: "Vehicles", Category: budget.InferredCategory("2.6")}
)

var errStoreDown = errors.Join(budget.ErrDataUnavailable, errors.New("connection refused"))

type fixture struct {
	facts     *facts.RepositoryStub
	hierarchy *hierarchy.RepositoryStub
	clock     *utils.MockClock
	bus       *event_bus.EventBus
	cache     *reportcache.MemoryCache[AreaSummaryDTO]
	engine    *Engine
	service   *ServiceImpl
}

func newFixture(t *testing.T, parallelism int, units ...budget.ExecutingUnit) *fixture {
	t.Helper()
	f := &fixture{
		facts:     facts.NewRepositoryStub(),
		hierarchy: hierarchy.NewRepositoryStub(),
		clock:     &utils.MockClock{FixedNow: now},
	}
	f.hierarchy.AddUnits(units...)
	f.hierarchy.AddCategories(personnel, goods)
	f.hierarchy.AddClassifiers(salaries, officeSupplies, vehicles)

	f.bus = event_bus.NewEventBus(f.clock)
	f.cache = reportcache.NewMemoryCache[AreaSummaryDTO](reportcache.DefaultTTL, f.clock)
	f.engine = NewEngine(f.facts, hierarchy.NewService(f.hierarchy), parallelism)
	f.service = NewService(f.engine, NewAssembler(f.clock), f.cache, f.bus)
	return f
}

func allocation(unit int, classifier string, modified, certified, committed float64) budget.BudgetAllocation {
	return budget.BudgetAllocation{
		Year:            2024,
		UnitCode:        unit,
		ClassifierCode:  classifier,
		Initial:         modified,
		Modified:        modified,
		Certified:       certified,
		AnnualCommitted: committed,
	}
}

func execution(unit int, classifier string, month int, accrued float64) budget.MonthlyExecution {
	return budget.MonthlyExecution{
		Year:           2024,
		Month:          month,
		UnitCode:       unit,
		ClassifierCode: classifier,
		Committed:      accrued,
		Accrued:        accrued,
		Disbursed:      accrued / 2,
		Paid:           accrued / 4,
	}
}
