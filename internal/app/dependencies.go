package app

import (
	"context"
	"time"

	"github.com/munitrack/munitrack/internal/config"
	"github.com/munitrack/munitrack/internal/database"
	"github.com/munitrack/munitrack/internal/event_bus"
	"github.com/munitrack/munitrack/internal/utils"
	"github.com/munitrack/munitrack/pkg/facts"
	"github.com/munitrack/munitrack/pkg/hierarchy"
	"github.com/munitrack/munitrack/pkg/report"
	"github.com/munitrack/munitrack/pkg/reportcache"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus
	DB       database.Querier

	FactsRepo facts.Repository

	HierarchyRepo    hierarchy.Repository
	HierarchyService *hierarchy.ServiceImpl
	HierarchyHandler *hierarchy.Handler

	ReportCache   reportcache.Cache[report.AreaSummaryDTO]
	ReportEngine  *report.Engine
	ReportService *report.ServiceImpl
	ReportHandler *report.Handler

	HealthHandler *HealthHandler
}

// BuildDependencies initializes and wires all application services and handlers. The returned
// function releases the cache connection.
func BuildDependencies(ctx context.Context, db database.Querier, cfg config.Application) (*Dependencies, func(), error) {
	deps := &Dependencies{DB: db}
	closeCache := func() {}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus(deps.Clock)
	event_bus.SubscribeTyped(deps.EventBus, event_bus.ReportDegradedType, func(e event_bus.EventT[event_bus.ReportDegraded]) error {
		log.WithFields(log.Fields{
			"year":     e.Data.Year,
			"report":   e.Data.Report,
			"sections": e.Data.Sections,
		}).Warn("report served with degraded sections")
		return nil
	})

	deps.FactsRepo = facts.NewRepository(db)

	deps.HierarchyRepo = hierarchy.NewRepository(db)
	deps.HierarchyService = hierarchy.NewService(deps.HierarchyRepo)
	deps.HierarchyHandler = hierarchy.NewHandler(deps.HierarchyService)

	ttl := time.Duration(cfg.Cache.TTL) * time.Second
	if cfg.Cache.RedisAddr != "" {
		client, err := reportcache.Connect(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		closeCache = func() {
			if err := client.Close(); err != nil {
				log.Warnf("failed to close redis client: %v", err)
			}
		}
		deps.ReportCache = reportcache.NewRedisCache[report.AreaSummaryDTO](client, ttl, deps.Clock)
	} else {
		log.Info("No redis address configured, caching reports in memory")
		deps.ReportCache = reportcache.NewMemoryCache[report.AreaSummaryDTO](ttl, deps.Clock)
	}

	deps.ReportEngine = report.NewEngine(deps.FactsRepo, deps.HierarchyService, cfg.Reports.Parallelism)
	deps.ReportService = report.NewService(deps.ReportEngine, report.NewAssembler(deps.Clock), deps.ReportCache, deps.EventBus)
	deps.ReportHandler = report.NewHandler(deps.ReportService, report.NewCsvRenderer())

	deps.HealthHandler = NewHealthHandler(db)

	return deps, closeCache, nil
}
