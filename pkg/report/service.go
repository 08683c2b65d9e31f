package report

import (
	"context"

	"github.com/munitrack/munitrack/internal/event_bus"
	"github.com/munitrack/munitrack/pkg/budget"
	"github.com/munitrack/munitrack/pkg/reportcache"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	// AreaSummary returns the per-unit summary of year, from the cache unless forceRefresh is set.
	// Degraded summaries are never cached; a degraded forced refresh drops the cached entry instead.
	AreaSummary(ctx context.Context, year int, forceRefresh bool) (AreaSummaryDTO, error)
	GlobalSummary(ctx context.Context, year int) (GlobalSummaryDTO, error)
	DetailedReport(ctx context.Context, query DetailedQuery) (DetailedReportDTO, error)
	// Invalidate announces that the facts of year changed.
	Invalidate(ctx context.Context, year int) error
}

type ServiceImpl struct {
	engine    *Engine
	assembler *Assembler
	cache     reportcache.Cache[AreaSummaryDTO]
	eventBus  *event_bus.EventBus
}

func NewService(
	engine *Engine,
	assembler *Assembler,
	cache reportcache.Cache[AreaSummaryDTO],
	eventBus *event_bus.EventBus,
) *ServiceImpl {
	s := &ServiceImpl{
		engine:    engine,
		assembler: assembler,
		cache:     cache,
		eventBus:  eventBus,
	}
	event_bus.SubscribeTyped(eventBus, event_bus.FactsChangedType, func(e event_bus.EventT[event_bus.FactsChanged]) error {
		log.Debugf("facts of %d changed, dropping cached area summary", e.Data.Year)
		s.cache.Invalidate(e.Context(), e.Data.Year)
		return nil
	})
	return s
}

func (s *ServiceImpl) AreaSummary(ctx context.Context, year int, forceRefresh bool) (AreaSummaryDTO, error) {
	if err := budget.ValidateYear(year); err != nil {
		return AreaSummaryDTO{}, err
	}

	if !forceRefresh {
		if entry, ok := s.cache.Get(ctx, year); ok {
			log.Debugf("area summary %d served from cache (created %s)", year, entry.CreatedAt)
			cached := entry.Value
			cached.Cached = true
			return cached, nil
		}
	}

	summary, err := s.engine.SummarizeByUnit(ctx, year)
	if err != nil {
		return AreaSummaryDTO{}, err
	}
	dto := s.assembler.AreaSummary(summary)
	if summary.Degraded() {
		s.publishDegraded(ctx, year, "area-summary", dto.DegradedSections)
		if forceRefresh {
			s.cache.Invalidate(ctx, year)
		}
		return dto, nil
	}
	s.cache.Put(ctx, year, dto)
	return dto, nil
}

func (s *ServiceImpl) GlobalSummary(ctx context.Context, year int) (GlobalSummaryDTO, error) {
	summary, err := s.engine.SummarizeGlobal(ctx, year)
	if err != nil {
		return GlobalSummaryDTO{}, err
	}
	dto := s.assembler.GlobalSummary(summary)
	if len(dto.DegradedSections) > 0 {
		s.publishDegraded(ctx, year, "global-summary", dto.DegradedSections)
	}
	return dto, nil
}

func (s *ServiceImpl) DetailedReport(ctx context.Context, query DetailedQuery) (DetailedReportDTO, error) {
	report, err := s.engine.DetailedReport(ctx, query)
	if err != nil {
		return DetailedReportDTO{}, err
	}
	dto := s.assembler.DetailedReport(report)
	if len(dto.DegradedSections) > 0 {
		s.publishDegraded(ctx, query.Year, "detailed", dto.DegradedSections)
	}
	return dto, nil
}

func (s *ServiceImpl) Invalidate(ctx context.Context, year int) error {
	if err := budget.ValidateYear(year); err != nil {
		return err
	}
	return s.eventBus.Publish(ctx, event_bus.FactsChangedType, event_bus.FactsChanged{Year: year})
}

func (s *ServiceImpl) publishDegraded(ctx context.Context, year int, report string, sections []string) {
	err := s.eventBus.Publish(ctx, event_bus.ReportDegradedType, event_bus.ReportDegraded{
		Year:     year,
		Report:   report,
		Sections: sections,
	})
	if err != nil {
		log.Warnf("failed to publish degraded %s report for %d: %v", report, year, err)
	}
}
