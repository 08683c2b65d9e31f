package report

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/munitrack/munitrack/internal/rest"
	"github.com/munitrack/munitrack/pkg/budget"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service  Service
	renderer AreaSummaryRenderer
}

func NewHandler(service Service, renderer AreaSummaryRenderer) *Handler {
	return &Handler{service: service, renderer: renderer}
}

// AreaSummary godoc
// @Summary Execution summary per executing unit
// @Description Units ordered by execution percentage. Served from the result cache unless refresh is set.
// @Tags Reports
// @Produce json,text/csv
// @Param year path int true "Fiscal year"
// @Param refresh query bool false "Bypass the cache"
// @Success 200 {object} AreaSummaryDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/reports/{year}/area-summary [get]
func (h *Handler) AreaSummary(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	refresh := false
	if value := r.URL.Query().Get("refresh"); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid refresh flag", "refresh must be true or false")
			return
		}
		refresh = parsed
	}
	log.Debugf("Area summary for %d (refresh=%t)", year, refresh)

	summary, err := h.service.AreaSummary(r.Context(), year, refresh)
	if err != nil {
		writeReportError(w, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/csv") {
		csv, err := h.renderer.RenderAreaSummary(summary)
		if err != nil {
			rest.WriteError(w, http.StatusInternalServerError, "Failed to render csv", err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=area-summary-"+strconv.Itoa(year)+".csv")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(csv)); err != nil {
			log.Errorf("failed to write csv response: %v", err)
		}
		return
	}
	rest.WriteJSON(w, http.StatusOK, summary)
}

// GlobalSummary godoc
// @Summary Year totals with monthly and per-category breakdown
// @Tags Reports
// @Produce json
// @Param year path int true "Fiscal year"
// @Success 200 {object} GlobalSummaryDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/reports/{year}/global-summary [get]
func (h *Handler) GlobalSummary(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	log.Debugf("Global summary for %d", year)

	summary, err := h.service.GlobalSummary(r.Context(), year)
	if err != nil {
		writeReportError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, summary)
}

// DetailedReport godoc
// @Summary Detailed report with totals, accrual by month and per-classifier detail
// @Tags Reports
// @Produce json
// @Param year path int true "Fiscal year"
// @Param unit query int false "Executing unit code"
// @Param classifier query string false "Classifier code prefix"
// @Success 200 {object} DetailedReportDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/reports/{year}/detailed [get]
func (h *Handler) DetailedReport(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	query := DetailedQuery{Year: year, ClassifierPrefix: r.URL.Query().Get("classifier")}
	if value := r.URL.Query().Get("unit"); value != "" {
		unit, err := strconv.Atoi(value)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid unit", "unit must be a numeric unit code")
			return
		}
		query.Unit = &unit
	}
	log.Debugf("Detailed report %+v", query)

	report, err := h.service.DetailedReport(r.Context(), query)
	if err != nil {
		writeReportError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, report)
}

// Invalidate godoc
// @Summary Signal that the facts of a year changed
// @Description Drops the cached area summary of the year.
// @Tags Reports
// @Param year path int true "Fiscal year"
// @Success 204
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/reports/{year}/invalidate [post]
func (h *Handler) Invalidate(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	log.Infof("Invalidating reports of %d", year)
	if err := h.service.Invalidate(r.Context(), year); err != nil {
		writeReportError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	vars := mux.Vars(r)
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid year", "year must be an integer")
		return 0, false
	}
	return year, true
}

func writeReportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, budget.ErrInvalidInput):
		rest.WriteError(w, http.StatusBadRequest, "Invalid report request", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		rest.WriteError(w, http.StatusServiceUnavailable, "Report computation interrupted", err.Error())
	default:
		log.Errorf("report failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Report failed", err.Error())
	}
}
