package report

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/munitrack/munitrack/internal/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(f *fixture) *mux.Router {
	handler := NewHandler(f.service, NewCsvRenderer())
	router := mux.NewRouter()
	router.HandleFunc("/api/reports/{year}/area-summary", handler.AreaSummary).Methods("GET")
	router.HandleFunc("/api/reports/{year}/global-summary", handler.GlobalSummary).Methods("GET")
	router.HandleFunc("/api/reports/{year}/detailed", handler.DetailedReport).Methods("GET")
	router.HandleFunc("/api/reports/{year}/invalidate", handler.Invalidate).Methods("POST")
	return router
}

func serve(router *mux.Router, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_AreaSummary(t *testing.T) {
	f := newFixture(t, 1, publicWorks)
	f.facts.AddAllocations(allocation(10, "2.1.1", 1000, 0, 0))
	f.facts.AddExecutions(execution(10, "2.1.1", 1, 250))
	router := newRouter(f)

	t.Run("should return json summary", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/reports/2024/area-summary", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		var summary AreaSummaryDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&summary))
		require.Len(t, summary.Units, 1)
		assert.Equal(t, 25.0, summary.Units[0].PercentageExecuted)
		assert.Equal(t, 750.0, summary.Units[0].AmountRemaining)
	})

	t.Run("should render csv when requested", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/reports/2024/area-summary?refresh=true", map[string]string{"Accept": "text/csv"})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "10,Public works,1000.00,1000.00,0.00,0.00,250.00,250.00,125.00,62.50,750.00,25.00\n")
	})

	t.Run("should reject invalid years", func(t *testing.T) {
		for _, target := range []string{"/api/reports/abc/area-summary", "/api/reports/1899/area-summary", "/api/reports/2024/area-summary?refresh=maybe"} {
			w := serve(router, http.MethodGet, target, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code, target)
			var body rest.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		}
	})
}

func TestHandler_DetailedReport(t *testing.T) {
	f := newFixture(t, 2, publicWorks, health)
	seedDetailed(f)
	router := newRouter(f)

	t.Run("should return detailed report", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/reports/2024/detailed?unit=10&classifier=2.3", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var report DetailedReportDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
		assert.Equal(t, 2024, report.Year)
		assert.Equal(t, "2.3", report.Filters.Classifier)
		require.NotNil(t, report.Filters.Unit)
		assert.Equal(t, 10, *report.Filters.Unit)
		assert.Equal(t, "Public works", report.Unit.Description)
		require.Len(t, report.ByClassifier, 1)
		assert.Equal(t, ClassifierDetailDTO{
			Code:              "2.3.1",
			Description:       "Office supplies",
			Pim:               200,
			Certified:         200,
			Committed:         100,
			AccruedTotal:      250,
			AccruedMonth3:     250,
			RemainingToAccrue: -50,
		}, report.ByClassifier[0])
	})

	t.Run("should reject unknown or malformed filters", func(t *testing.T) {
		for _, target := range []string{
			"/api/reports/2024/detailed?unit=ten",
			"/api/reports/2024/detailed?unit=99",
			"/api/reports/2024/detailed?classifier=9.9",
			"/api/reports/2101/detailed",
		} {
			w := serve(router, http.MethodGet, target, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code, target)
		}
	})
}

func TestHandler_GlobalSummaryAndInvalidate(t *testing.T) {
	f := newFixture(t, 1, publicWorks)
	f.facts.AddAllocations(allocation(10, "2.1.1", 1000, 0, 0))
	router := newRouter(f)

	w := serve(router, http.MethodGet, "/api/reports/2024/global-summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary GlobalSummaryDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&summary))
	assert.Equal(t, 1000.0, summary.Totals.Modified)

	w = serve(router, http.MethodPost, "/api/reports/2024/invalidate", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
