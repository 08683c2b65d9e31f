package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Reports
	r.HandleFunc("/api/reports/{year}/area-summary", deps.ReportHandler.AreaSummary).Methods("GET")
	r.HandleFunc("/api/reports/{year}/global-summary", deps.ReportHandler.GlobalSummary).Methods("GET")
	r.HandleFunc("/api/reports/{year}/detailed", deps.ReportHandler.DetailedReport).Methods("GET")
	r.HandleFunc("/api/reports/{year}/invalidate", deps.ReportHandler.Invalidate).Methods("POST")

	// Reference data
	r.HandleFunc("/api/units", deps.HierarchyHandler.ListUnits).Methods("GET")
	r.HandleFunc("/api/classifiers", deps.HierarchyHandler.ListClassifiers).Methods("GET")

	r.HandleFunc("/api/health", deps.HealthHandler.Health).Methods("GET")
}
