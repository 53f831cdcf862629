package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Company reference data and collected metrics
	api.HandleFunc("/companies", handler.GetAllCompanies).Methods("GET")
	api.HandleFunc("/companies/{symbol}", handler.GetCompany).Methods("GET")
	api.HandleFunc("/companies/{symbol}/metrics", handler.GetMetricsHistory).Methods("GET")
	api.HandleFunc("/companies/{symbol}/metrics/latest", handler.GetLatestMetrics).Methods("GET")

	// Screener
	api.HandleFunc("/screen", handler.ScreenMetrics).Methods("GET")

	// Watchlist
	api.HandleFunc("/watchlist", handler.GetWatchlist).Methods("GET")
	api.HandleFunc("/watchlist", handler.AddToWatchlist).Methods("POST")
	api.HandleFunc("/watchlist/{symbol}", handler.RemoveFromWatchlist).Methods("DELETE")

	return r
}
