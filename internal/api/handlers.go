package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stockinsights/sp500-collector/internal/database"
	"github.com/stockinsights/sp500-collector/internal/models"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db *database.DB
}

// NewHandler creates a new Handler
func NewHandler(db *database.DB) *Handler {
	return &Handler{db: db}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetAllCompanies handles GET /api/v1/companies
func (h *Handler) GetAllCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.db.GetAllCompanies()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, companies)
}

// GetCompany handles GET /api/v1/companies/{symbol}
func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	company, err := h.db.GetCompany(symbol)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, company)
}

// GetMetricsHistory handles GET /api/v1/companies/{symbol}/metrics
func (h *Handler) GetMetricsHistory(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	limit := 30
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	history, err := h.db.GetMetricsHistory(symbol, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// GetLatestMetrics handles GET /api/v1/companies/{symbol}/metrics/latest
func (h *Handler) GetLatestMetrics(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	metrics, err := h.db.GetLatestMetrics(symbol)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

// ScreenMetrics handles GET /api/v1/screen
func (h *Handler) ScreenMetrics(w http.ResponseWriter, r *http.Request) {
	filter, err := parseScreenFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	date := time.Now()
	if v := r.URL.Query().Get("date"); v != "" {
		date, err = time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "invalid date, use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}
	y, m, d := date.Date()
	date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	results, err := h.db.ScreenMetrics(filter, date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

// GetWatchlist handles GET /api/v1/watchlist
func (h *Handler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	saved, err := h.db.GetWatchlist()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// AddToWatchlist handles POST /api/v1/watchlist
func (h *Handler) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	var saved models.SavedCompany
	if err := json.NewDecoder(r.Body).Decode(&saved); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if saved.Symbol == "" || saved.Name == "" {
		http.Error(w, "symbol and name are required", http.StatusBadRequest)
		return
	}

	if err := h.db.SaveCompanyToWatchlist(&saved); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

// RemoveFromWatchlist handles DELETE /api/v1/watchlist/{symbol}
func (h *Handler) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	if err := h.db.RemoveCompanyFromWatchlist(symbol); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseScreenFilter(r *http.Request) (*models.ScreenFilter, error) {
	q := r.URL.Query()
	filter := &models.ScreenFilter{Sector: q.Get("sector")}

	var err error
	if filter.MinPrice, err = decimalParam(q.Get("min_price")); err != nil {
		return nil, err
	}
	if filter.MaxPrice, err = decimalParam(q.Get("max_price")); err != nil {
		return nil, err
	}
	if filter.MinPERatio, err = decimalParam(q.Get("min_pe")); err != nil {
		return nil, err
	}
	if filter.MaxPERatio, err = decimalParam(q.Get("max_pe")); err != nil {
		return nil, err
	}
	if filter.MinMarketCapMillions, err = intParam(q.Get("min_market_cap")); err != nil {
		return nil, err
	}
	if filter.MaxMarketCapMillions, err = intParam(q.Get("max_market_cap")); err != nil {
		return nil, err
	}
	if filter.MinVolume, err = intParam(q.Get("min_volume")); err != nil {
		return nil, err
	}
	if limit, err := intParam(q.Get("limit")); err != nil {
		return nil, err
	} else if limit != nil {
		filter.Limit = int(*limit)
	}
	return filter, nil
}

func decimalParam(v string) (*decimal.Decimal, error) {
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func intParam(v string) (*int64, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
