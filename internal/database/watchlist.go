package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stockinsights/sp500-collector/internal/models"
)

// SaveCompanyToWatchlist adds or refreshes a watchlist entry
func (db *DB) SaveCompanyToWatchlist(s *models.SavedCompany) error {
	query := `
		INSERT INTO saved_companies (symbol, name, sector, market_cap, price, notes, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			sector = EXCLUDED.sector,
			market_cap = EXCLUDED.market_cap,
			price = EXCLUDED.price,
			notes = EXCLUDED.notes
	`
	now := time.Now()
	_, err := db.conn.Exec(query,
		s.Symbol, s.Name, s.Sector, s.MarketCap, s.Price, s.Notes, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save company to watchlist: %w", err)
	}
	s.SavedAt = now
	return nil
}

// GetWatchlist retrieves all watchlist entries, most recently saved first
func (db *DB) GetWatchlist() ([]*models.SavedCompany, error) {
	query := `
		SELECT symbol, name, sector, market_cap, price, notes, saved_at
		FROM saved_companies
		ORDER BY saved_at DESC
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}
	defer rows.Close()

	var saved []*models.SavedCompany
	for rows.Next() {
		var s models.SavedCompany
		var sector, notes sql.NullString
		var marketCap sql.NullInt64
		var price sql.NullString

		err := rows.Scan(&s.Symbol, &s.Name, &sector, &marketCap, &price, &notes, &s.SavedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}

		if sector.Valid {
			s.Sector = sector.String
		}
		if marketCap.Valid {
			s.MarketCap = &marketCap.Int64
		}
		s.Price = nullDecimal(price)
		if notes.Valid {
			s.Notes = notes.String
		}
		saved = append(saved, &s)
	}
	return saved, rows.Err()
}

// RemoveCompanyFromWatchlist deletes a watchlist entry by symbol
func (db *DB) RemoveCompanyFromWatchlist(symbol string) error {
	result, err := db.conn.Exec(`DELETE FROM saved_companies WHERE symbol = $1`, symbol)
	if err != nil {
		return fmt.Errorf("failed to remove company from watchlist: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("watchlist entry not found: %s", symbol)
	}
	return nil
}
