package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stockinsights/sp500-collector/internal/models"
)

// UpsertCompany inserts or updates a company in the reference set
func (db *DB) UpsertCompany(c *models.Company) error {
	query := `
		INSERT INTO companies (symbol, name, is_active, added_date, removed_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			is_active = EXCLUDED.is_active,
			added_date = EXCLUDED.added_date,
			removed_date = EXCLUDED.removed_date,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	if c.AddedDate.IsZero() {
		c.AddedDate = now
	}

	_, err := db.conn.Exec(query,
		c.Symbol, c.Name, c.IsActive, c.AddedDate, c.RemovedDate, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert company: %w", err)
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// GetCompany retrieves a single company by symbol
func (db *DB) GetCompany(symbol string) (*models.Company, error) {
	query := `
		SELECT symbol, name, is_active, added_date, removed_date, created_at, updated_at
		FROM companies
		WHERE symbol = $1
	`
	var c models.Company
	var removed sql.NullTime

	err := db.conn.QueryRow(query, symbol).Scan(
		&c.Symbol, &c.Name, &c.IsActive, &c.AddedDate, &removed, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("company not found: %s", symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	if removed.Valid {
		c.RemovedDate = &removed.Time
	}
	return &c, nil
}

// GetActiveCompanies retrieves active companies ordered by symbol. When
// symbol is non-empty the result is filtered to that one symbol.
func (db *DB) GetActiveCompanies(symbol string) ([]*models.Company, error) {
	query := `
		SELECT symbol, name, is_active, added_date, removed_date, created_at, updated_at
		FROM companies
		WHERE is_active = TRUE
	`
	args := []interface{}{}
	if symbol != "" {
		query += " AND symbol = $1"
		args = append(args, symbol)
	}
	query += " ORDER BY symbol ASC"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get active companies: %w", err)
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		var c models.Company
		var removed sql.NullTime

		err := rows.Scan(&c.Symbol, &c.Name, &c.IsActive, &c.AddedDate, &removed, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		if removed.Valid {
			c.RemovedDate = &removed.Time
		}
		companies = append(companies, &c)
	}
	return companies, rows.Err()
}

// GetAllCompanies retrieves the full reference set ordered by symbol
func (db *DB) GetAllCompanies() ([]*models.Company, error) {
	query := `
		SELECT symbol, name, is_active, added_date, removed_date, created_at, updated_at
		FROM companies
		ORDER BY symbol ASC
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get companies: %w", err)
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		var c models.Company
		var removed sql.NullTime

		err := rows.Scan(&c.Symbol, &c.Name, &c.IsActive, &c.AddedDate, &removed, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		if removed.Valid {
			c.RemovedDate = &removed.Time
		}
		companies = append(companies, &c)
	}
	return companies, rows.Err()
}
