package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockinsights/sp500-collector/internal/models"
)

const metricsColumns = `
	id, symbol, date,
	open_price, high_price, low_price, close_price, previous_close, volume,
	market_cap, pe_ratio, price_to_book, dividend_yield, sector,
	ma_20, ma_50, ma_100, ma_200,
	daily_change, daily_change_percent,
	monthly_change, monthly_change_percent,
	yearly_change, yearly_change_percent,
	last_updated, created_at`

// CloseHistory provides close-price lookbacks for derived-change calculation.
// Implementations read from the same transaction as the record being written.
type CloseHistory interface {
	ClosestCloseOnOrBefore(symbol string, cutoff time.Time) (decimal.Decimal, bool, error)
}

// SaveDailyMetrics gets or creates the (symbol, date) record, hands it to
// apply together with a transaction-scoped close history, and writes the
// result back. The whole read-modify-write commits atomically so a second
// concurrent run cannot interleave with it.
func (db *DB) SaveDailyMetrics(ctx context.Context, symbol string, date time.Time, apply func(*models.DailyMetrics, CloseHistory) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	m, err := getOrCreateMetricsTx(tx, symbol, date)
	if err != nil {
		return err
	}

	if err := apply(m, &txHistory{tx: tx}); err != nil {
		return err
	}

	if err := updateMetricsTx(tx, m); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit metrics for %s: %w", symbol, err)
	}
	return nil
}

// getOrCreateMetricsTx inserts an empty shell row for (symbol, date) if none
// exists, then locks and returns the row.
func getOrCreateMetricsTx(tx *sql.Tx, symbol string, date time.Time) (*models.DailyMetrics, error) {
	now := time.Now()
	_, err := tx.Exec(`
		INSERT INTO daily_metrics (symbol, date, last_updated, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol, date) DO NOTHING
	`, symbol, date, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics shell for %s: %w", symbol, err)
	}

	row := tx.QueryRow(`
		SELECT `+metricsColumns+`
		FROM daily_metrics
		WHERE symbol = $1 AND date = $2
		FOR UPDATE
	`, symbol, date)

	m, err := scanMetrics(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics for %s: %w", symbol, err)
	}
	return m, nil
}

// updateMetricsTx writes every mutable column and bumps last_updated.
func updateMetricsTx(tx *sql.Tx, m *models.DailyMetrics) error {
	m.LastUpdated = time.Now()
	_, err := tx.Exec(`
		UPDATE daily_metrics SET
			open_price = $2, high_price = $3, low_price = $4, close_price = $5,
			previous_close = $6, volume = $7,
			market_cap = $8, pe_ratio = $9, price_to_book = $10, dividend_yield = $11,
			sector = $12,
			ma_20 = $13, ma_50 = $14, ma_100 = $15, ma_200 = $16,
			daily_change = $17, daily_change_percent = $18,
			monthly_change = $19, monthly_change_percent = $20,
			yearly_change = $21, yearly_change_percent = $22,
			last_updated = $23
		WHERE id = $1
	`,
		m.ID,
		m.OpenPrice, m.HighPrice, m.LowPrice, m.ClosePrice,
		m.PreviousClose, m.Volume,
		m.MarketCap, m.PERatio, m.PriceToBook, m.DividendYield,
		m.Sector,
		m.MA20, m.MA50, m.MA100, m.MA200,
		m.DailyChange, m.DailyChangePercent,
		m.MonthlyChange, m.MonthlyChangePercent,
		m.YearlyChange, m.YearlyChangePercent,
		m.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to update metrics for %s: %w", m.Symbol, err)
	}
	return nil
}

type txHistory struct {
	tx *sql.Tx
}

func (h *txHistory) ClosestCloseOnOrBefore(symbol string, cutoff time.Time) (decimal.Decimal, bool, error) {
	return closestCloseOnOrBefore(h.tx, symbol, cutoff)
}

// ClosestCloseOnOrBefore returns the close price of the most recent record at
// or before cutoff that has one. Rows sharing a date should not exist, but if
// they do the one with the latest last_updated wins.
func (db *DB) ClosestCloseOnOrBefore(symbol string, cutoff time.Time) (decimal.Decimal, bool, error) {
	return closestCloseOnOrBefore(db.conn, symbol, cutoff)
}

type queryer interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

func closestCloseOnOrBefore(q queryer, symbol string, cutoff time.Time) (decimal.Decimal, bool, error) {
	var closePrice sql.NullString
	err := q.QueryRow(`
		SELECT close_price
		FROM daily_metrics
		WHERE symbol = $1 AND date <= $2 AND close_price IS NOT NULL
		ORDER BY date DESC, last_updated DESC
		LIMIT 1
	`, symbol, cutoff).Scan(&closePrice)

	if err == sql.ErrNoRows {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to look up close for %s: %w", symbol, err)
	}
	if !closePrice.Valid {
		return decimal.Zero, false, nil
	}

	d, err := decimal.NewFromString(closePrice.String)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to parse close for %s: %w", symbol, err)
	}
	return d, true, nil
}

// MetricsLastUpdated returns the last_updated timestamp of the (symbol, date)
// record, or found=false when no record exists.
func (db *DB) MetricsLastUpdated(symbol string, date time.Time) (time.Time, bool, error) {
	var lastUpdated time.Time
	err := db.conn.QueryRow(`
		SELECT last_updated FROM daily_metrics
		WHERE symbol = $1 AND date = $2
	`, symbol, date).Scan(&lastUpdated)

	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to check metrics freshness for %s: %w", symbol, err)
	}
	return lastUpdated, true, nil
}

// GetMetricsForDate retrieves the metrics record for a specific symbol and date
func (db *DB) GetMetricsForDate(symbol string, date time.Time) (*models.DailyMetrics, error) {
	row := db.conn.QueryRow(`
		SELECT `+metricsColumns+`
		FROM daily_metrics
		WHERE symbol = $1 AND date = $2
	`, symbol, date)

	m, err := scanMetrics(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("metrics not found for %s on %s", symbol, date.Format("2006-01-02"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics: %w", err)
	}
	return m, nil
}

// GetLatestMetrics retrieves the most recent metrics record for a symbol
func (db *DB) GetLatestMetrics(symbol string) (*models.DailyMetrics, error) {
	row := db.conn.QueryRow(`
		SELECT `+metricsColumns+`
		FROM daily_metrics
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT 1
	`, symbol)

	m, err := scanMetrics(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no metrics found for %s", symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest metrics: %w", err)
	}
	return m, nil
}

// GetMetricsHistory retrieves metrics for a symbol ordered by date descending
func (db *DB) GetMetricsHistory(symbol string, limit int) ([]*models.DailyMetrics, error) {
	rows, err := db.conn.Query(`
		SELECT `+metricsColumns+`
		FROM daily_metrics
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT $2
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics history: %w", err)
	}
	defer rows.Close()

	var history []*models.DailyMetrics
	for rows.Next() {
		m, err := scanMetrics(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metrics: %w", err)
		}
		history = append(history, m)
	}
	return history, rows.Err()
}

// ScreenMetrics filters a date's metrics rows by the given criteria
func (db *DB) ScreenMetrics(filter *models.ScreenFilter, date time.Time) ([]*models.DailyMetrics, error) {
	query := `
		SELECT ` + metricsColumns + `
		FROM daily_metrics
		WHERE date = $1`
	args := []interface{}{date}

	addCond := func(cond string, arg interface{}) {
		args = append(args, arg)
		query += fmt.Sprintf(" AND "+cond, len(args))
	}

	if filter.Sector != "" {
		addCond("sector ILIKE '%%' || $%d || '%%'", filter.Sector)
	}
	if filter.MinPrice != nil {
		addCond("close_price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		addCond("close_price <= $%d", *filter.MaxPrice)
	}
	if filter.MinMarketCapMillions != nil {
		addCond("market_cap >= $%d", *filter.MinMarketCapMillions*1_000_000)
	}
	if filter.MaxMarketCapMillions != nil {
		addCond("market_cap <= $%d", *filter.MaxMarketCapMillions*1_000_000)
	}
	if filter.MinPERatio != nil {
		addCond("pe_ratio >= $%d", *filter.MinPERatio)
	}
	if filter.MaxPERatio != nil {
		addCond("pe_ratio <= $%d", *filter.MaxPERatio)
	}
	if filter.MinVolume != nil {
		addCond("volume >= $%d", *filter.MinVolume)
	}

	query += " ORDER BY symbol ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to screen metrics: %w", err)
	}
	defer rows.Close()

	var results []*models.DailyMetrics
	for rows.Next() {
		m, err := scanMetrics(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metrics: %w", err)
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMetrics(s rowScanner) (*models.DailyMetrics, error) {
	var m models.DailyMetrics
	var open, high, low, closePrice, prev sql.NullString
	var volume, marketCap sql.NullInt64
	var pe, pb, dy sql.NullString
	var sector sql.NullString
	var ma20, ma50, ma100, ma200 sql.NullString
	var dc, dcp, mc, mcp, yc, ycp sql.NullString

	err := s.Scan(
		&m.ID, &m.Symbol, &m.Date,
		&open, &high, &low, &closePrice, &prev, &volume,
		&marketCap, &pe, &pb, &dy, &sector,
		&ma20, &ma50, &ma100, &ma200,
		&dc, &dcp, &mc, &mcp, &yc, &ycp,
		&m.LastUpdated, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.OpenPrice = nullDecimal(open)
	m.HighPrice = nullDecimal(high)
	m.LowPrice = nullDecimal(low)
	m.ClosePrice = nullDecimal(closePrice)
	m.PreviousClose = nullDecimal(prev)
	if volume.Valid {
		m.Volume = &volume.Int64
	}
	if marketCap.Valid {
		m.MarketCap = &marketCap.Int64
	}
	m.PERatio = nullDecimal(pe)
	m.PriceToBook = nullDecimal(pb)
	m.DividendYield = nullDecimal(dy)
	if sector.Valid {
		m.Sector = &sector.String
	}
	m.MA20 = nullDecimal(ma20)
	m.MA50 = nullDecimal(ma50)
	m.MA100 = nullDecimal(ma100)
	m.MA200 = nullDecimal(ma200)
	m.DailyChange = nullDecimal(dc)
	m.DailyChangePercent = nullDecimal(dcp)
	m.MonthlyChange = nullDecimal(mc)
	m.MonthlyChangePercent = nullDecimal(mcp)
	m.YearlyChange = nullDecimal(yc)
	m.YearlyChangePercent = nullDecimal(ycp)

	return &m, nil
}

func nullDecimal(v sql.NullString) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil
	}
	return &d
}
