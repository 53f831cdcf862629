package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Moving average periods collected for every company.
var MovingAveragePeriods = []int{20, 50, 100, 200}

// DailyMetrics is one day's collected metrics for a company. There is at most
// one row per (symbol, date); the row is created as an empty shell the first
// time any data for that day arrives and filled field by field as upstream
// calls succeed. A row is complete enough once it has a close price —
// everything else is opportunistic.
type DailyMetrics struct {
	ID     int64     `json:"id"`
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`

	OpenPrice     *decimal.Decimal `json:"open_price,omitempty"`
	HighPrice     *decimal.Decimal `json:"high_price,omitempty"`
	LowPrice      *decimal.Decimal `json:"low_price,omitempty"`
	ClosePrice    *decimal.Decimal `json:"close_price,omitempty"`
	PreviousClose *decimal.Decimal `json:"previous_close,omitempty"`
	Volume        *int64           `json:"volume,omitempty"`

	// Market cap in absolute currency units, not millions.
	MarketCap     *int64           `json:"market_cap,omitempty"`
	PERatio       *decimal.Decimal `json:"pe_ratio,omitempty"`
	PriceToBook   *decimal.Decimal `json:"price_to_book,omitempty"`
	DividendYield *decimal.Decimal `json:"dividend_yield,omitempty"`
	Sector        *string          `json:"sector,omitempty"`

	MA20  *decimal.Decimal `json:"ma_20,omitempty"`
	MA50  *decimal.Decimal `json:"ma_50,omitempty"`
	MA100 *decimal.Decimal `json:"ma_100,omitempty"`
	MA200 *decimal.Decimal `json:"ma_200,omitempty"`

	DailyChange          *decimal.Decimal `json:"daily_change,omitempty"`
	DailyChangePercent   *decimal.Decimal `json:"daily_change_percent,omitempty"`
	MonthlyChange        *decimal.Decimal `json:"monthly_change,omitempty"`
	MonthlyChangePercent *decimal.Decimal `json:"monthly_change_percent,omitempty"`
	YearlyChange         *decimal.Decimal `json:"yearly_change,omitempty"`
	YearlyChangePercent  *decimal.Decimal `json:"yearly_change_percent,omitempty"`

	LastUpdated time.Time `json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`
}
