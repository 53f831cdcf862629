package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavedCompany is a watchlist entry, one per symbol.
type SavedCompany struct {
	Symbol    string           `json:"symbol"`
	Name      string           `json:"name"`
	Sector    string           `json:"sector,omitempty"`
	MarketCap *int64           `json:"market_cap,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Notes     string           `json:"notes,omitempty"`
	SavedAt   time.Time        `json:"saved_at"`
}

// ScreenFilter holds the criteria for filtering today's metrics rows.
// Market cap bounds are expressed in millions, matching how users think
// about them; the store converts to absolute units.
type ScreenFilter struct {
	Sector               string           `json:"sector,omitempty"`
	MinPrice             *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice             *decimal.Decimal `json:"max_price,omitempty"`
	MinMarketCapMillions *int64           `json:"min_market_cap,omitempty"`
	MaxMarketCapMillions *int64           `json:"max_market_cap,omitempty"`
	MinPERatio           *decimal.Decimal `json:"min_pe_ratio,omitempty"`
	MaxPERatio           *decimal.Decimal `json:"max_pe_ratio,omitempty"`
	MinVolume            *int64           `json:"min_volume,omitempty"`
	Limit                int              `json:"limit,omitempty"`
}
