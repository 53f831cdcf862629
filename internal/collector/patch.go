package collector

import (
	"github.com/shopspring/decimal"
	"github.com/stockinsights/sp500-collector/internal/models"
)

// MetricsPatch is a sparse partial update assembled from the per-symbol
// remote calls. Every field is optional; a nil field means the upstream call
// failed or the payload did not carry the value, and the corresponding
// record field is left untouched.
type MetricsPatch struct {
	Open          *decimal.Decimal
	High          *decimal.Decimal
	Low           *decimal.Decimal
	Close         *decimal.Decimal
	PreviousClose *decimal.Decimal
	Volume        *int64

	DailyChange        *decimal.Decimal
	DailyChangePercent *decimal.Decimal

	MarketCap     *int64
	PERatio       *decimal.Decimal
	PriceToBook   *decimal.Decimal
	DividendYield *decimal.Decimal
	Sector        *string

	MA20  *decimal.Decimal
	MA50  *decimal.Decimal
	MA100 *decimal.Decimal
	MA200 *decimal.Decimal
}

// ApplyTo merges the present fields into the record, leaving absent ones as
// they were.
func (p *MetricsPatch) ApplyTo(m *models.DailyMetrics) {
	if p.Open != nil {
		m.OpenPrice = p.Open
	}
	if p.High != nil {
		m.HighPrice = p.High
	}
	if p.Low != nil {
		m.LowPrice = p.Low
	}
	if p.Close != nil {
		m.ClosePrice = p.Close
	}
	if p.PreviousClose != nil {
		m.PreviousClose = p.PreviousClose
	}
	if p.Volume != nil {
		m.Volume = p.Volume
	}
	if p.DailyChange != nil {
		m.DailyChange = p.DailyChange
	}
	if p.DailyChangePercent != nil {
		m.DailyChangePercent = p.DailyChangePercent
	}
	if p.MarketCap != nil {
		m.MarketCap = p.MarketCap
	}
	if p.PERatio != nil {
		m.PERatio = p.PERatio
	}
	if p.PriceToBook != nil {
		m.PriceToBook = p.PriceToBook
	}
	if p.DividendYield != nil {
		m.DividendYield = p.DividendYield
	}
	if p.Sector != nil {
		m.Sector = p.Sector
	}
	if p.MA20 != nil {
		m.MA20 = p.MA20
	}
	if p.MA50 != nil {
		m.MA50 = p.MA50
	}
	if p.MA100 != nil {
		m.MA100 = p.MA100
	}
	if p.MA200 != nil {
		m.MA200 = p.MA200
	}
}

// SetMovingAverage assigns the SMA value for the given period.
func (p *MetricsPatch) SetMovingAverage(period int, value decimal.Decimal) {
	switch period {
	case 20:
		p.MA20 = &value
	case 50:
		p.MA50 = &value
	case 100:
		p.MA100 = &value
	case 200:
		p.MA200 = &value
	}
}
