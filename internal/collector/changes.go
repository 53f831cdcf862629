package collector

import (
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockinsights/sp500-collector/internal/database"
	"github.com/stockinsights/sp500-collector/internal/models"
)

// ChangeCalculator derives monthly and yearly price changes from previously
// stored closes.
type ChangeCalculator struct {
	MonthlyLookbackDays int
	YearlyLookbackDays  int
}

// NewChangeCalculator returns a calculator with the standard 30/365 day
// lookbacks.
func NewChangeCalculator() *ChangeCalculator {
	return &ChangeCalculator{
		MonthlyLookbackDays: 30,
		YearlyLookbackDays:  365,
	}
}

// Apply computes monthly and yearly changes for the record against the
// company's history. When today's close is absent all derived computation is
// skipped.
func (c *ChangeCalculator) Apply(m *models.DailyMetrics, history database.CloseHistory, today time.Time) error {
	if m.ClosePrice == nil {
		log.Printf("[WARN] no close price for %s, skipping change calculation", m.Symbol)
		return nil
	}

	monthly, err := c.change(m, history, today, c.MonthlyLookbackDays)
	if err != nil {
		return err
	}
	if monthly != nil {
		m.MonthlyChange = &monthly.absolute
		m.MonthlyChangePercent = monthly.percent
	}

	yearly, err := c.change(m, history, today, c.YearlyLookbackDays)
	if err != nil {
		return err
	}
	if yearly != nil {
		m.YearlyChange = &yearly.absolute
		m.YearlyChangePercent = yearly.percent
	}
	return nil
}

type priceChange struct {
	absolute decimal.Decimal
	percent  *decimal.Decimal
}

func (c *ChangeCalculator) change(m *models.DailyMetrics, history database.CloseHistory, today time.Time, lookbackDays int) (*priceChange, error) {
	cutoff := today.AddDate(0, 0, -lookbackDays)

	prior, found, err := history.ClosestCloseOnOrBefore(m.Symbol, cutoff)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	change := priceChange{absolute: m.ClosePrice.Sub(prior)}
	if !prior.IsZero() {
		percent := change.absolute.Div(prior).Mul(decimal.NewFromInt(100))
		change.percent = &percent
	}
	return &change, nil
}
