package collector

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockinsights/sp500-collector/internal/finnhub"
	"github.com/stockinsights/sp500-collector/internal/models"
)

// indicatorDelay paces the four moving-average requests within one symbol.
const indicatorDelay = 200 * time.Millisecond

// API is the slice of the Finnhub client the fetcher needs
type API interface {
	GetQuote(ctx context.Context, symbol string) (*finnhub.Quote, error)
	GetBasicFinancials(ctx context.Context, symbol string) (*finnhub.BasicFinancials, error)
	GetProfile(ctx context.Context, symbol string) (*finnhub.Profile, error)
	GetSMA(ctx context.Context, symbol string, period int) ([]float64, error)
}

// SectorCache caches sector lookups across runs
type SectorCache interface {
	GetSector(ctx context.Context, symbol string) (string, bool)
	SetSector(ctx context.Context, symbol, sector string) error
}

// Fetcher assembles a MetricsPatch for one symbol from the upstream
// endpoints. Each call is independently fallible: a failure leaves its
// fields out of the patch and never blocks the other calls.
type Fetcher struct {
	api     API
	sectors SectorCache
	sleep   func(time.Duration)
}

// NewFetcher creates a Fetcher. sectors may be nil to disable caching.
func NewFetcher(api API, sectors SectorCache) *Fetcher {
	return &Fetcher{
		api:     api,
		sectors: sectors,
		sleep:   time.Sleep,
	}
}

// Fetch gathers all available data for a symbol into a patch
func (f *Fetcher) Fetch(ctx context.Context, symbol string) *MetricsPatch {
	patch := &MetricsPatch{}
	f.fetchQuote(ctx, symbol, patch)
	f.fetchFundamentals(ctx, symbol, patch)
	f.fetchSector(ctx, symbol, patch)
	f.fetchMovingAverages(ctx, symbol, patch)
	return patch
}

func (f *Fetcher) fetchQuote(ctx context.Context, symbol string, patch *MetricsPatch) {
	quote, err := f.api.GetQuote(ctx, symbol)
	if err != nil {
		log.Printf("[WARN] %v", err)
		return
	}

	patch.Open = fromFloat(quote.Open)
	patch.High = fromFloat(quote.High)
	patch.Low = fromFloat(quote.Low)
	patch.Close = fromFloat(quote.Current)
	patch.PreviousClose = fromFloat(quote.PreviousClose)
	patch.Volume = quote.Volume

	if patch.Close != nil && patch.PreviousClose != nil {
		change := patch.Close.Sub(*patch.PreviousClose)
		patch.DailyChange = &change
		if !patch.PreviousClose.IsZero() {
			percent := change.Div(*patch.PreviousClose).Mul(decimal.NewFromInt(100))
			patch.DailyChangePercent = &percent
		}
	}
}

func (f *Fetcher) fetchFundamentals(ctx context.Context, symbol string, patch *MetricsPatch) {
	financials, err := f.api.GetBasicFinancials(ctx, symbol)
	if err != nil {
		log.Printf("[WARN] %v", err)
		return
	}

	metric := financials.Metric
	if v := metric.MarketCapitalization; v != nil && *v != 0 {
		// Reported in millions; stored in absolute units, fraction dropped.
		marketCap := int64(*v * 1_000_000)
		patch.MarketCap = &marketCap
	}
	if v := metric.PEBasicExclExtraTTM; v != nil && *v != 0 {
		patch.PERatio = fromFloat(v)
	}
	if v := metric.PBAnnual; v != nil && *v != 0 {
		patch.PriceToBook = fromFloat(v)
	}
	if v := metric.DividendYieldIndicatedAnnual; v != nil && *v != 0 {
		patch.DividendYield = fromFloat(v)
	}
}

func (f *Fetcher) fetchSector(ctx context.Context, symbol string, patch *MetricsPatch) {
	if f.sectors != nil {
		if sector, ok := f.sectors.GetSector(ctx, symbol); ok {
			patch.Sector = &sector
			return
		}
	}

	profile, err := f.api.GetProfile(ctx, symbol)
	if err != nil {
		log.Printf("[WARN] %v", err)
		return
	}
	if profile.FinnhubIndustry == "" {
		return
	}

	patch.Sector = &profile.FinnhubIndustry
	if f.sectors != nil {
		if err := f.sectors.SetSector(ctx, symbol, profile.FinnhubIndustry); err != nil {
			log.Printf("[WARN] %v", err)
		}
	}
}

func (f *Fetcher) fetchMovingAverages(ctx context.Context, symbol string, patch *MetricsPatch) {
	for i, period := range models.MovingAveragePeriods {
		if i > 0 {
			f.sleep(indicatorDelay)
		}

		series, err := f.api.GetSMA(ctx, symbol, period)
		if err != nil {
			log.Printf("[WARN] %v", err)
			continue
		}
		if len(series) == 0 {
			continue
		}
		patch.SetMovingAverage(period, decimal.NewFromFloat(series[len(series)-1]))
	}
}

func fromFloat(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}
