package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/stockinsights/sp500-collector/internal/database"
	"github.com/stockinsights/sp500-collector/internal/models"
)

// Store is what the orchestrator needs from persistence
type Store interface {
	FreshnessStore
	GetActiveCompanies(symbol string) ([]*models.Company, error)
	SaveDailyMetrics(ctx context.Context, symbol string, date time.Time, apply func(*models.DailyMetrics, database.CloseHistory) error) error
}

// MetricsSource produces the day's patch for one symbol
type MetricsSource interface {
	Fetch(ctx context.Context, symbol string) *MetricsPatch
}

// EventPublisher is notified after a company's record commits
type EventPublisher interface {
	PublishMetricsUpdated(ctx context.Context, m *models.DailyMetrics) error
}

// Options configure a single collection run
type Options struct {
	// Symbol restricts the run to one company when non-empty.
	Symbol string
	// BatchSize is the number of companies per rate-limit batch.
	BatchSize int
	// Delay is the micro delay between companies.
	Delay time.Duration
	// MaxCompanies caps the number of companies processed, 0 for no cap.
	MaxCompanies int
	// Force bypasses the freshness gate.
	Force bool
}

// Result is the final tally of a run
type Result struct {
	Processed  int
	Successful int
	Failed     int
}

// Orchestrator drives a collection run: select companies, gate them, fetch
// and derive metrics, and persist each company in its own transaction.
// Processing is strictly sequential; the rate limiter assumes calls happen
// one at a time in program order.
type Orchestrator struct {
	store      Store
	source     MetricsSource
	limiter    *Limiter
	calculator *ChangeCalculator
	events     EventPublisher

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

// NewOrchestrator creates an Orchestrator. events may be nil when publishing
// is disabled.
func NewOrchestrator(store Store, source MetricsSource, limiter *Limiter, events EventPublisher) *Orchestrator {
	return &Orchestrator{
		store:      store,
		source:     source,
		limiter:    limiter,
		calculator: NewChangeCalculator(),
		events:     events,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// Run executes one collection pass. Per-company failures are counted and do
// not stop the run; cancellation stops cleanly between companies and the
// partial tally is returned.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.Delay <= 0 {
		opts.Delay = o.limiter.CallDelay
	}

	result := &Result{}
	today := o.today()

	companies, err := o.store.GetActiveCompanies(opts.Symbol)
	if err != nil {
		return nil, fmt.Errorf("select companies: %w", err)
	}
	if len(companies) == 0 {
		log.Printf("[INFO] no companies found to update")
		return result, nil
	}

	selected, err := o.selectCompanies(companies, opts, today)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		log.Printf("[INFO] all companies are up to date for today")
		return result, nil
	}

	log.Printf("[INFO] processing %d companies in batches of %d", len(selected), opts.BatchSize)

	windowStart := o.now()
	callIndex := 0

	for i := 0; i < len(selected); i += opts.BatchSize {
		batch := selected[i:min(i+opts.BatchSize, len(selected))]
		batchStart := o.now()
		log.Printf("[INFO] processing batch %d (%d companies)", i/opts.BatchSize+1, len(batch))

		for _, company := range batch {
			select {
			case <-ctx.Done():
				log.Printf("[INFO] interrupted, stopping after %d companies", result.Processed)
				o.logSummary(result)
				return result, nil
			default:
			}

			if o.limiter.ShouldThrottle(callIndex) {
				if d := o.limiter.ComputeSleep(o.now().Sub(windowStart)); d > 0 {
					log.Printf("[INFO] rate limiting: sleeping for %.1fs", d.Seconds())
					o.sleep(ctx, d)
				}
				windowStart = o.now()
			}
			callIndex++

			if err := o.processCompany(ctx, company.Symbol, today); err != nil {
				result.Failed++
				log.Printf("[ERROR] %s: %v", company.Symbol, err)
			} else {
				result.Successful++
				log.Printf("[INFO] [SUCCESS] %s", company.Symbol)
			}
			result.Processed++

			o.sleep(ctx, opts.Delay)
		}

		// Rate-limit floor: a batch may not finish faster than
		// batchSize*delay plus a fixed buffer.
		minBatchTime := o.limiter.BatchFloor(opts.BatchSize, opts.Delay)
		if elapsed := o.now().Sub(batchStart); elapsed < minBatchTime {
			wait := minBatchTime - elapsed
			log.Printf("[INFO] rate limiting: waiting %.1fs before next batch", wait.Seconds())
			o.sleep(ctx, wait)
		}
	}

	o.logSummary(result)
	return result, nil
}

// selectCompanies applies the freshness gate and the MaxCompanies cap
func (o *Orchestrator) selectCompanies(companies []*models.Company, opts Options, today time.Time) ([]*models.Company, error) {
	gate := NewUpdateGate(o.store, opts.Force)

	var selected []*models.Company
	for _, company := range companies {
		needed, err := gate.NeedsUpdate(company.Symbol, today)
		if err != nil {
			return nil, fmt.Errorf("freshness check for %s: %w", company.Symbol, err)
		}
		if needed {
			selected = append(selected, company)
		}
	}

	if opts.MaxCompanies > 0 && len(selected) > opts.MaxCompanies {
		selected = selected[:opts.MaxCompanies]
	}
	return selected, nil
}

// processCompany fetches, derives, and persists one company's daily record
// inside a single transaction.
func (o *Orchestrator) processCompany(ctx context.Context, symbol string, today time.Time) error {
	patch := o.source.Fetch(ctx, symbol)

	var saved *models.DailyMetrics
	err := o.store.SaveDailyMetrics(ctx, symbol, today, func(m *models.DailyMetrics, history database.CloseHistory) error {
		patch.ApplyTo(m)
		if err := o.calculator.Apply(m, history, today); err != nil {
			return err
		}
		saved = m
		return nil
	})
	if err != nil {
		return err
	}

	if o.events != nil {
		if err := o.events.PublishMetricsUpdated(ctx, saved); err != nil {
			log.Printf("[WARN] publish event for %s: %v", symbol, err)
		}
	}
	return nil
}

func (o *Orchestrator) today() time.Time {
	y, m, d := o.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (o *Orchestrator) logSummary(r *Result) {
	log.Printf("[INFO] completed: processed %d, successful %d, failed %d",
		r.Processed, r.Successful, r.Failed)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
