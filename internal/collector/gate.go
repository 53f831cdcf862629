package collector

import (
	"time"
)

// FreshnessStore answers whether a (symbol, date) record exists and when it
// was last written.
type FreshnessStore interface {
	MetricsLastUpdated(symbol string, date time.Time) (time.Time, bool, error)
}

// UpdateGate decides whether a company needs a refresh for the current date.
// Freshness is purely the calendar date of last_updated: a row written today
// is fresh even if only some of its fields were populated, so a flaky
// upstream is not hammered again until the next day.
type UpdateGate struct {
	store FreshnessStore
	force bool
}

// NewUpdateGate creates a gate. force makes NeedsUpdate always return true.
func NewUpdateGate(store FreshnessStore, force bool) *UpdateGate {
	return &UpdateGate{store: store, force: force}
}

// NeedsUpdate reports whether the symbol should be collected for today
func (g *UpdateGate) NeedsUpdate(symbol string, today time.Time) (bool, error) {
	if g.force {
		return true, nil
	}

	lastUpdated, found, err := g.store.MetricsLastUpdated(symbol, today)
	if err != nil {
		return false, err
	}
	if !found {
		return true, nil
	}
	return !sameCalendarDay(lastUpdated, today), nil
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
