package collector

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFreshness struct {
	lastUpdated map[string]time.Time
	err         error
}

func (f *fakeFreshness) MetricsLastUpdated(symbol string, date time.Time) (time.Time, bool, error) {
	if f.err != nil {
		return time.Time{}, false, f.err
	}
	ts, ok := f.lastUpdated[symbol]
	return ts, ok, nil
}

func TestUpdateGateNeedsUpdate(t *testing.T) {
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("no record means stale", func(t *testing.T) {
		gate := NewUpdateGate(&fakeFreshness{lastUpdated: map[string]time.Time{}}, false)

		needs, err := gate.NeedsUpdate("AAPL", today)
		require.NoError(t, err)
		assert.True(t, needs)
	})

	t.Run("record updated today is fresh", func(t *testing.T) {
		store := &fakeFreshness{lastUpdated: map[string]time.Time{
			"AAPL": time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
		}}
		gate := NewUpdateGate(store, false)

		needs, err := gate.NeedsUpdate("AAPL", today)
		require.NoError(t, err)
		assert.False(t, needs)
	})

	t.Run("record updated yesterday is stale", func(t *testing.T) {
		store := &fakeFreshness{lastUpdated: map[string]time.Time{
			"AAPL": time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC),
		}}
		gate := NewUpdateGate(store, false)

		needs, err := gate.NeedsUpdate("AAPL", today)
		require.NoError(t, err)
		assert.True(t, needs)
	})

	t.Run("force overrides freshness", func(t *testing.T) {
		store := &fakeFreshness{lastUpdated: map[string]time.Time{
			"AAPL": time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
		}}
		gate := NewUpdateGate(store, true)

		needs, err := gate.NeedsUpdate("AAPL", today)
		require.NoError(t, err)
		assert.True(t, needs)
	})

	t.Run("store error propagates", func(t *testing.T) {
		storeErr := errors.New("connection refused")
		gate := NewUpdateGate(&fakeFreshness{err: storeErr}, false)

		_, err := gate.NeedsUpdate("AAPL", today)
		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("force skips store entirely", func(t *testing.T) {
		gate := NewUpdateGate(&fakeFreshness{err: errors.New("down")}, true)

		needs, err := gate.NeedsUpdate("AAPL", today)
		require.NoError(t, err)
		assert.True(t, needs)
	})
}
