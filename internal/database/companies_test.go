package database

import (
	"testing"
	"time"

	"github.com/stockinsights/sp500-collector/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("UpsertCompany creates and updates", func(t *testing.T) {
		testDB.TruncateAll(t)

		company := &models.Company{
			Symbol:   "AAPL",
			Name:     "Apple Inc.",
			IsActive: true,
		}
		err := testDB.UpsertCompany(company)
		require.NoError(t, err)

		company.Name = "Apple Inc"
		company.IsActive = false
		err = testDB.UpsertCompany(company)
		require.NoError(t, err)

		retrieved, err := testDB.GetCompany("AAPL")
		require.NoError(t, err)
		assert.Equal(t, "Apple Inc", retrieved.Name)
		assert.False(t, retrieved.IsActive)
	})

	t.Run("GetCompany returns error for unknown symbol", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.GetCompany("NOPE")
		assert.Error(t, err)
	})

	t.Run("GetActiveCompanies filters and orders by symbol", func(t *testing.T) {
		testDB.TruncateAll(t)

		for _, c := range []*models.Company{
			{Symbol: "MSFT", Name: "Microsoft", IsActive: true},
			{Symbol: "AAPL", Name: "Apple", IsActive: true},
			{Symbol: "OLD", Name: "Delisted Corp", IsActive: false},
		} {
			require.NoError(t, testDB.UpsertCompany(c))
		}

		active, err := testDB.GetActiveCompanies("")
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, "AAPL", active[0].Symbol)
		assert.Equal(t, "MSFT", active[1].Symbol)
	})

	t.Run("GetActiveCompanies with symbol filter", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.UpsertCompany(&models.Company{Symbol: "AAPL", Name: "Apple", IsActive: true}))
		require.NoError(t, testDB.UpsertCompany(&models.Company{Symbol: "MSFT", Name: "Microsoft", IsActive: true}))

		active, err := testDB.GetActiveCompanies("MSFT")
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "MSFT", active[0].Symbol)
	})

	t.Run("UpsertCompany preserves removed date", func(t *testing.T) {
		testDB.TruncateAll(t)

		removed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		company := &models.Company{
			Symbol:      "GONE",
			Name:        "Gone Inc",
			IsActive:    false,
			RemovedDate: &removed,
		}
		require.NoError(t, testDB.UpsertCompany(company))

		retrieved, err := testDB.GetCompany("GONE")
		require.NoError(t, err)
		require.NotNil(t, retrieved.RemovedDate)
		assert.Equal(t, removed.Format("2006-01-02"), retrieved.RemovedDate.Format("2006-01-02"))
	})
}
