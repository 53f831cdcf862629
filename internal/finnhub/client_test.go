package finnhub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, New(server.URL, "test-key")
}

func TestGetQuote(t *testing.T) {
	t.Run("parses a full payload", func(t *testing.T) {
		_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/quote", r.URL.Path)
			assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
			assert.Equal(t, "test-key", r.URL.Query().Get("token"))
			w.Write([]byte(`{"c":190.5,"h":191.2,"l":186.9,"o":187.5,"pc":185,"v":52000000}`))
		})

		quote, err := client.GetQuote(context.Background(), "AAPL")
		require.NoError(t, err)

		require.NotNil(t, quote.Current)
		assert.Equal(t, 190.5, *quote.Current)
		require.NotNil(t, quote.PreviousClose)
		assert.Equal(t, 185.0, *quote.PreviousClose)
		require.NotNil(t, quote.Volume)
		assert.Equal(t, int64(52000000), *quote.Volume)
	})

	t.Run("absent keys stay nil", func(t *testing.T) {
		_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"c":45}`))
		})

		quote, err := client.GetQuote(context.Background(), "XYZ")
		require.NoError(t, err)

		require.NotNil(t, quote.Current)
		assert.Nil(t, quote.PreviousClose)
		assert.Nil(t, quote.Volume)
	})

	t.Run("non-2xx is an APIError", func(t *testing.T) {
		_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`API limit reached`))
		})

		_, err := client.GetQuote(context.Background(), "AAPL")
		require.Error(t, err)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
		assert.Contains(t, apiErr.Body, "API limit reached")
	})

	t.Run("malformed body is an error", func(t *testing.T) {
		_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>gateway timeout</html>`))
		})

		_, err := client.GetQuote(context.Background(), "AAPL")
		assert.Error(t, err)
	})
}

func TestGetBasicFinancials(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/metric", r.URL.Path)
		assert.Equal(t, "all", r.URL.Query().Get("metric"))
		w.Write([]byte(`{"metric":{"marketCapitalization":2950000.25,"peBasicExclExtraTTM":28.5,"ignoredKey":1.0}}`))
	})

	financials, err := client.GetBasicFinancials(context.Background(), "AAPL")
	require.NoError(t, err)

	require.NotNil(t, financials.Metric.MarketCapitalization)
	assert.Equal(t, 2950000.25, *financials.Metric.MarketCapitalization)
	require.NotNil(t, financials.Metric.PEBasicExclExtraTTM)
	assert.Nil(t, financials.Metric.PBAnnual)
}

func TestGetProfile(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/profile2", r.URL.Path)
		w.Write([]byte(`{"name":"Apple Inc","exchange":"NASDAQ","finnhubIndustry":"Technology"}`))
	})

	profile, err := client.GetProfile(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Technology", profile.FinnhubIndustry)
	assert.Equal(t, "Apple Inc", profile.Name)
}

func TestGetSMA(t *testing.T) {
	t.Run("parses the series and request params", func(t *testing.T) {
		var query map[string]string
		_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			query = map[string]string{
				"resolution": r.URL.Query().Get("resolution"),
				"indicator":  r.URL.Query().Get("indicator"),
				"timeperiod": r.URL.Query().Get("timeperiod"),
			}
			w.Write([]byte(`{"sma":[100.1,100.5,101.2],"c":[99,100,101]}`))
		})

		series, err := client.GetSMA(context.Background(), "AAPL", 50)
		require.NoError(t, err)

		assert.Equal(t, []float64{100.1, 100.5, 101.2}, series)
		assert.Equal(t, "D", query["resolution"])
		assert.Equal(t, "sma", query["indicator"])
		assert.Equal(t, strconv.Itoa(50), query["timeperiod"])
	})

	t.Run("empty series", func(t *testing.T) {
		_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"sma":[]}`))
		})

		series, err := client.GetSMA(context.Background(), "XYZ", 20)
		require.NoError(t, err)
		assert.Empty(t, series)
	})
}
