package finnhub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotePassthrough(t *testing.T) {
	payload := `{"c":123.45,"d":1.2,"dp":0.98,"h":124.1,"l":122.3,"o":123.0,"pc":122.25,"t":1717243800}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	client := NewClient("test-key", zerolog.Nop())
	client.baseURL = server.URL

	body, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)

	// The body is passed through verbatim, not re-encoded.
	assert.Equal(t, payload, string(body))
}

func TestQuoteNoAPIKey(t *testing.T) {
	client := NewClient("", zerolog.Nop())

	_, err := client.Quote(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestQuoteUpstreamStatusForwarded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-key", zerolog.Nop())
	client.baseURL = server.URL

	_, err := client.Quote(context.Background(), "AAPL")
	require.Error(t, err)

	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusTooManyRequests, ue.StatusCode)
}

func TestQuoteRejectsNonJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	client := NewClient("test-key", zerolog.Nop())
	client.baseURL = server.URL

	_, err := client.Quote(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestStockMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/metric", r.URL.Path)
		assert.Equal(t, "GME", r.URL.Query().Get("symbol"))
		assert.Equal(t, "all", r.URL.Query().Get("metric"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"metric":{"shortInterestSharePercent":21.4,"shortInterestDaysToCover":4.1,"institutionalOwnershipPercent":28.9,"52WeekHigh":81.25}}`))
	}))
	defer server.Close()

	client := NewClient("test-key", zerolog.Nop())
	client.baseURL = server.URL

	m, err := client.StockMetrics(context.Background(), "GME")
	require.NoError(t, err)

	require.NotNil(t, m.ShortPercentFloat)
	assert.InDelta(t, 21.4, *m.ShortPercentFloat, 0.001)
	require.NotNil(t, m.ShortInterestDTC)
	assert.InDelta(t, 4.1, *m.ShortInterestDTC, 0.001)
	require.NotNil(t, m.InstitutionalOwnership)
	assert.InDelta(t, 28.9, *m.InstitutionalOwnership, 0.001)
}

func TestStockMetricsMissingFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"metric":{"52WeekHigh":81.25}}`))
	}))
	defer server.Close()

	client := NewClient("test-key", zerolog.Nop())
	client.baseURL = server.URL

	m, err := client.StockMetrics(context.Background(), "XYZ")
	require.NoError(t, err)

	assert.Nil(t, m.ShortPercentFloat)
	assert.Nil(t, m.ShortInterestDTC)
	assert.Nil(t, m.InstitutionalOwnership)
}
