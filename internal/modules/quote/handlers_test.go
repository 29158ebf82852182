package quote

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotedesk/edgeproxy/internal/cache"
	"github.com/quotedesk/edgeproxy/internal/clients/finnhub"
)

func newTestHandler(source QuoteSource, hasAPIKey bool) *Handler {
	svc := NewService(source, cache.New(CacheTTL, CacheMaxEntries), zerolog.Nop())
	return NewHandler(svc, hasAPIKey, zerolog.Nop())
}

func TestHandleQuoteSuccess(t *testing.T) {
	source := &stubSource{body: []byte(`{"c":123.45}`)}
	handler := newTestHandler(source, true)

	req := httptest.NewRequest(http.MethodGet, "/api/quote?symbol=aapl", nil)
	rec := httptest.NewRecorder()
	handler.HandleQuote(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"c":123.45}`, rec.Body.String())

	// Second request is served from cache.
	rec = httptest.NewRecorder()
	handler.HandleQuote(rec, httptest.NewRequest(http.MethodGet, "/api/quote?symbol=AAPL", nil))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, 1, source.calls)
}

func TestHandleQuoteInvalidSymbol(t *testing.T) {
	source := &stubSource{body: []byte(`{}`)}
	handler := newTestHandler(source, true)

	req := httptest.NewRequest(http.MethodGet, "/api/quote?symbol=AAPL%3Bdrop", nil)
	rec := httptest.NewRecorder()
	handler.HandleQuote(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, source.calls, "invalid symbols must be rejected before any upstream call")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Invalid symbol", body["error"])
}

func TestHandleQuoteNoAPIKey(t *testing.T) {
	handler := newTestHandler(&stubSource{}, false)

	req := httptest.NewRequest(http.MethodGet, "/api/quote?symbol=AAPL", nil)
	rec := httptest.NewRecorder()
	handler.HandleQuote(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "API key not configured", body["error"])
}

func TestHandleQuoteForwardsUpstreamStatus(t *testing.T) {
	source := &stubSource{err: &finnhub.UpstreamError{StatusCode: http.StatusTooManyRequests}}
	handler := newTestHandler(source, true)

	req := httptest.NewRequest(http.MethodGet, "/api/quote?symbol=AAPL", nil)
	rec := httptest.NewRecorder()
	handler.HandleQuote(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHandleQuoteBadGatewayOnTransportError(t *testing.T) {
	source := &stubSource{err: errors.New("connection refused")}
	handler := newTestHandler(source, true)

	req := httptest.NewRequest(http.MethodGet, "/api/quote?symbol=AAPL", nil)
	rec := httptest.NewRecorder()
	handler.HandleQuote(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
