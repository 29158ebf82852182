// Package shortinterest serves short-interest metrics for a fixed watchlist.
//
// The route refreshes one aggregate document at a time: the watchlist is
// small and the poll cadence slow (hourly), so the whole dataset is rebuilt
// and cached atomically instead of per symbol. Symbols with no upstream data
// fall back to a hardcoded baseline table and are flagged stale.
package shortinterest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/quotedesk/edgeproxy/internal/cache"
	"github.com/quotedesk/edgeproxy/internal/clients/finnhub"
)

const (
	CacheTTL        = time.Hour
	CacheMaxEntries = 100

	cacheKey = "short-interest"

	// interCallDelay spaces out per-symbol metric fetches. Finnhub's free
	// tier allows 60 calls/minute; the delay keeps a full watchlist refresh
	// well inside that budget.
	interCallDelay = 250 * time.Millisecond
)

// Watchlist is the fixed symbol set this route covers.
var Watchlist = []string{"GME", "AMC", "TSLA", "AAPL", "NVDA", "PLTR", "SOFI", "RIVN"}

// baselineEntry is a hardcoded short-interest estimate used when the
// upstream has no data for a symbol.
type baselineEntry struct {
	shortPercentFloat float64
	daysToCover       float64
}

// baseline values carried over from the original dashboard's fallback table.
var baseline = map[string]baselineEntry{
	"GME":  {shortPercentFloat: 20.1, daysToCover: 4.2},
	"AMC":  {shortPercentFloat: 18.3, daysToCover: 3.1},
	"TSLA": {shortPercentFloat: 3.1, daysToCover: 1.4},
	"AAPL": {shortPercentFloat: 0.7, daysToCover: 1.1},
	"NVDA": {shortPercentFloat: 1.2, daysToCover: 1.0},
	"PLTR": {shortPercentFloat: 4.9, daysToCover: 2.0},
	"SOFI": {shortPercentFloat: 12.5, daysToCover: 3.6},
	"RIVN": {shortPercentFloat: 14.7, daysToCover: 4.8},
}

// MetricsSource is the upstream metrics surface the service depends on.
type MetricsSource interface {
	StockMetrics(ctx context.Context, symbol string) (*finnhub.Metrics, error)
}

// Entry is one symbol's short-interest record.
type Entry struct {
	Symbol            string   `json:"symbol"`
	ShortPercentFloat *float64 `json:"shortPercentFloat"`
	DaysToCover       *float64 `json:"daysToCover"`
	Source            string   `json:"source"`
	Stale             bool     `json:"stale,omitempty"`
}

// Document is the aggregate response payload.
type Document struct {
	Data   []Entry `json:"data"`
	AsOf   string  `json:"asOf"`
	Source string  `json:"source"`
}

// Service builds and caches the aggregate short-interest document.
type Service struct {
	source  MetricsSource
	cache   *cache.Cache
	symbols []string
	delay   time.Duration
	log     zerolog.Logger
	now     func() time.Time
}

// NewService creates a new short-interest service.
func NewService(source MetricsSource, c *cache.Cache, log zerolog.Logger) *Service {
	return &Service{
		source:  source,
		cache:   c,
		symbols: Watchlist,
		delay:   interCallDelay,
		log:     log.With().Str("service", "short_interest").Logger(),
		now:     time.Now,
	}
}

// SetClock overrides the service's time source for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SetDelay overrides the inter-call delay. Tests set it to zero.
func (s *Service) SetDelay(d time.Duration) {
	s.delay = d
}

// Snapshot returns the aggregate document and whether it came from cache.
// This route never errors: every symbol degrades to the baseline table.
func (s *Service) Snapshot(ctx context.Context) ([]byte, bool) {
	if body, ok := s.cache.Get(cacheKey); ok {
		return body, true
	}
	return s.Refresh(ctx), false
}

// Refresh rebuilds the aggregate document, caches it, and returns it.
// The cron job calls this directly to keep the slow route warm.
func (s *Service) Refresh(ctx context.Context) []byte {
	entries := make([]Entry, 0, len(s.symbols))
	liveCount := 0

	for i, symbol := range s.symbols {
		if i > 0 && s.delay > 0 {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
			}
		}

		entry, live := s.fetchEntry(ctx, symbol)
		if live {
			liveCount++
		}
		entries = append(entries, entry)
	}

	source := "finnhub"
	if liveCount == 0 {
		source = "baseline-estimate"
	}

	doc := Document{
		Data:   entries,
		AsOf:   s.now().UTC().Format(time.RFC3339),
		Source: source,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to marshal short-interest document")
		return []byte(`{"data":[],"asOf":"","source":"baseline-estimate"}`)
	}

	s.cache.Put(cacheKey, body)

	s.log.Info().
		Int("symbols", len(entries)).
		Int("live", liveCount).
		Msg("Short-interest snapshot refreshed")

	return body
}

// fetchEntry fetches one symbol's metrics, degrading to the baseline table
// when the upstream fails or has no short-interest data.
func (s *Service) fetchEntry(ctx context.Context, symbol string) (Entry, bool) {
	metrics, err := s.source.StockMetrics(ctx, symbol)
	if err == nil && metrics.ShortPercentFloat != nil {
		return Entry{
			Symbol:            symbol,
			ShortPercentFloat: metrics.ShortPercentFloat,
			DaysToCover:       metrics.ShortInterestDTC,
			Source:            "finnhub",
		}, true
	}

	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Metrics fetch failed, using baseline")
	}

	entry := Entry{
		Symbol: symbol,
		Source: "baseline-estimate",
		Stale:  true,
	}
	if b, ok := baseline[symbol]; ok {
		spf := b.shortPercentFloat
		dtc := b.daysToCover
		entry.ShortPercentFloat = &spf
		entry.DaysToCover = &dtc
	}
	return entry, false
}
