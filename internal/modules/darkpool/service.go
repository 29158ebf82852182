// Package darkpool serves per-symbol dark-pool activity estimates.
//
// There is no free dark-pool feed, so the estimate is derived from
// institutional-ownership percentage via a fixed linear mapping. When no
// ownership data is available the estimate is left null and the record is
// tagged "estimate" - computing a final fallback value is deliberately left
// to the caller.
package darkpool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quotedesk/edgeproxy/internal/cache"
	"github.com/quotedesk/edgeproxy/internal/clients/finnhub"
	"github.com/quotedesk/edgeproxy/internal/modules/quote"
)

const (
	CacheTTL        = time.Hour
	CacheMaxEntries = 200

	cacheKeyPrefix = "darkpool:"
)

// Linear mapping from institutional ownership to an ATS-share estimate.
// Heuristic values carried over from the original dashboard, kept as named
// constants pending product-owner review.
const (
	ATSBasePercent     = 30.0
	ATSOwnershipFactor = 0.25
)

// ErrNoValidSymbols is returned when no requested symbol passes validation.
var ErrNoValidSymbols = errors.New("no valid symbols")

// Entry is one symbol's dark-pool estimate.
type Entry struct {
	Symbol     string   `json:"symbol"`
	AtsPercent *float64 `json:"atsPercent"`
	Source     string   `json:"source"`
}

// Document is the dark-pool response payload.
type Document struct {
	Data []Entry `json:"data"`
	AsOf string  `json:"asOf"`
}

// cachedEntry is the per-symbol cache record. The fetch timestamp rides
// along so assembled documents are identical for as long as every entry is
// served from cache.
type cachedEntry struct {
	Entry Entry  `json:"entry"`
	AsOf  string `json:"asOf"`
}

// MetricsSource is the upstream metrics surface the service depends on.
type MetricsSource interface {
	StockMetrics(ctx context.Context, symbol string) (*finnhub.Metrics, error)
}

// Service builds dark-pool documents from per-symbol cached estimates.
type Service struct {
	source MetricsSource
	cache  *cache.Cache
	log    zerolog.Logger
	now    func() time.Time
}

// NewService creates a new dark-pool service.
func NewService(source MetricsSource, c *cache.Cache, log zerolog.Logger) *Service {
	return &Service{
		source: source,
		cache:  c,
		log:    log.With().Str("service", "dark_pool").Logger(),
		now:    time.Now,
	}
}

// SetClock overrides the service's time source for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ParseSymbols splits, case-normalizes, and validates a comma-separated
// symbols parameter. Invalid entries are dropped; an error is returned only
// when nothing valid remains.
func ParseSymbols(raw string) ([]string, error) {
	var symbols []string
	for _, part := range strings.Split(raw, ",") {
		symbol, err := quote.NormalizeSymbol(part)
		if err != nil {
			continue
		}
		symbols = append(symbols, symbol)
	}
	if len(symbols) == 0 {
		return nil, ErrNoValidSymbols
	}
	return symbols, nil
}

// Lookup returns a document covering the given symbols. Each symbol is
// cached independently with its own TTL.
func (s *Service) Lookup(ctx context.Context, symbols []string) []byte {
	entries := make([]Entry, 0, len(symbols))
	asOf := ""

	for _, symbol := range symbols {
		ce := s.entryFor(ctx, symbol)
		entries = append(entries, ce.Entry)
		if ce.AsOf > asOf {
			asOf = ce.AsOf
		}
	}

	doc := Document{Data: entries, AsOf: asOf}
	body, err := json.Marshal(doc)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to marshal dark-pool document")
		return []byte(`{"data":[],"asOf":""}`)
	}
	return body
}

// entryFor returns the cached record for symbol, fetching and caching a
// fresh one on miss.
func (s *Service) entryFor(ctx context.Context, symbol string) cachedEntry {
	key := cacheKeyPrefix + symbol

	if body, ok := s.cache.Get(key); ok {
		var ce cachedEntry
		if err := json.Unmarshal(body, &ce); err == nil {
			return ce
		}
	}

	ce := cachedEntry{
		Entry: s.deriveEntry(ctx, symbol),
		AsOf:  s.now().UTC().Format(time.RFC3339),
	}

	if body, err := json.Marshal(ce); err == nil {
		s.cache.Put(key, body)
	}
	return ce
}

// deriveEntry computes the estimate for one symbol.
func (s *Service) deriveEntry(ctx context.Context, symbol string) Entry {
	metrics, err := s.source.StockMetrics(ctx, symbol)
	if err == nil && metrics.InstitutionalOwnership != nil {
		ats := ATSBasePercent + *metrics.InstitutionalOwnership*ATSOwnershipFactor
		return Entry{
			Symbol:     symbol,
			AtsPercent: &ats,
			Source:     "finnhub-derived",
		}
	}

	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Metrics fetch failed, returning null estimate")
	}

	return Entry{
		Symbol:     symbol,
		AtsPercent: nil,
		Source:     "estimate",
	}
}
