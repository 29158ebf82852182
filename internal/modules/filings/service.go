// Package filings serves recent SEC S-3 filings with a three-tier fallback:
// EFTS full-text search, the browse-edgar Atom feed, then a broader company
// search. A tier is skipped on error or when it returns nothing; only
// non-empty results are cached so a transient failure cannot poison the
// cache for the full TTL.
package filings

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/quotedesk/edgeproxy/internal/cache"
	"github.com/quotedesk/edgeproxy/internal/clients/edgar"
)

const (
	CacheTTL        = 10 * time.Minute
	CacheMaxEntries = 100

	// FormType is the only form this route serves.
	FormType = "S-3"

	// searchWindowDays is the rolling window for the full-text search tier.
	searchWindowDays = 30

	cacheKey = "filings:" + FormType
)

// Source tags identifying which tier produced a document.
const (
	SourceEFTS    = "edgar-efts"
	SourceAtom    = "edgar-atom"
	SourceCompany = "edgar-company"
)

// FilingSource is the EDGAR lookup surface the service depends on.
type FilingSource interface {
	FullTextSearch(ctx context.Context, form string, windowDays int, now time.Time) ([]edgar.Filing, error)
	RecentFilingsFeed(ctx context.Context, form string) ([]edgar.Filing, error)
	CompanySearch(ctx context.Context, form string) ([]edgar.Filing, error)
}

// Document is the filings response payload.
type Document struct {
	Filings []edgar.Filing `json:"filings"`
	Total   int            `json:"total"`
	AsOf    string         `json:"asOf"`
	Source  string         `json:"source,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// strategy is one tier of the fallback chain.
type strategy struct {
	name  string
	fetch func(ctx context.Context) ([]edgar.Filing, error)
}

// Service fetches and caches filings.
type Service struct {
	source FilingSource
	cache  *cache.Cache
	log    zerolog.Logger
	now    func() time.Time
}

// NewService creates a new filings service.
func NewService(source FilingSource, c *cache.Cache, log zerolog.Logger) *Service {
	return &Service{
		source: source,
		cache:  c,
		log:    log.With().Str("service", "filings").Logger(),
		now:    time.Now,
	}
}

// SetClock overrides the service's time source for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Recent returns the recent-filings document and whether it came from cache.
// The document is always valid JSON; on total failure it is an uncached,
// explicitly-labeled empty result rather than an error.
func (s *Service) Recent(ctx context.Context) ([]byte, bool) {
	if body, ok := s.cache.Get(cacheKey); ok {
		return body, true
	}

	strategies := []strategy{
		{SourceEFTS, func(ctx context.Context) ([]edgar.Filing, error) {
			return s.source.FullTextSearch(ctx, FormType, searchWindowDays, s.now())
		}},
		{SourceAtom, func(ctx context.Context) ([]edgar.Filing, error) {
			return s.source.RecentFilingsFeed(ctx, FormType)
		}},
		{SourceCompany, func(ctx context.Context) ([]edgar.Filing, error) {
			return s.source.CompanySearch(ctx, FormType)
		}},
	}

	asOf := s.now().UTC().Format(time.RFC3339)

	for _, st := range strategies {
		filings, err := st.fetch(ctx)
		if err != nil {
			s.log.Warn().Err(err).Str("source", st.name).Msg("Filing source failed, trying next tier")
			continue
		}
		if len(filings) == 0 {
			s.log.Warn().Str("source", st.name).Msg("Filing source returned no filings, trying next tier")
			continue
		}

		doc := Document{
			Filings: filings,
			Total:   len(filings),
			AsOf:    asOf,
			Source:  st.name,
		}
		body, err := json.Marshal(doc)
		if err != nil {
			s.log.Error().Err(err).Msg("Failed to marshal filings document")
			continue
		}

		s.cache.Put(cacheKey, body)
		return body, false
	}

	s.log.Error().Msg("All filing sources exhausted, returning empty result")

	degraded := Document{
		Filings: []edgar.Filing{},
		Total:   0,
		AsOf:    asOf,
		Error:   "All filing sources unavailable",
	}
	body, _ := json.Marshal(degraded)
	return body, false
}
