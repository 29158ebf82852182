// Package quote serves real-time quotes proxied from Finnhub.
package quote

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quotedesk/edgeproxy/internal/cache"
)

const (
	// CacheTTL is short because quotes go stale quickly.
	CacheTTL        = 60 * time.Second
	CacheMaxEntries = 200
)

// ErrInvalidSymbol is returned for symbols that fail validation. No network
// call is made for invalid input.
var ErrInvalidSymbol = errors.New("invalid symbol")

var symbolRe = regexp.MustCompile(`^[A-Z.]{1,10}$`)

// NormalizeSymbol uppercases and validates a raw symbol parameter.
func NormalizeSymbol(raw string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if !symbolRe.MatchString(symbol) {
		return "", ErrInvalidSymbol
	}
	return symbol, nil
}

// CacheState labels how a result was obtained, surfaced via the X-Cache header.
type CacheState string

const (
	CacheHit   CacheState = "HIT"
	CacheMiss  CacheState = "MISS"
	CacheStale CacheState = "STALE" // expired cache served because the upstream failed
)

// Result is a quote response body plus its cache disposition.
type Result struct {
	Body  []byte
	State CacheState
}

// QuoteSource is the upstream quote surface the service depends on.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) ([]byte, error)
}

// Service fetches quotes with a cache-then-upstream-then-stale strategy.
type Service struct {
	client QuoteSource
	cache  *cache.Cache
	log    zerolog.Logger
}

// NewService creates a new quote service.
func NewService(client QuoteSource, c *cache.Cache, log zerolog.Logger) *Service {
	return &Service{
		client: client,
		cache:  c,
		log:    log.With().Str("service", "quote").Logger(),
	}
}

// Get returns the quote for an already-normalized symbol. On upstream
// failure the last cached value is served even if expired, tagged STALE so
// callers can detect it. Only when no cached value exists does the upstream
// error propagate.
func (s *Service) Get(ctx context.Context, symbol string) (*Result, error) {
	if body, ok := s.cache.Get(symbol); ok {
		return &Result{Body: body, State: CacheHit}, nil
	}

	body, err := s.client.Quote(ctx, symbol)
	if err == nil {
		s.cache.Put(symbol, body)
		return &Result{Body: body, State: CacheMiss}, nil
	}

	if stale, ok := s.cache.GetStale(symbol); ok {
		s.log.Warn().
			Err(err).
			Str("symbol", symbol).
			Msg("Upstream quote failed, serving stale cached value")
		return &Result{Body: stale, State: CacheStale}, nil
	}

	return nil, err
}
