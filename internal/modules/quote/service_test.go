package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotedesk/edgeproxy/internal/cache"
)

// stubSource returns a canned body or error and counts calls.
type stubSource struct {
	body  []byte
	err   error
	calls int
}

func (s *stubSource) Quote(_ context.Context, _ string) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.body, nil
}

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"plain", "AAPL", "AAPL", false},
		{"lowercase", "tsla", "TSLA", false},
		{"dotted class", "brk.b", "BRK.B", false},
		{"whitespace", "  nvda ", "NVDA", false},
		{"empty", "", "", true},
		{"digits", "AAPL1", "", true},
		{"too long", "ABCDEFGHIJK", "", true},
		{"injection", "AAPL;DROP", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeSymbol(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSymbol)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetMissThenHit(t *testing.T) {
	source := &stubSource{body: []byte(`{"c":123.45}`)}
	svc := NewService(source, cache.New(CacheTTL, CacheMaxEntries), zerolog.Nop())

	first, err := svc.Get(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, CacheMiss, first.State)
	assert.Equal(t, 1, source.calls)

	second, err := svc.Get(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, CacheHit, second.State)
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, 1, source.calls, "a cache hit must not touch the upstream")
}

func TestGetServesStaleOnUpstreamFailure(t *testing.T) {
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := cache.New(CacheTTL, CacheMaxEntries)
	c.SetClock(func() time.Time { return clock })

	source := &stubSource{body: []byte(`{"c":123.45}`)}
	svc := NewService(source, c, zerolog.Nop())

	_, err := svc.Get(context.Background(), "AAPL")
	require.NoError(t, err)

	// Expire the entry, then break the upstream.
	clock = clock.Add(2 * CacheTTL)
	source.err = errors.New("connection refused")

	result, err := svc.Get(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, CacheStale, result.State)
	assert.Equal(t, []byte(`{"c":123.45}`), result.Body)
}

func TestGetErrorWithNoCachedFallback(t *testing.T) {
	source := &stubSource{err: errors.New("connection refused")}
	svc := NewService(source, cache.New(CacheTTL, CacheMaxEntries), zerolog.Nop())

	_, err := svc.Get(context.Background(), "AAPL")
	assert.Error(t, err)
}
