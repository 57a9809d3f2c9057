package ticketmaster

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/justestif/concert-scout/internal/spotify"
)

const (
	// MaxFanOut caps how many artists are queried per recommendation call.
	MaxFanOut = 5

	// MaxEvents caps the merged recommendation list.
	MaxEvents = 20

	// SearchInterval is the minimum spacing between Discovery API calls.
	// The rate limit is enforced per caller identity, which is why the
	// fan-out is sequential rather than parallel.
	SearchInterval = time.Second
)

// TopArtistSource yields an owner's top artists. *spotify.Fetcher implements it.
type TopArtistSource interface {
	TopArtists(ctx context.Context, discordID string) ([]spotify.ArtistSnapshot, error)
}

// Searcher performs one artist search. *Client implements it.
type Searcher interface {
	SearchByArtist(ctx context.Context, artist string, from time.Time) ([]Event, error)
}

// Aggregator fans out per-artist searches and merges the results into a
// time-ordered recommendation list.
type Aggregator struct {
	artists TopArtistSource
	search  Searcher
	limiter *rate.Limiter
	now     func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLimiter overrides the call gate, used by tests to drop the delay.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(a *Aggregator) { a.limiter = limiter }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator creates an Aggregator gated at one search per SearchInterval.
func NewAggregator(artists TopArtistSource, search Searcher, opts ...Option) *Aggregator {
	a := &Aggregator{
		artists: artists,
		search:  search,
		limiter: rate.NewLimiter(rate.Every(SearchInterval), 1),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RecommendedEvents returns upcoming concerts for the owner's top artists,
// ordered by start time ascending and capped at MaxEvents. Artists are
// queried one at a time through the rate gate; a failed search fails the
// whole call rather than returning a silently partial list.
func (a *Aggregator) RecommendedEvents(ctx context.Context, discordID string) ([]Event, error) {
	artists, err := a.artists.TopArtists(ctx, discordID)
	if err != nil {
		return nil, err
	}
	if len(artists) > MaxFanOut {
		artists = artists[:MaxFanOut]
	}

	from := a.now()
	var merged []Event
	for _, artist := range artists {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate gate: %w", err)
		}

		events, err := a.search.SearchByArtist(ctx, artist.Name, from)
		if err != nil {
			return nil, fmt.Errorf("searching events for %q: %w", artist.Name, err)
		}
		merged = append(merged, events...)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].StartsAt.Before(merged[j].StartsAt)
	})
	if len(merged) > MaxEvents {
		merged = merged[:MaxEvents]
	}
	return merged, nil
}
