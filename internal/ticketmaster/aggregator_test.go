package ticketmaster

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/justestif/concert-scout/internal/spotify"
	"github.com/justestif/concert-scout/internal/tokenstore"
)

type fakeArtists struct {
	artists []spotify.ArtistSnapshot
	err     error
}

func (f fakeArtists) TopArtists(_ context.Context, _ string) ([]spotify.ArtistSnapshot, error) {
	return f.artists, f.err
}

type fakeSearcher struct {
	events  map[string][]Event
	failFor string
	calls   []string
}

func (f *fakeSearcher) SearchByArtist(_ context.Context, artist string, _ time.Time) ([]Event, error) {
	f.calls = append(f.calls, artist)
	if artist == f.failFor {
		return nil, ErrSearchFailed
	}
	return f.events[artist], nil
}

func snapshots(names ...string) []spotify.ArtistSnapshot {
	out := make([]spotify.ArtistSnapshot, len(names))
	for i, name := range names {
		out[i] = spotify.ArtistSnapshot{SpotifyID: "id-" + name, Name: name}
	}
	return out
}

func eventOn(id string, day time.Time) Event {
	return Event{ID: id, Name: id, StartsAt: day}
}

// unthrottled drops the one-second gate so tests run instantly.
func unthrottled() Option {
	return WithLimiter(rate.NewLimiter(rate.Inf, 1))
}

func TestRecommendedEventsMergesAndOrders(t *testing.T) {
	searcher := &fakeSearcher{
		events: map[string][]Event{
			"A": {eventOn("a", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))},
			"B": {eventOn("b", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))},
			"C": {eventOn("c", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))},
		},
	}
	agg := NewAggregator(fakeArtists{artists: snapshots("A", "B", "C")}, searcher, unthrottled())

	events, err := agg.RecommendedEvents(context.Background(), "owner")
	if err != nil {
		t.Fatalf("RecommendedEvents() error = %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("len = %d, want 3", len(events))
	}
	wantOrder := []string{"b", "c", "a"}
	for i, want := range wantOrder {
		if events[i].ID != want {
			t.Errorf("events[%d] = %q, want %q (ascending by start time)", i, events[i].ID, want)
		}
	}
}

func TestRecommendedEventsFanOutCeiling(t *testing.T) {
	searcher := &fakeSearcher{events: map[string][]Event{}}
	agg := NewAggregator(
		fakeArtists{artists: snapshots("A", "B", "C", "D", "E", "F", "G")},
		searcher,
		unthrottled(),
	)

	if _, err := agg.RecommendedEvents(context.Background(), "owner"); err != nil {
		t.Fatalf("RecommendedEvents() error = %v", err)
	}

	if len(searcher.calls) != MaxFanOut {
		t.Errorf("search calls = %d for 7 artists, want the ceiling %d", len(searcher.calls), MaxFanOut)
	}
}

func TestRecommendedEventsCap(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	events := map[string][]Event{}
	for i, name := range []string{"A", "B", "C", "D", "E"} {
		for j := 0; j < 5; j++ {
			events[name] = append(events[name], eventOn(
				name+string(rune('0'+j)),
				base.AddDate(0, 0, i*5+j),
			))
		}
	}
	searcher := &fakeSearcher{events: events}
	agg := NewAggregator(fakeArtists{artists: snapshots("A", "B", "C", "D", "E")}, searcher, unthrottled())

	got, err := agg.RecommendedEvents(context.Background(), "owner")
	if err != nil {
		t.Fatalf("RecommendedEvents() error = %v", err)
	}
	if len(got) != MaxEvents {
		t.Errorf("len = %d, want cap %d", len(got), MaxEvents)
	}
	for i := 1; i < len(got); i++ {
		if got[i].StartsAt.Before(got[i-1].StartsAt) {
			t.Errorf("events out of order at %d: %v before %v", i, got[i].StartsAt, got[i-1].StartsAt)
		}
	}
}

// One failed artist search fails the whole aggregation. Partial tolerance is
// a possible future change, but today's contract is all-or-nothing.
func TestRecommendedEventsSearchFailureAborts(t *testing.T) {
	searcher := &fakeSearcher{
		events: map[string][]Event{
			"A": {eventOn("a", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))},
		},
		failFor: "B",
	}
	agg := NewAggregator(fakeArtists{artists: snapshots("A", "B", "C")}, searcher, unthrottled())

	_, err := agg.RecommendedEvents(context.Background(), "owner")
	if !errors.Is(err, ErrSearchFailed) {
		t.Fatalf("RecommendedEvents() error = %v, want ErrSearchFailed", err)
	}
}

func TestRecommendedEventsAuthRequiredPropagates(t *testing.T) {
	agg := NewAggregator(fakeArtists{err: tokenstore.ErrAuthRequired}, &fakeSearcher{}, unthrottled())

	_, err := agg.RecommendedEvents(context.Background(), "owner")
	if !errors.Is(err, tokenstore.ErrAuthRequired) {
		t.Fatalf("RecommendedEvents() error = %v, want ErrAuthRequired", err)
	}
}

func TestRecommendedEventsSequentialGate(t *testing.T) {
	searcher := &fakeSearcher{events: map[string][]Event{}}
	// A tight but real interval: three artists must take at least two waits.
	agg := NewAggregator(
		fakeArtists{artists: snapshots("A", "B", "C")},
		searcher,
		WithLimiter(rate.NewLimiter(rate.Every(10*time.Millisecond), 1)),
	)

	start := time.Now()
	if _, err := agg.RecommendedEvents(context.Background(), "owner"); err != nil {
		t.Fatalf("RecommendedEvents() error = %v", err)
	}

	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("three searches finished in %v, want the gate to space them out", elapsed)
	}
	if len(searcher.calls) != 3 {
		t.Errorf("search calls = %d, want 3", len(searcher.calls))
	}
}
