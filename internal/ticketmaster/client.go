// Package ticketmaster queries the Ticketmaster Discovery API for upcoming
// concerts and aggregates per-artist results into recommendations.
package ticketmaster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://app.ticketmaster.com/discovery/v2/events"
	userAgent      = "concert-scout/1.0"

	// SearchPageSize is the page size of every search call. The Discovery
	// API rate limit is strict, so each artist query asks for a single event.
	SearchPageSize = 1
)

// ErrSearchFailed is returned when the Discovery API rejects a search or
// answers with a malformed body.
var ErrSearchFailed = errors.New("ticketmaster search failed")

// Client is a Ticketmaster Discovery API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client authenticated with the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SearchByArtist returns upcoming music events matching the artist name,
// starting no earlier than from, ordered by date ascending. At most
// SearchPageSize events come back per call.
func (c *Client) SearchByArtist(ctx context.Context, artist string, from time.Time) ([]Event, error) {
	params := url.Values{
		"apikey":             {c.apiKey},
		"keyword":            {artist},
		"classificationName": {"music"},
		"size":               {strconv.Itoa(SearchPageSize)},
		"sort":               {"date,asc"},
		"startDateTime":      {from.UTC().Format("2006-01-02T15:04:05Z")},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrSearchFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrSearchFailed, resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parsing response: %v", ErrSearchFailed, err)
	}

	events := make([]Event, 0, len(parsed.Embedded.Events))
	for _, payload := range parsed.Embedded.Events {
		events = append(events, payload.event())
	}
	return events, nil
}
