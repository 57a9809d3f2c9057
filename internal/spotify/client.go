// Package spotify fetches profile and top-artist data from the Spotify Web API.
package spotify

import (
	"context"
	"errors"
	"fmt"

	spotifyapi "github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// ErrProviderAPI is returned when a Spotify data call fails after a valid
// access token was obtained.
var ErrProviderAPI = errors.New("spotify data request failed")

// TopArtistLimit caps how many top artists one fetch returns. The concert
// aggregator relies on this bound for its fan-out ceiling.
const TopArtistLimit = 5

// TokenSource yields a valid access token for an owner, refreshing as
// needed. *tokenstore.Store implements it.
type TokenSource interface {
	AccessToken(ctx context.Context, discordID string) (string, error)
}

// api is the slice of the Spotify Web API the fetcher uses.
type api interface {
	CurrentUser(ctx context.Context) (*spotifyapi.PrivateUser, error)
	CurrentUsersTopArtists(ctx context.Context, opts ...spotifyapi.RequestOption) (*spotifyapi.FullArtistPage, error)
}

// Fetcher retrieves a user's profile and top artists using tokens from the
// credential store.
type Fetcher struct {
	tokens TokenSource

	// newAPI builds an API client for a bearer token. Tests swap it out.
	newAPI func(ctx context.Context, accessToken string) api
}

// NewFetcher creates a Fetcher backed by the real Spotify Web API.
func NewFetcher(tokens TokenSource) *Fetcher {
	return &Fetcher{
		tokens: tokens,
		newAPI: func(ctx context.Context, accessToken string) api {
			httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: accessToken,
				TokenType:   "Bearer",
			}))
			return spotifyapi.New(httpClient)
		},
	}
}

// Profile fetches the owner's Spotify profile.
func (f *Fetcher) Profile(ctx context.Context, discordID string) (Profile, error) {
	client, err := f.client(ctx, discordID)
	if err != nil {
		return Profile{}, err
	}

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: fetching profile: %v", ErrProviderAPI, err)
	}

	displayName := user.DisplayName
	if displayName == "" {
		displayName = user.ID
	}
	return Profile{
		SpotifyID:   user.ID,
		DisplayName: displayName,
	}, nil
}

// TopArtists fetches at most TopArtistLimit of the owner's top artists.
func (f *Fetcher) TopArtists(ctx context.Context, discordID string) ([]ArtistSnapshot, error) {
	client, err := f.client(ctx, discordID)
	if err != nil {
		return nil, err
	}

	page, err := client.CurrentUsersTopArtists(ctx, spotifyapi.Limit(TopArtistLimit))
	if err != nil {
		return nil, fmt.Errorf("%w: fetching top artists: %v", ErrProviderAPI, err)
	}

	artists := make([]ArtistSnapshot, 0, len(page.Artists))
	for _, item := range page.Artists {
		artists = append(artists, ArtistSnapshot{
			SpotifyID:  string(item.ID),
			Name:       item.Name,
			Genres:     item.Genres,
			Popularity: int(item.Popularity),
		})
	}
	if len(artists) > TopArtistLimit {
		artists = artists[:TopArtistLimit]
	}
	return artists, nil
}

// client obtains a valid token for the owner and wraps it in an API client.
// tokenstore.ErrAuthRequired passes through to the caller untouched.
func (f *Fetcher) client(ctx context.Context, discordID string) (api, error) {
	accessToken, err := f.tokens.AccessToken(ctx, discordID)
	if err != nil {
		return nil, err
	}
	return f.newAPI(ctx, accessToken), nil
}
