package spotify

import (
	"context"
	"errors"
	"testing"

	spotifyapi "github.com/zmb3/spotify/v2"

	"github.com/justestif/concert-scout/internal/tokenstore"
)

type fakeTokens struct {
	token string
	err   error
}

func (f fakeTokens) AccessToken(_ context.Context, _ string) (string, error) {
	return f.token, f.err
}

type fakeAPI struct {
	user       *spotifyapi.PrivateUser
	artists    *spotifyapi.FullArtistPage
	err        error
	lastToken  string
	topCalled  bool
	userCalled bool
}

func (f *fakeAPI) CurrentUser(_ context.Context) (*spotifyapi.PrivateUser, error) {
	f.userCalled = true
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeAPI) CurrentUsersTopArtists(_ context.Context, _ ...spotifyapi.RequestOption) (*spotifyapi.FullArtistPage, error) {
	f.topCalled = true
	if f.err != nil {
		return nil, f.err
	}
	return f.artists, nil
}

func newTestFetcher(tokens TokenSource, apiClient *fakeAPI) *Fetcher {
	f := NewFetcher(tokens)
	f.newAPI = func(_ context.Context, accessToken string) api {
		apiClient.lastToken = accessToken
		return apiClient
	}
	return f
}

func fullArtist(id, name string, genres []string, popularity int) spotifyapi.FullArtist {
	var a spotifyapi.FullArtist
	a.ID = spotifyapi.ID(id)
	a.Name = name
	a.Genres = genres
	a.Popularity = spotifyapi.Numeric(popularity)
	return a
}

func TestProfile(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		want        Profile
	}{
		{
			name:        "display name present",
			displayName: "Alice",
			want:        Profile{SpotifyID: "sp123", DisplayName: "Alice"},
		},
		{
			name:        "empty display name falls back to id",
			displayName: "",
			want:        Profile{SpotifyID: "sp123", DisplayName: "sp123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &spotifyapi.PrivateUser{}
			user.ID = "sp123"
			user.DisplayName = tt.displayName

			apiClient := &fakeAPI{user: user}
			fetcher := newTestFetcher(fakeTokens{token: "valid-token"}, apiClient)

			got, err := fetcher.Profile(context.Background(), "owner")
			if err != nil {
				t.Fatalf("Profile() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Profile() = %+v, want %+v", got, tt.want)
			}
			if apiClient.lastToken != "valid-token" {
				t.Errorf("bearer token = %q, want %q", apiClient.lastToken, "valid-token")
			}
		})
	}
}

func TestProfileAuthRequired(t *testing.T) {
	fetcher := newTestFetcher(fakeTokens{err: tokenstore.ErrAuthRequired}, &fakeAPI{})

	_, err := fetcher.Profile(context.Background(), "owner")
	if !errors.Is(err, tokenstore.ErrAuthRequired) {
		t.Fatalf("Profile() error = %v, want ErrAuthRequired", err)
	}
}

func TestProfileProviderError(t *testing.T) {
	apiClient := &fakeAPI{err: errors.New("http 502")}
	fetcher := newTestFetcher(fakeTokens{token: "valid-token"}, apiClient)

	_, err := fetcher.Profile(context.Background(), "owner")
	if !errors.Is(err, ErrProviderAPI) {
		t.Fatalf("Profile() error = %v, want ErrProviderAPI", err)
	}
	if errors.Is(err, tokenstore.ErrAuthRequired) {
		t.Error("provider failure misclassified as ErrAuthRequired")
	}
}

func TestTopArtists(t *testing.T) {
	apiClient := &fakeAPI{
		artists: &spotifyapi.FullArtistPage{
			Artists: []spotifyapi.FullArtist{
				fullArtist("a1", "Radiohead", []string{"alternative", "rock"}, 88),
				fullArtist("a2", "Cher", []string{"pop"}, 75),
			},
		},
	}
	fetcher := newTestFetcher(fakeTokens{token: "valid-token"}, apiClient)

	got, err := fetcher.TopArtists(context.Background(), "owner")
	if err != nil {
		t.Fatalf("TopArtists() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	want := ArtistSnapshot{SpotifyID: "a1", Name: "Radiohead", Genres: []string{"alternative", "rock"}, Popularity: 88}
	if got[0].SpotifyID != want.SpotifyID || got[0].Name != want.Name || got[0].Popularity != want.Popularity {
		t.Errorf("first artist = %+v, want %+v", got[0], want)
	}
}

func TestTopArtistsCappedAtLimit(t *testing.T) {
	page := &spotifyapi.FullArtistPage{}
	for i := 0; i < TopArtistLimit+2; i++ {
		page.Artists = append(page.Artists, fullArtist(
			string(rune('a'+i)), "Artist", nil, 50,
		))
	}
	apiClient := &fakeAPI{artists: page}
	fetcher := newTestFetcher(fakeTokens{token: "valid-token"}, apiClient)

	got, err := fetcher.TopArtists(context.Background(), "owner")
	if err != nil {
		t.Fatalf("TopArtists() error = %v", err)
	}
	if len(got) != TopArtistLimit {
		t.Errorf("len = %d, want the hard limit %d", len(got), TopArtistLimit)
	}
}

func TestTopArtistsAuthRequired(t *testing.T) {
	fetcher := newTestFetcher(fakeTokens{err: tokenstore.ErrAuthRequired}, &fakeAPI{})

	_, err := fetcher.TopArtists(context.Background(), "owner")
	if !errors.Is(err, tokenstore.ErrAuthRequired) {
		t.Fatalf("TopArtists() error = %v, want ErrAuthRequired", err)
	}
}
