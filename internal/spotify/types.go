package spotify

// Profile is the slice of a Spotify user profile the synchronizer stores.
type Profile struct {
	SpotifyID   string
	DisplayName string
}

// ArtistSnapshot is one artist from a user's top-artist list as fetched from
// Spotify, before it has a database identity.
type ArtistSnapshot struct {
	SpotifyID  string
	Name       string
	Genres     []string
	Popularity int
}
