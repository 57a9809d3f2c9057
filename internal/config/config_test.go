package config

import "testing"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/concert_scout_test")
	t.Setenv("SPOTIFY_CLIENT_ID", "client-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "client-secret")
	t.Setenv("TICKETMASTER_API_KEY", "tm-key")
	t.Setenv("SPOTIFY_REDIRECT_URI", "")
	t.Setenv("ADDR", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Addr, DefaultAddr)
	}
	want := "http://" + DefaultAddr + "/api/v1/spotify/callback"
	if cfg.SpotifyRedirectURI != want {
		t.Errorf("SpotifyRedirectURI = %q, want %q", cfg.SpotifyRedirectURI, want)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"missing database url", "DATABASE_URL"},
		{"missing spotify id", "SPOTIFY_CLIENT_ID"},
		{"missing spotify secret", "SPOTIFY_CLIENT_SECRET"},
		{"missing ticketmaster key", "TICKETMASTER_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			if _, err := Load(); err == nil {
				t.Fatalf("Load() error = nil, want error when %s unset", tt.unset)
			}
		})
	}
}
