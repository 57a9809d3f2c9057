// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// DefaultAddr is the default HTTP listen address.
const DefaultAddr = "127.0.0.1:3000"

// Config holds all settings the process needs at startup.
type Config struct {
	Addr                string
	DatabaseURL         string
	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURI  string
	TicketmasterAPIKey  string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first if present (ignored in production).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:                os.Getenv("ADDR"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		SpotifyRedirectURI:  os.Getenv("SPOTIFY_REDIRECT_URI"),
		TicketmasterAPIKey:  os.Getenv("TICKETMASTER_API_KEY"),
	}

	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
		return nil, fmt.Errorf("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required")
	}
	if cfg.SpotifyRedirectURI == "" {
		cfg.SpotifyRedirectURI = "http://" + cfg.Addr + "/api/v1/spotify/callback"
	}
	if cfg.TicketmasterAPIKey == "" {
		return nil, fmt.Errorf("TICKETMASTER_API_KEY is required")
	}

	return cfg, nil
}
