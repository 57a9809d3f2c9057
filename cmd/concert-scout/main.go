// Command concert-scout runs the Concert Scout API server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/justestif/concert-scout/internal/auth"
	"github.com/justestif/concert-scout/internal/config"
	"github.com/justestif/concert-scout/internal/db"
	"github.com/justestif/concert-scout/internal/spotify"
	"github.com/justestif/concert-scout/internal/sync"
	"github.com/justestif/concert-scout/internal/ticketmaster"
	"github.com/justestif/concert-scout/internal/tokenstore"
	"github.com/justestif/concert-scout/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	database, err := db.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	authClient := auth.New(auth.Config{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
		RedirectURI:  cfg.SpotifyRedirectURI,
	})

	tokens := tokenstore.New(database.Credentials(), authClient)
	fetcher := spotify.NewFetcher(tokens)
	syncer := sync.New(database)

	tmClient := ticketmaster.NewClient(cfg.TicketmasterAPIKey)
	recommender := ticketmaster.NewAggregator(fetcher, tmClient)

	handlers := web.NewHandlers(authClient, tokens, fetcher, syncer, recommender, logger)
	server := web.NewServer(cfg.Addr, handlers, logger)

	return server.Run()
}
