package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"

	"github.com/justestif/concert-scout/internal/auth"
	"github.com/justestif/concert-scout/internal/db"
	"github.com/justestif/concert-scout/internal/spotify"
	"github.com/justestif/concert-scout/internal/sync"
	"github.com/justestif/concert-scout/internal/ticketmaster"
	"github.com/justestif/concert-scout/internal/tokenstore"
)

// Authorizer builds authorize URLs and exchanges authorization codes.
// *auth.Client implements it.
type Authorizer interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// CredentialStore is the slice of the token store the handlers need.
type CredentialStore interface {
	Put(ctx context.Context, discordID string, token *oauth2.Token) error
	Delete(ctx context.Context, discordID string) error
}

// Fetcher retrieves Spotify data for an owner.
type Fetcher interface {
	Profile(ctx context.Context, discordID string) (spotify.Profile, error)
	TopArtists(ctx context.Context, discordID string) ([]spotify.ArtistSnapshot, error)
}

// Syncer persists fetched Spotify data.
type Syncer interface {
	SyncProfile(ctx context.Context, discordID string, profile spotify.Profile) (*db.User, error)
	SyncTopArtists(ctx context.Context, discordID string, artists []spotify.ArtistSnapshot) ([]db.UserArtist, error)
}

// Recommender produces the merged concert list.
type Recommender interface {
	RecommendedEvents(ctx context.Context, discordID string) ([]ticketmaster.Event, error)
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	auth        Authorizer
	credentials CredentialStore
	fetcher     Fetcher
	syncer      Syncer
	recommender Recommender
	logger      *log.Logger
}

// NewHandlers creates a Handlers instance.
func NewHandlers(authorizer Authorizer, credentials CredentialStore, fetcher Fetcher, syncer Syncer, recommender Recommender, logger *log.Logger) *Handlers {
	return &Handlers{
		auth:        authorizer,
		credentials: credentials,
		fetcher:     fetcher,
		syncer:      syncer,
		recommender: recommender,
		logger:      logger,
	}
}

// Authorize returns a fresh authorization URL for the owner
// (GET /api/v1/spotify/auth/{discordID}).
func (h *Handlers) Authorize(w http.ResponseWriter, r *http.Request) {
	discordID := chi.URLParam(r, "discordID")
	if discordID == "" {
		respondError(w, http.StatusBadRequest, "discord id is required")
		return
	}

	url, err := h.authURL(discordID)
	if err != nil {
		h.logger.Error("building auth url", "err", err)
		respondError(w, http.StatusInternalServerError, "failed to build authorization URL")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"authUrl": url})
}

// Callback completes the authorization flow
// (GET /api/v1/spotify/callback?code=...&state=...).
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		respondError(w, http.StatusBadRequest, "spotify authorization denied: "+errMsg)
		return
	}

	discordID, err := auth.DecodeState(r.URL.Query().Get("state"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "authorization code is required")
		return
	}

	token, err := h.auth.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("exchanging authorization code", "discord_id", discordID, "err", err)
		respondError(w, http.StatusBadGateway, "failed to complete authorization")
		return
	}

	if err := h.credentials.Put(r.Context(), discordID, token); err != nil {
		h.logger.Error("storing credential", "discord_id", discordID, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to store credential")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Spotify Connected</title></head>
<body>
<h1>Spotify Connected!</h1>
<p>You can close this window and return to Discord.</p>
</body>
</html>`)
}

// profileResponse is the body of a successful profile view.
type profileResponse struct {
	Connected bool         `json:"connected"`
	User      *userJSON    `json:"user,omitempty"`
	Artists   []artistJSON `json:"artists,omitempty"`
	AuthURL   string       `json:"authUrl,omitempty"`
	Message   string       `json:"message,omitempty"`
}

type userJSON struct {
	ID          string `json:"id"`
	SpotifyID   string `json:"spotify_id"`
	DisplayName string `json:"display_name"`
}

type artistJSON struct {
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
	PlayCount  int      `json:"play_count"`
}

// ProfileView fetches, synchronizes and returns the owner's profile and top
// artists (GET /api/v1/spotify/profile/{discordID}). An owner without a
// valid credential gets a connect link, never a bare error.
func (h *Handlers) ProfileView(w http.ResponseWriter, r *http.Request) {
	discordID := chi.URLParam(r, "discordID")
	if discordID == "" {
		respondError(w, http.StatusBadRequest, "discord id is required")
		return
	}
	ctx := r.Context()

	profile, err := h.fetcher.Profile(ctx, discordID)
	if err != nil {
		h.respondFetchFailure(w, discordID, err)
		return
	}

	user, err := h.syncer.SyncProfile(ctx, discordID, profile)
	if err != nil {
		h.logger.Error("syncing profile", "discord_id", discordID, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	snapshots, err := h.fetcher.TopArtists(ctx, discordID)
	if err != nil {
		h.respondFetchFailure(w, discordID, err)
		return
	}

	links, err := h.syncer.SyncTopArtists(ctx, discordID, snapshots)
	if err != nil {
		h.logger.Error("syncing top artists", "discord_id", discordID, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to save top artists")
		return
	}

	// Links come back in input order, one per snapshot.
	artists := make([]artistJSON, len(snapshots))
	for i, snapshot := range snapshots {
		artists[i] = artistJSON{
			Name:       snapshot.Name,
			Genres:     snapshot.Genres,
			Popularity: snapshot.Popularity,
		}
		if i < len(links) {
			artists[i].PlayCount = links[i].PlayCount
		}
	}

	respondJSON(w, http.StatusOK, profileResponse{
		Connected: true,
		User: &userJSON{
			ID:          user.ID.String(),
			SpotifyID:   user.SpotifyID,
			DisplayName: user.DisplayName,
		},
		Artists: artists,
	})
}

// concertJSON is one event in the recommendation response.
type concertJSON struct {
	ID    string                   `json:"id"`
	Name  string                   `json:"name"`
	Date  string                   `json:"date"`
	Venue string                   `json:"venue,omitempty"`
	City  string                   `json:"city,omitempty"`
	Price *ticketmaster.PriceRange `json:"price,omitempty"`
}

// RecommendedEvents returns upcoming concerts for the owner's top artists
// (GET /api/v1/ticketmaster/events/{discordID}).
func (h *Handlers) RecommendedEvents(w http.ResponseWriter, r *http.Request) {
	discordID := chi.URLParam(r, "discordID")
	if discordID == "" {
		respondError(w, http.StatusBadRequest, "discord id is required")
		return
	}

	events, err := h.recommender.RecommendedEvents(r.Context(), discordID)
	switch {
	case errors.Is(err, tokenstore.ErrAuthRequired):
		h.respondAuthRequired(w, discordID)
		return
	case errors.Is(err, sync.ErrProfileNotSynced):
		respondError(w, http.StatusNotFound, "profile has not been synced")
		return
	case err != nil:
		h.logger.Error("fetching recommendations", "discord_id", discordID, "err", err)
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "failed to fetch concerts",
		})
		return
	}

	concerts := make([]concertJSON, len(events))
	for i, event := range events {
		concerts[i] = concertJSON{
			ID:    event.ID,
			Name:  event.Name,
			Date:  event.StartsAt.UTC().Format(time.RFC3339),
			Venue: event.Venue,
			City:  event.City,
			Price: event.Price,
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"count":    len(concerts),
		"concerts": concerts,
	})
}

// Disconnect removes the owner's stored credential
// (DELETE /api/v1/spotify/disconnect/{discordID}). Idempotent.
func (h *Handlers) Disconnect(w http.ResponseWriter, r *http.Request) {
	discordID := chi.URLParam(r, "discordID")
	if discordID == "" {
		respondError(w, http.StatusBadRequest, "discord id is required")
		return
	}

	if err := h.credentials.Delete(r.Context(), discordID); err != nil {
		h.logger.Error("deleting credential", "discord_id", discordID, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to disconnect")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "disconnected"})
}

// respondFetchFailure classifies a fetch error: a missing/unusable credential
// turns into a connect link, anything else is a processing failure.
func (h *Handlers) respondFetchFailure(w http.ResponseWriter, discordID string, err error) {
	if errors.Is(err, tokenstore.ErrAuthRequired) {
		h.respondAuthRequired(w, discordID)
		return
	}
	h.logger.Error("fetching from spotify", "discord_id", discordID, "err", err)
	respondError(w, http.StatusBadGateway, "failed to fetch data from Spotify")
}

func (h *Handlers) respondAuthRequired(w http.ResponseWriter, discordID string) {
	url, err := h.authURL(discordID)
	if err != nil {
		h.logger.Error("building auth url", "discord_id", discordID, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to build authorization URL")
		return
	}
	respondJSON(w, http.StatusOK, profileResponse{
		Connected: false,
		AuthURL:   url,
		Message:   "Click this link to connect your Spotify account",
	})
}

func (h *Handlers) authURL(discordID string) (string, error) {
	state, err := auth.EncodeState(discordID)
	if err != nil {
		return "", err
	}
	return h.auth.AuthURL(state), nil
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
