package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrBadState is returned when a callback state does not decode to an owner.
var ErrBadState = errors.New("malformed OAuth state")

// EncodeState packs the Discord ID and a random nonce into an opaque state
// string, so the callback can recover which owner started the flow without
// the value being guessable.
func EncodeState(discordID string) (string, error) {
	if discordID == "" {
		return "", fmt.Errorf("%w: empty owner id", ErrBadState)
	}

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating state nonce: %w", err)
	}

	raw := discordID + ":" + hex.EncodeToString(nonce)
	return base64.RawURLEncoding.EncodeToString([]byte(raw)), nil
}

// DecodeState recovers the Discord ID from a state produced by EncodeState.
func DecodeState(state string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(state)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadState, err)
	}

	id, nonce, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" || nonce == "" {
		return "", ErrBadState
	}
	return id, nil
}
