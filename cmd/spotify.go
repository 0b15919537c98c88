package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dupx/internal/auth"
	"github.com/desertthunder/dupx/internal/server"
	"github.com/desertthunder/dupx/internal/services"
	"github.com/desertthunder/dupx/internal/shared"
)

// spotifyConnector runs the PKCE login through the local redirect listener
// and wraps the authorized client in a [services.SpotifyService].
func spotifyConnector(ctx context.Context, cfg *shared.Config, logger *log.Logger) (services.PlaylistService, error) {
	creds := cfg.Credentials.Spotify
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: credentials.spotify.client_id", shared.ErrMissingCredentials)
	}

	authenticator := services.NewAuthenticator(creds.ClientID, creds.RedirectURI)
	listener := server.NewListener(cfg.Server, logger)
	coordinator := auth.NewCoordinator(authenticator, listener, cfg.Server.Timeout.Duration, logger)

	token, err := coordinator.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("logged in to Spotify")

	return services.NewSpotifyService(authenticator.Client(ctx, token), cfg.Spotify, logger), nil
}
