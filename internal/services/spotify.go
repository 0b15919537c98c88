// Spotify Web API implementation of [PlaylistService]
package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dupx/internal/models"
	"github.com/desertthunder/dupx/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/time/rate"
)

// Scopes requested at login.
var Scopes = []string{
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// NewAuthenticator builds the PKCE authenticator for a public client.
func NewAuthenticator(clientID, redirectURI string) *spotifyauth.Authenticator {
	return spotifyauth.New(
		spotifyauth.WithClientID(clientID),
		spotifyauth.WithRedirectURL(redirectURI),
		spotifyauth.WithScopes(Scopes...),
	)
}

// SpotifyService implements [PlaylistService] on [spotify.Client].
type SpotifyService struct {
	client   *spotify.Client
	limiter  *rate.Limiter
	pageSize int
	logger   *log.Logger
}

// NewSpotifyService wraps an authorized HTTP client, usually from [spotifyauth.Authenticator.Client].
//
// A zero cfg.RequestsPerSecond disables pacing.
func NewSpotifyService(httpClient *http.Client, cfg shared.APIConfig, logger *log.Logger, opts ...spotify.ClientOption) *SpotifyService {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	opts = append([]spotify.ClientOption{spotify.WithRetry(true)}, opts...)
	return &SpotifyService{
		client:   spotify.New(httpClient, opts...),
		limiter:  rate.NewLimiter(limit, 1),
		pageSize: cfg.PageSize,
		logger:   logger,
	}
}

func (s *SpotifyService) wait(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// Playlist retrieves a playlist's metadata by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	pl, err := s.client.GetPlaylist(ctx, spotify.ID(playlistID))
	if err != nil {
		return nil, classify(err, playlistID)
	}

	return &models.Playlist{
		ID:         string(pl.ID),
		Name:       pl.Name,
		Owner:      pl.Owner.DisplayName,
		TotalItems: int(pl.Tracks.Total),
		SnapshotID: pl.SnapshotID,
	}, nil
}

// PlaylistItems pages through the playlist with [Paginate].
func (s *SpotifyService) PlaylistItems(ctx context.Context, playlistID string) iter.Seq2[models.PlaylistItem, error] {
	return Paginate(ctx, s.pageSize, func(ctx context.Context, offset, limit int) (*ItemPage, error) {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}

		page, err := s.client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(limit), spotify.Offset(offset))
		if err != nil {
			s.logger.Warn("playlist page failed", "playlist", playlistID, "offset", offset, "error", err)
			return nil, classify(err, playlistID)
		}

		items := make([]models.PlaylistItem, len(page.Items))
		for i, it := range page.Items {
			items[i] = toItem(it)
		}
		return &ItemPage{Items: items, Total: int(page.Total)}, nil
	})
}

// RemoveTracks removes every occurrence of the given ids.
func (s *SpotifyService) RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) (string, error) {
	if len(trackIDs) > MaxBatch {
		return "", fmt.Errorf("%w: %d ids exceeds %d per request", shared.ErrInvalidArgument, len(trackIDs), MaxBatch)
	}
	if err := s.wait(ctx); err != nil {
		return "", err
	}

	snapshot, err := s.client.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), toIDs(trackIDs)...)
	if err != nil {
		return "", classify(err, playlistID)
	}
	return snapshot, nil
}

// AddTracks appends the given ids.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) (string, error) {
	if len(trackIDs) > MaxBatch {
		return "", fmt.Errorf("%w: %d ids exceeds %d per request", shared.ErrInvalidArgument, len(trackIDs), MaxBatch)
	}
	if err := s.wait(ctx); err != nil {
		return "", err
	}

	snapshot, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), toIDs(trackIDs)...)
	if err != nil {
		return "", classify(err, playlistID)
	}
	return snapshot, nil
}

func toIDs(ids []string) []spotify.ID {
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}

func toItem(it spotify.PlaylistItem) models.PlaylistItem {
	switch {
	case it.Track.Track != nil:
		t := it.Track.Track
		artists := make([]string, len(t.Artists))
		for i, a := range t.Artists {
			artists[i] = a.Name
		}
		return models.PlaylistItem{
			Kind:  models.ItemTrack,
			Local: it.IsLocal,
			Track: &models.Track{
				ID:       string(t.ID),
				Name:     t.Name,
				Artists:  artists,
				Duration: int(t.Duration) / 1000,
			},
		}
	case it.Track.Episode != nil:
		return models.PlaylistItem{Kind: models.ItemEpisode, Local: it.IsLocal}
	default:
		return models.PlaylistItem{Kind: models.ItemEmpty, Local: it.IsLocal}
	}
}

// classify maps client errors onto shared sentinels.
func classify(err error, playlistID string) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
}
