package services

import (
	"context"
	"iter"

	"github.com/desertthunder/dupx/internal/models"
)

// MaxBatch is the most ids a single remove or add call accepts.
const MaxBatch = 100

// PlaylistService defines the playlist operations the deduplicator needs.
type PlaylistService interface {
	// Playlist fetches playlist metadata, including the declared item count.
	Playlist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// PlaylistItems lazily pages through every entry in playlist order.
	// A failed page yields a non-nil error and iteration may continue.
	PlaylistItems(ctx context.Context, playlistID string) iter.Seq2[models.PlaylistItem, error]

	// RemoveTracks removes every occurrence of each id. At most [MaxBatch] ids per call.
	RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) (snapshotID string, err error)

	// AddTracks appends ids to the end of the playlist. At most [MaxBatch] ids per call.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) (snapshotID string, err error)
}

// ItemPage is one page of playlist entries.
type ItemPage struct {
	Items []models.PlaylistItem
	Total int
}

// PageFunc fetches limit entries starting at offset.
type PageFunc func(ctx context.Context, offset, limit int) (*ItemPage, error)
