package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/dupx/internal/models"
	"github.com/desertthunder/dupx/internal/shared"
)

// SkipCounts tallies playlist entries that did not become candidate tracks.
type SkipCounts struct {
	Episodes    int
	Empty       int
	BlankNames  int
	FailedPages int
}

// Items is the number of skipped entries, not counting failed pages.
func (s SkipCounts) Items() int {
	return s.Episodes + s.Empty + s.BlankNames
}

// IngestResult contains the candidate tracks of one playlist.
type IngestResult struct {
	Playlist *models.Playlist
	Tracks   []models.Track
	Skipped  SkipCounts
}

// Ingest fetches playlist metadata, then walks every entry keeping tracks with a non-blank name.
//
// A failed page is logged and counted. If no page could be read at all the error is returned.
func (e *PlaylistEngine) Ingest(ctx context.Context, playlistID string, progress chan<- ProgressUpdate) (*IngestResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: playlist service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchPlaylistUpdate(playlistID))
	pl, err := e.service.Playlist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist: %w", err)
	}
	e.sendProgress(progress, foundPlaylistUpdate(pl))

	result := &IngestResult{Playlist: pl}
	live := make(models.GroupCounts)
	duplicates, index := 0, 0
	var lastErr error

	for item, err := range e.service.PlaylistItems(ctx, playlistID) {
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			result.Skipped.FailedPages++
			lastErr = err
			e.logger.Warn("skipping playlist page", "playlist", playlistID, "error", err)
			continue
		}

		index++
		switch {
		case item.Kind == models.ItemEpisode:
			result.Skipped.Episodes++
			continue
		case item.Kind == models.ItemEmpty || item.Track == nil:
			result.Skipped.Empty++
			continue
		case strings.TrimSpace(item.Track.Name) == "":
			result.Skipped.BlankNames++
			e.logger.Debug("skipping track without a name", "position", index, "id", item.Track.ID)
			continue
		}

		track := *item.Track
		result.Tracks = append(result.Tracks, track)

		key := track.Key()
		live[key]++
		if live[key] == 2 {
			duplicates++
		}
		e.sendProgress(progress, ingestUpdate(index, pl.TotalItems, duplicates, &track))
	}

	if index == 0 && lastErr != nil {
		return nil, fmt.Errorf("no playlist items could be read: %w", lastErr)
	}

	e.logger.Info("ingested playlist",
		"playlist", pl.Name, "tracks", len(result.Tracks), "duplicates", duplicates,
		"skipped", result.Skipped.Items(), "failed_pages", result.Skipped.FailedPages)
	return result, nil
}
