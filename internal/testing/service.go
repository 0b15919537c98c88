package testing

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/desertthunder/dupx/internal/models"
	"github.com/desertthunder/dupx/internal/services"
	"github.com/desertthunder/dupx/internal/shared"
)

// MockPlaylistService is an in-memory [services.PlaylistService].
//
// Items are served through [services.Paginate] with PageSize entries per page.
// RemoveErrs and AddErrs are consumed one per call; a nil entry means success.
type MockPlaylistService struct {
	Meta        *models.Playlist
	Items       []models.PlaylistItem
	PageSize    int
	PageErrs    map[int]error
	PlaylistErr error
	RemoveErrs  []error
	AddErrs     []error

	mu      sync.Mutex
	known   map[string]models.Track
	Calls   []string
	Removed [][]string
	Added   [][]string
}

// NewMockPlaylistService builds a service whose playlist holds tracks in order.
func NewMockPlaylistService(id string, tracks ...models.Track) *MockPlaylistService {
	items := make([]models.PlaylistItem, len(tracks))
	for i := range tracks {
		items[i] = models.PlaylistItem{Kind: models.ItemTrack, Track: &tracks[i], Local: tracks[i].ID == ""}
	}
	return &MockPlaylistService{
		Meta:     &models.Playlist{ID: id, Name: "Mock Playlist", Owner: "tester", TotalItems: len(items), SnapshotID: "snap0"},
		Items:    items,
		PageSize: services.MaxBatch,
	}
}

func (m *MockPlaylistService) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

func (m *MockPlaylistService) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	m.record("playlist")
	if m.PlaylistErr != nil {
		return nil, m.PlaylistErr
	}
	if m.Meta == nil || m.Meta.ID != playlistID {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	pl := *m.Meta
	return &pl, nil
}

func (m *MockPlaylistService) PlaylistItems(ctx context.Context, playlistID string) iter.Seq2[models.PlaylistItem, error] {
	return services.Paginate(ctx, m.PageSize, func(ctx context.Context, offset, limit int) (*services.ItemPage, error) {
		m.record(fmt.Sprintf("page:%d", offset))
		if err := m.PageErrs[offset]; err != nil {
			return nil, err
		}

		end := min(offset+limit, len(m.Items))
		if offset > end {
			offset = end
		}
		return &services.ItemPage{Items: m.Items[offset:end], Total: len(m.Items)}, nil
	})
}

func (m *MockPlaylistService) RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) (string, error) {
	m.record("remove")
	if err := pop(&m.RemoveErrs); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Removed = append(m.Removed, slices.Clone(trackIDs))
	if m.known == nil {
		m.known = make(map[string]models.Track)
	}
	for _, it := range m.Items {
		if it.Track != nil && it.Track.ID != "" {
			m.known[it.Track.ID] = *it.Track
		}
	}
	m.Items = slices.DeleteFunc(m.Items, func(it models.PlaylistItem) bool {
		return it.Track != nil && slices.Contains(trackIDs, it.Track.ID)
	})
	return fmt.Sprintf("snap-r%d", len(m.Removed)), nil
}

func (m *MockPlaylistService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) (string, error) {
	m.record("add")
	if err := pop(&m.AddErrs); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Added = append(m.Added, slices.Clone(trackIDs))
	for _, id := range trackIDs {
		track, ok := m.known[id]
		if !ok {
			track = models.Track{ID: id}
		}
		m.Items = append(m.Items, models.PlaylistItem{Kind: models.ItemTrack, Track: &track})
	}
	return fmt.Sprintf("snap-a%d", len(m.Added)), nil
}

// IDs returns the ids currently in the playlist, in order.
func (m *MockPlaylistService) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, it := range m.Items {
		if it.Track != nil {
			ids = append(ids, it.Track.ID)
		}
	}
	return ids
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}
