package models

// Playlist is playlist metadata fetched once before ingestion.
type Playlist struct {
	ID         string
	Name       string
	Owner      string
	TotalItems int
	SnapshotID string
}

// ItemKind classifies a raw playlist entry.
type ItemKind int

const (
	ItemEmpty ItemKind = iota
	ItemTrack
	ItemEpisode
)

func (k ItemKind) String() string {
	switch k {
	case ItemTrack:
		return "track"
	case ItemEpisode:
		return "episode"
	default:
		return "empty"
	}
}

// PlaylistItem is one entry of a playlist page.
type PlaylistItem struct {
	Kind  ItemKind
	Track *Track
	Local bool
}
