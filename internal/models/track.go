package models

import (
	"strconv"
	"strings"
)

// Track is the duplicate-detection view of a playlist track.
//
// ID is empty for local files and tracks Spotify can no longer resolve.
// Duration is whole seconds, truncated from the API's milliseconds.
type Track struct {
	ID       string
	Name     string
	Artists  []string
	Duration int
}

// Addressable reports whether the track can be targeted by remove/add calls.
func (t Track) Addressable() bool {
	return t.ID != ""
}

// Key derives the track's [UniqueTrackKey].
func (t Track) Key() UniqueTrackKey {
	return UniqueTrackKey{Name: t.Name, Artists: EncodeArtists(t.Artists), Duration: t.Duration}
}

// Record pairs the track's key with its id.
func (t Track) Record() TrackRecord {
	return TrackRecord{Key: t.Key(), ID: t.ID}
}

// UniqueTrackKey is comparable so it can key a map.
//
// Artists holds the ordered artist names, each Go-quoted and comma joined, so
// ["A, B"] and ["A", "B"] never collide and ["A","B"] differs from ["B","A"].
type UniqueTrackKey struct {
	Name     string
	Artists  string
	Duration int
}

// EncodeArtists renders names in the quoting scheme used by [UniqueTrackKey].
func EncodeArtists(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = strconv.Quote(n)
	}
	return strings.Join(quoted, ",")
}

// ArtistNames reverses [EncodeArtists].
func (k UniqueTrackKey) ArtistNames() []string {
	if k.Artists == "" {
		return nil
	}

	var names []string
	rest := k.Artists
	for rest != "" {
		prefix, err := strconv.QuotedPrefix(rest)
		if err != nil {
			return append(names, rest)
		}
		name, _ := strconv.Unquote(prefix)
		names = append(names, name)
		rest = strings.TrimPrefix(rest[len(prefix):], ",")
	}
	return names
}

// TrackRecord pairs a key with the id it was derived from. ID may be empty.
type TrackRecord struct {
	Key UniqueTrackKey
	ID  string
}

// GroupCounts maps each key to the number of records carrying it.
type GroupCounts map[UniqueTrackKey]int

// Duplicated counts keys seen more than once.
func (c GroupCounts) Duplicated() int {
	n := 0
	for _, count := range c {
		if count > 1 {
			n++
		}
	}
	return n
}

// DuplicateGroup describes one key that occurs more than once.
type DuplicateGroup struct {
	Key   UniqueTrackKey
	Count int
	// First is the earliest track with this key, used for display.
	First Track
	// IDs are the distinct non-empty ids in the group, in first-appearance order.
	IDs []string
}

// Actionable is false for groups made only of unaddressable tracks.
func (g DuplicateGroup) Actionable() bool {
	return len(g.IDs) > 0
}

// Extra is how many copies reconciliation drops.
func (g DuplicateGroup) Extra() int {
	return g.Count - 1
}
