package tasks

import (
	"slices"

	"github.com/desertthunder/dupx/internal/models"
)

// Resolution is everything derived from one ingested track sequence.
type Resolution struct {
	Counts models.GroupCounts
	// Groups are the duplicated keys, ordered by first appearance.
	Groups []models.DuplicateGroup
	Remove []string
	Keep   []string
	Tracks int
}

// HasDuplicates reports whether any key occurs more than once.
func (r *Resolution) HasDuplicates() bool {
	return len(r.Groups) > 0
}

// Actionable is false when every duplicated group lacks a track id.
func (r *Resolution) Actionable() bool {
	return len(r.Remove) > 0
}

// Extra counts the copies beyond the first across all groups.
func (r *Resolution) Extra() int {
	n := 0
	for _, g := range r.Groups {
		n += g.Extra()
	}
	return n
}

// Records derives one [models.TrackRecord] per track, preserving order.
func Records(tracks []models.Track) []models.TrackRecord {
	records := make([]models.TrackRecord, len(tracks))
	for i, t := range tracks {
		records[i] = t.Record()
	}
	return records
}

// GroupByKey counts records per key in a single pass.
func GroupByKey(records []models.TrackRecord) models.GroupCounts {
	counts := make(models.GroupCounts, len(records))
	for _, r := range records {
		counts[r.Key]++
	}
	return counts
}

// RemoveSetOf returns every distinct non-empty id whose key occurs more than once, in first-appearance order.
func RemoveSetOf(records []models.TrackRecord, counts models.GroupCounts) []string {
	seen := make(map[string]struct{})
	var remove []string
	for _, r := range records {
		if r.ID == "" || counts[r.Key] < 2 {
			continue
		}
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		remove = append(remove, r.ID)
	}
	return remove
}

// KeepSetOf returns, for each duplicated key, the first non-empty id in the sequence.
func KeepSetOf(records []models.TrackRecord, counts models.GroupCounts) []string {
	kept := make(map[models.UniqueTrackKey]struct{})
	var keep []string
	for _, r := range records {
		if r.ID == "" || counts[r.Key] < 2 {
			continue
		}
		if _, ok := kept[r.Key]; ok {
			continue
		}
		kept[r.Key] = struct{}{}
		keep = append(keep, r.ID)
	}
	return keep
}

// Resolve groups tracks and derives the remove and keep sets.
func Resolve(tracks []models.Track) *Resolution {
	records := Records(tracks)
	counts := GroupByKey(records)

	index := make(map[models.UniqueTrackKey]int)
	var groups []models.DuplicateGroup
	for i, r := range records {
		if counts[r.Key] < 2 {
			continue
		}

		gi, ok := index[r.Key]
		if !ok {
			gi = len(groups)
			index[r.Key] = gi
			groups = append(groups, models.DuplicateGroup{Key: r.Key, Count: counts[r.Key], First: tracks[i]})
		}
		if r.ID != "" && !slices.Contains(groups[gi].IDs, r.ID) {
			groups[gi].IDs = append(groups[gi].IDs, r.ID)
		}
	}

	return &Resolution{
		Counts: counts,
		Groups: groups,
		Remove: RemoveSetOf(records, counts),
		Keep:   KeepSetOf(records, counts),
		Tracks: len(tracks),
	}
}

