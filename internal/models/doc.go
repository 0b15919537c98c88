// Package models defines the domain entities of the dupx playlist deduplicator.
//
// The package contains two categories of types:
//
// 1. Ingestion values: immutable snapshots of what the Web API returned
//   - [Playlist] : playlist metadata (declared total, snapshot id)
//   - [PlaylistItem] : one raw playlist entry (track, episode, or empty)
//   - [Track] : the metadata used for duplicate detection
//
// 2. Derived and persisted values
//   - [UniqueTrackKey] : the fuzzy-equality key (name, ordered artists, whole seconds)
//   - [TrackRecord] : a key paired with the track id it came from
//   - [GroupCounts] and [DuplicateGroup] : how often each key occurs
//   - [Plan] : a reconciliation plan persisted before the playlist is modified
//
// Persistent entities implement [Model]; the [Repository] interface defines the CRUD surface for them.
package models
