// Package services wraps the Spotify Web API behind [PlaylistService].
//
// # Playlist Service
//
// [PlaylistService] is the only surface the deduplication engine talks to: playlist metadata,
// a lazily paginated item sequence, and the bulk remove and add calls.
//
// [SpotifyService] implements it on github.com/zmb3/spotify/v2. Every request waits on a
// [rate.Limiter] first; the client itself honors Retry-After on 429 responses.
//
// # Pagination
//
// [Paginate] turns a page fetcher into an [iter.Seq2]. A failed page yields its error and,
// once the playlist size is known, the sequence moves on to the next offset so one bad page
// does not abort ingestion. Before any page has succeeded the same offset is retried a few
// times and then the sequence ends.
//
// # Authentication
//
// [NewAuthenticator] builds the PKCE-capable [spotifyauth.Authenticator] with the scopes
// needed to read and rewrite private and public playlists. There is no client secret.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrPlaylistNotFound] : Playlist ID not found
//   - [shared.ErrInvalidInput] : playlist reference could not be parsed
package services
