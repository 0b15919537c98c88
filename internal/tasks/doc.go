// Package tasks finds and removes duplicate tracks in a playlist with real-time progress reporting.
//
// # Core Operations
//
// The [Deduplicator] interface defines three operations:
//
//  1. [Deduplicator.Ingest] : read every playlist entry
//     - Fetches playlist metadata once for the declared size
//     - Pages through items, skipping episodes, empty entries and blank names
//     - Counts failed pages instead of aborting on them
//
//  2. [Deduplicator.Reconcile] : rewrite the playlist from a [Resolution]
//     - Persists a [models.Plan] before touching the playlist
//     - Removes every occurrence of every duplicated id, in batches
//     - Re-adds one survivor per duplicated group
//
//  3. [Deduplicator.Resume] : finish a plan that did not complete
//
// Resolution itself is pure: [GroupByKey], [RemoveSetOf], [KeepSetOf] and [Resolve] never
// touch the network, and their output order follows the ingestion order.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, the running duplicate count, and optional data.
// Updates use select with default so a slow renderer never stalls ingestion.
//
// # Retries
//
// Bulk remove/add calls are retried with exponential backoff (github.com/cenkalti/backoff/v5).
// Page fetches are not retried here; see [services.Paginate].
package tasks
