// package tasks implements duplicate detection and playlist reconciliation.
//
// The core abstraction is Deduplicator. Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/dupx/internal/models"
	"github.com/desertthunder/dupx/internal/services"
	"github.com/desertthunder/dupx/internal/shared"
)

// Deduplicator defines the playlist deduplication operations.
type Deduplicator interface {
	// Ingest reads every playlist entry and returns the candidate tracks in playlist order.
	Ingest(ctx context.Context, playlistID string, progress chan<- ProgressUpdate) (*IngestResult, error)

	// Reconcile persists a plan, removes every duplicated id, then re-adds one survivor per group.
	Reconcile(ctx context.Context, playlist *models.Playlist, res *Resolution, progress chan<- ProgressUpdate) (*ReconcileResult, error)

	// Resume finishes a plan left pending, removed, or failed by an earlier Reconcile.
	Resume(ctx context.Context, planID string, progress chan<- ProgressUpdate) (*ReconcileResult, error)
}

// PlanStore persists reconciliation plans.
type PlanStore = models.Repository[*models.Plan]

// PlaylistEngine implements [Deduplicator].
type PlaylistEngine struct {
	service    services.PlaylistService
	plans      PlanStore
	logger     *log.Logger
	batchSize  int
	maxRetries int
	newBackOff func() backoff.BackOff
}

// NewPlaylistEngine creates a new PlaylistEngine. plans may be nil, in which case Reconcile runs without a recovery plan.
func NewPlaylistEngine(service services.PlaylistService, plans PlanStore, cfg shared.ReconcileConfig, logger *log.Logger) *PlaylistEngine {
	batch := cfg.BatchSize
	if batch < 1 || batch > services.MaxBatch {
		batch = services.MaxBatch
	}

	return &PlaylistEngine{
		service:    service,
		plans:      plans,
		logger:     logger,
		batchSize:  batch,
		maxRetries: max(cfg.MaxRetries, 0),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			return b
		},
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
