package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/dupx/internal/models"
	"github.com/desertthunder/dupx/internal/shared"
)

// ReconcileResult reports what a reconciliation did.
type ReconcileResult struct {
	Plan       *models.Plan
	Removed    int
	Added      int
	SnapshotID string
}

type batchCall func(ctx context.Context, playlistID string, ids []string) (string, error)

// Reconcile rewrites the playlist so each duplicated group keeps exactly one copy.
//
// The caller must have obtained confirmation. Removal always precedes re-adding.
func (e *PlaylistEngine) Reconcile(ctx context.Context, playlist *models.Playlist, res *Resolution, progress chan<- ProgressUpdate) (*ReconcileResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: playlist service not initialized", shared.ErrServiceUnavailable)
	}
	if playlist == nil || res == nil {
		return nil, fmt.Errorf("%w: playlist and resolution are required", shared.ErrInvalidArgument)
	}
	if !res.Actionable() {
		return &ReconcileResult{}, nil
	}

	now := time.Now().UTC()
	plan := &models.Plan{
		PlanID:       shared.GenerateID(),
		PlaylistID:   playlist.ID,
		PlaylistName: playlist.Name,
		RemoveIDs:    res.Remove,
		KeepIDs:      res.Keep,
		Status:       models.PlanPending,
		Created:      now,
		Updated:      now,
	}

	logger := shared.WithLogger(e.logger, "plan", plan.PlanID, "playlist", plan.PlaylistID)
	if e.plans != nil {
		if err := e.plans.Create(plan); err != nil {
			return nil, fmt.Errorf("failed to save reconciliation plan: %w", err)
		}
		logger.Info("saved reconciliation plan", "remove", len(plan.RemoveIDs), "keep", len(plan.KeepIDs))
		e.sendProgress(progress, savePlanUpdate(plan))
	}

	return e.execute(ctx, plan, logger, progress)
}

// Resume loads a plan and runs whatever steps it has left.
func (e *PlaylistEngine) Resume(ctx context.Context, planID string, progress chan<- ProgressUpdate) (*ReconcileResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: playlist service not initialized", shared.ErrServiceUnavailable)
	}
	if e.plans == nil {
		return nil, fmt.Errorf("%w: no plan store configured", shared.ErrServiceUnavailable)
	}

	plan, err := e.plans.Get(planID)
	if err != nil {
		return nil, err
	}
	if plan.Settled() {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlanSettled, planID)
	}

	logger := shared.WithLogger(e.logger, "plan", plan.PlanID, "playlist", plan.PlaylistID)
	logger.Info("resuming plan", "status", plan.Status, "removed", plan.Removed, "added", plan.Added, "keep", len(plan.KeepIDs))
	return e.execute(ctx, plan, logger, progress)
}

func (e *PlaylistEngine) execute(ctx context.Context, plan *models.Plan, logger *log.Logger, progress chan<- ProgressUpdate) (*ReconcileResult, error) {
	result := &ReconcileResult{Plan: plan}

	if !plan.Removed {
		snapshot, err := e.inBatches(ctx, RemoveTracks, plan.PlaylistID, plan.RemoveIDs, e.service.RemoveTracks, logger, nil, progress)
		if err != nil {
			e.fail(plan, err)
			return result, fmt.Errorf("%w: removing duplicates failed, run resume %s: %v", shared.ErrAPIRequest, plan.PlanID, err)
		}
		result.SnapshotID = snapshot
		plan.Removed = true
		e.advance(plan, models.PlanRemoved, "")
	}
	result.Removed = len(plan.RemoveIDs)

	// Added is saved after every batch so a resume starts at the first unsent id.
	snapshot, err := e.inBatches(ctx, AddTracks, plan.PlaylistID, plan.Pending(), e.service.AddTracks, logger, func(n int) {
		plan.Added += n
		result.Added += n
		e.advance(plan, models.PlanRemoved, "")
	}, progress)
	if snapshot != "" {
		result.SnapshotID = snapshot
	}
	if err != nil {
		e.fail(plan, err)
		return result, fmt.Errorf("%w: %d of %d tracks were removed but not re-added, run resume %s: %v",
			shared.ErrPartialReconcile, len(plan.Pending()), len(plan.KeepIDs), plan.PlanID, err)
	}

	e.advance(plan, models.PlanCompleted, "")
	e.sendProgress(progress, finishedUpdate(plan))
	return result, nil
}

// inBatches sends ids in chunks of batchSize, retrying each chunk with backoff.
// done, when set, runs with the chunk length after each chunk succeeds.
func (e *PlaylistEngine) inBatches(ctx context.Context, phase Phase, playlistID string, ids []string, call batchCall, logger *log.Logger, done func(n int), progress chan<- ProgressUpdate) (string, error) {
	var snapshot string
	for start := 0; start < len(ids); start += e.batchSize {
		chunk := ids[start:min(start+e.batchSize, len(ids))]

		s, err := backoff.Retry(ctx, func() (string, error) {
			s, err := call(ctx, playlistID, chunk)
			if err != nil && permanent(err) {
				return "", backoff.Permanent(err)
			}
			return s, err
		},
			backoff.WithBackOff(e.newBackOff()),
			backoff.WithMaxTries(uint(e.maxRetries+1)),
			backoff.WithNotify(func(err error, wait time.Duration) {
				logger.Warn("retrying batch", "phase", phase, "offset", start, "wait", wait, "error", err)
			}),
		)
		if err != nil {
			return snapshot, err
		}

		snapshot = s
		if done != nil {
			done(len(chunk))
		}
		e.sendProgress(progress, batchUpdate(phase, start+len(chunk), len(ids)))
	}
	return snapshot, nil
}

func permanent(err error) bool {
	return errors.Is(err, shared.ErrPlaylistNotFound) ||
		errors.Is(err, shared.ErrInvalidArgument) ||
		errors.Is(err, context.Canceled)
}

func (e *PlaylistEngine) fail(plan *models.Plan, err error) {
	e.advance(plan, models.PlanFailed, err.Error())
}

// advance records a status change. A store failure is logged, not returned, since the playlist has already changed.
func (e *PlaylistEngine) advance(plan *models.Plan, status models.PlanStatus, lastErr string) {
	plan.Status = status
	plan.LastError = lastErr
	plan.Updated = time.Now().UTC()

	if e.plans == nil {
		return
	}
	if err := e.plans.Update(plan); err != nil {
		e.logger.Error("failed to update plan", "plan", plan.PlanID, "status", status, "added", plan.Added, "error", err)
	}
}
