package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/dupx/internal/formatter"
	"github.com/desertthunder/dupx/internal/models"
	"github.com/desertthunder/dupx/internal/shared"
	"github.com/desertthunder/dupx/internal/tasks"
	"github.com/urfave/cli/v3"
)

func planArg(cmd *cli.Command) (string, error) {
	id := strings.TrimSpace(cmd.StringArg("plan"))
	if id == "" {
		return "", fmt.Errorf("%w: plan id", shared.ErrMissingArgument)
	}
	return id, nil
}

// Resume finishes a saved plan.
func (r *Runner) Resume(ctx context.Context, cmd *cli.Command) error {
	planID, err := planArg(cmd)
	if err != nil {
		return err
	}

	store, db, err := r.planStore()
	if err != nil {
		return err
	}
	defer db.Close()

	plan, err := store.Get(planID)
	if err != nil {
		return err
	}
	if plan.Settled() {
		return fmt.Errorf("%w: %s", shared.ErrPlanSettled, planID)
	}

	svc, err := r.connectWith(ctx, cmd)
	if err != nil {
		return err
	}
	engine := tasks.NewPlaylistEngine(svc, store, r.config.Reconcile, r.logger)

	var result *tasks.ReconcileResult
	err = r.withProgress(ctx, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) error {
		var err error
		result, err = engine.Resume(ctx, planID, progress)
		return err
	})
	if err != nil {
		return err
	}
	return r.writeReconciled(result)
}

// PlansList prints saved plans.
func (r *Runner) PlansList(ctx context.Context, cmd *cli.Command) error {
	criteria := map[string]any{}
	if status := cmd.String("status"); status != "" {
		switch s := models.PlanStatus(status); s {
		case models.PlanPending, models.PlanRemoved, models.PlanCompleted, models.PlanFailed:
			criteria["status"] = s
		default:
			return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidFlag, status)
		}
	}
	if playlist := cmd.String("playlist"); playlist != "" {
		criteria["playlist_id"] = playlist
	}

	store, db, err := r.planStore()
	if err != nil {
		return err
	}
	defer db.Close()

	plans, err := store.List(criteria)
	if err != nil {
		return err
	}
	return formatter.WritePlans(r.output, plans)
}

// PlansShow prints one plan with its remove and keep ids.
func (r *Runner) PlansShow(ctx context.Context, cmd *cli.Command) error {
	planID, err := planArg(cmd)
	if err != nil {
		return err
	}

	store, db, err := r.planStore()
	if err != nil {
		return err
	}
	defer db.Close()

	plan, err := store.Get(planID)
	if err != nil {
		return err
	}

	r.writePlain("%s", formatter.PlanToText(plan))
	r.writePlain("  remove ids: %s\n", strings.Join(plan.RemoveIDs, " "))
	return r.writePlain("  keep ids:   %s\n", strings.Join(plan.KeepIDs, " "))
}

// PlansDelete removes a plan.
func (r *Runner) PlansDelete(ctx context.Context, cmd *cli.Command) error {
	planID, err := planArg(cmd)
	if err != nil {
		return err
	}

	store, db, err := r.planStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Delete(planID); err != nil {
		return err
	}
	r.logger.Info("deleted plan", "plan", planID)
	return r.writePlain("✓ Deleted plan %s\n", planID)
}
