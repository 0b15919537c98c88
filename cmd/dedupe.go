package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/dupx/internal/formatter"
	"github.com/desertthunder/dupx/internal/models"
	"github.com/desertthunder/dupx/internal/services"
	"github.com/desertthunder/dupx/internal/shared"
	"github.com/desertthunder/dupx/internal/tasks"
	"github.com/desertthunder/dupx/internal/ui"
	"github.com/urfave/cli/v3"
)

const disclaimer = "Tracks match when their name, artists and duration (in whole seconds) are equal.\n" +
	"Two different recordings with identical metadata would be treated as duplicates."

// connectWith applies a --timeout override and connects.
func (r *Runner) connectWith(ctx context.Context, cmd *cli.Command) (services.PlaylistService, error) {
	cfg := *r.config
	if cmd.IsSet("timeout") {
		cfg.Server.Timeout = shared.Duration{Duration: cmd.Duration("timeout")}
	}
	return r.connect(ctx, &cfg, r.logger)
}

// playlistID reads --playlist, falling back to a prompt unless --yes asks for no interaction.
func (r *Runner) playlistID(cmd *cli.Command) (string, error) {
	if raw := cmd.String("playlist"); raw != "" {
		return services.ParsePlaylistID(raw)
	}
	if cmd.Bool("yes") {
		return "", fmt.Errorf("%w: --playlist is required with --yes", shared.ErrMissingArgument)
	}
	return r.prompter.PlaylistID()
}

// Dedupe ingests a playlist, reports duplicate groups and, once confirmed, rewrites the playlist
// so each group keeps a single copy.
func (r *Runner) Dedupe(ctx context.Context, cmd *cli.Command) error {
	playlistID, err := r.playlistID(cmd)
	if err != nil {
		return err
	}
	dryRun := cmd.Bool("dry-run")

	var plans tasks.PlanStore
	if !dryRun {
		store, db, err := r.planStore()
		if err != nil {
			return err
		}
		defer db.Close()
		plans = store
	}

	svc, err := r.connectWith(ctx, cmd)
	if err != nil {
		return err
	}
	engine := tasks.NewPlaylistEngine(svc, plans, r.config.Reconcile, r.logger)

	var ingested *tasks.IngestResult
	err = r.withProgress(ctx, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) error {
		var err error
		ingested, err = engine.Ingest(ctx, playlistID, progress)
		return err
	})
	if err != nil {
		return err
	}

	r.writeSkipped(ingested.Skipped)
	res := tasks.Resolve(ingested.Tracks)

	report := &formatter.Report{
		Playlist: *ingested.Playlist,
		Scanned:  len(ingested.Tracks),
		Groups:   res.Groups,
		Remove:   res.Remove,
		Keep:     res.Keep,
	}
	if path := cmd.String("report"); path != "" {
		written, err := formatter.WriteReport(report, path)
		if err != nil {
			return err
		}
		r.logger.Info("wrote duplicate report", "path", written)
	}

	if !res.HasDuplicates() {
		return r.writePlainln("Looks like no duplicates.")
	}

	r.writePlainHeader(fmt.Sprintf("%d duplicate groups in %s", len(res.Groups), ingested.Playlist.Name))
	if err := formatter.WriteGroups(r.output, res.Groups); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	r.writePlainln("%s", ui.Styles.Help(disclaimer))

	if !res.Actionable() {
		return r.writePlainln("Only local files are duplicated; there is nothing to remove.")
	}

	if dryRun {
		preview := &models.Plan{
			PlanID:       "(dry run)",
			PlaylistID:   ingested.Playlist.ID,
			PlaylistName: ingested.Playlist.Name,
			RemoveIDs:    res.Remove,
			KeepIDs:      res.Keep,
			Status:       models.PlanPending,
		}
		r.writePlain("\n")
		return r.writePlain("%s", formatter.PlanToText(preview))
	}

	if !cmd.Bool("yes") {
		question := fmt.Sprintf("Remove %d extra copies from %s?", res.Extra(), ingested.Playlist.Name)
		if !r.prompter.Confirm(question, "Duplicates are removed, then one copy of each is added to the end of the playlist.") {
			return r.writePlainln("Alrighty, see ya.")
		}
	}

	var result *tasks.ReconcileResult
	err = r.withProgress(ctx, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) error {
		var err error
		result, err = engine.Reconcile(ctx, ingested.Playlist, res, progress)
		return err
	})
	if err != nil {
		return err
	}

	return r.writeReconciled(result)
}

func (r *Runner) writeSkipped(s tasks.SkipCounts) {
	if s.Items() == 0 && s.FailedPages == 0 {
		return
	}
	r.writePlain("Skipped %d episodes, %d empty entries and %d unnamed tracks\n", s.Episodes, s.Empty, s.BlankNames)
	if s.FailedPages > 0 {
		r.writePlain("%s\n", ui.Styles.Warn(fmt.Sprintf("%d pages could not be read; their tracks were not checked", s.FailedPages)))
	}
}

func (r *Runner) writeReconciled(result *tasks.ReconcileResult) error {
	r.writePlainln("%s", ui.Styles.OK("✓ Playlist deduplicated"))
	r.writePlain("Removed: %d track ids\n", result.Removed)
	r.writePlain("Re-added: %d tracks\n", result.Added)
	if result.SnapshotID != "" {
		r.writePlain("Snapshot: %s\n", result.SnapshotID)
	}
	if result.Plan != nil {
		return r.writePlain("Plan: %s\n", result.Plan.PlanID)
	}
	return nil
}
