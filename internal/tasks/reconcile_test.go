package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/dupx/internal/models"
	"github.com/desertthunder/dupx/internal/shared"
	tu "github.com/desertthunder/dupx/internal/testing"
)

func duplicatedPlaylist() *tu.MockPlaylistService {
	return tu.NewMockPlaylistService("pl1",
		track("id1", "Song", 180, "X"),
		track("id2", "Song", 180, "X"),
		track("id3", "Other", 200, "Y"),
		track("id1", "Song", 180, "X"),
	)
}

func resolveMock(t *testing.T, e *PlaylistEngine) (*models.Playlist, *Resolution) {
	t.Helper()
	res, err := e.Ingest(context.Background(), "pl1", nil)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	return res.Playlist, Resolve(res.Tracks)
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	cfg := shared.ReconcileConfig{MaxRetries: 2, BatchSize: 100}

	t.Run("removes then re-adds one survivor", func(t *testing.T) {
		svc := duplicatedPlaylist()
		plans := tu.NewMockPlanStore()
		e := newTestEngine(svc, plans, cfg)
		pl, res := resolveMock(t, e)
		progress := make(chan ProgressUpdate, 32)

		out, err := e.Reconcile(ctx, pl, res, progress)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		calls := slices.DeleteFunc(slices.Clone(svc.Calls), func(c string) bool { return c != "remove" && c != "add" })
		if fmt.Sprint(calls) != "[remove add]" {
			t.Errorf("expected remove before add, got %v", calls)
		}
		if fmt.Sprint(svc.Removed) != "[[id1 id2]]" || fmt.Sprint(svc.Added) != "[[id1]]" {
			t.Errorf("unexpected calls: removed %v added %v", svc.Removed, svc.Added)
		}
		if fmt.Sprint(svc.IDs()) != "[id3 id1]" {
			t.Errorf("expected playlist [id3 id1], got %v", svc.IDs())
		}

		if out.Removed != 2 || out.Added != 1 || out.SnapshotID != "snap-a1" {
			t.Errorf("unexpected result %+v", out)
		}

		stored, err := plans.Get(out.Plan.PlanID)
		if err != nil {
			t.Fatalf("expected stored plan: %v", err)
		}
		if stored.Status != models.PlanCompleted || !stored.Removed {
			t.Errorf("expected completed plan, got %+v", stored)
		}
		want := []models.PlanStatus{models.PlanPending, models.PlanRemoved, models.PlanCompleted}
		if !slices.Equal(plans.History, want) {
			t.Errorf("expected status history %v, got %v", want, plans.History)
		}

		phases := map[Phase]bool{}
		for _, u := range drain(progress) {
			phases[u.Phase] = true
		}
		for _, p := range []Phase{SavePlan, RemoveTracks, AddTracks, Finished} {
			if !phases[p] {
				t.Errorf("expected a %s update", p)
			}
		}
	})

	t.Run("re-ingesting finds no duplicates", func(t *testing.T) {
		svc := duplicatedPlaylist()
		e := newTestEngine(svc, tu.NewMockPlanStore(), cfg)
		pl, res := resolveMock(t, e)

		if _, err := e.Reconcile(ctx, pl, res, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		svc.Meta.TotalItems = len(svc.Items)
		if _, again := resolveMock(t, e); again.HasDuplicates() {
			t.Errorf("expected no duplicates after reconcile, got %+v", again.Groups)
		}
	})

	t.Run("chunks at batch size", func(t *testing.T) {
		var tracks []models.Track
		for i := range 130 {
			id := fmt.Sprintf("id%03d", i)
			tracks = append(tracks, track(id, fmt.Sprintf("Song %d", i), 100, "X"), track(id+"b", fmt.Sprintf("Song %d", i), 100, "X"))
		}
		svc := tu.NewMockPlaylistService("pl1", tracks...)
		e := newTestEngine(svc, tu.NewMockPlanStore(), cfg)
		pl, res := resolveMock(t, e)

		if _, err := e.Reconcile(ctx, pl, res, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var removeSizes, addSizes []int
		for _, b := range svc.Removed {
			removeSizes = append(removeSizes, len(b))
		}
		for _, b := range svc.Added {
			addSizes = append(addSizes, len(b))
		}
		if fmt.Sprint(removeSizes) != "[100 100 60]" {
			t.Errorf("unexpected remove batches %v", removeSizes)
		}
		if fmt.Sprint(addSizes) != "[100 30]" {
			t.Errorf("unexpected add batches %v", addSizes)
		}
	})

	t.Run("transient failures are retried", func(t *testing.T) {
		svc := duplicatedPlaylist()
		svc.RemoveErrs = []error{shared.ErrAPIRequest, shared.ErrAPIRequest}
		e := newTestEngine(svc, tu.NewMockPlanStore(), cfg)
		pl, res := resolveMock(t, e)

		if _, err := e.Reconcile(ctx, pl, res, nil); err != nil {
			t.Fatalf("expected retries to succeed, got %v", err)
		}
		if n := strings.Count(strings.Join(svc.Calls, ","), "remove"); n != 3 {
			t.Errorf("expected 3 remove attempts, got %d", n)
		}
	})

	t.Run("add failure leaves a failed plan that resume completes", func(t *testing.T) {
		svc := duplicatedPlaylist()
		svc.AddErrs = []error{shared.ErrAPIRequest, shared.ErrAPIRequest, shared.ErrAPIRequest}
		plans := tu.NewMockPlanStore()
		e := newTestEngine(svc, plans, cfg)
		pl, res := resolveMock(t, e)

		out, err := e.Reconcile(ctx, pl, res, nil)
		if !errors.Is(err, shared.ErrPartialReconcile) {
			t.Fatalf("expected ErrPartialReconcile, got %v", err)
		}
		if !strings.Contains(err.Error(), out.Plan.PlanID) {
			t.Errorf("expected error to name plan %s, got %v", out.Plan.PlanID, err)
		}

		stored, _ := plans.Get(out.Plan.PlanID)
		if stored.Status != models.PlanFailed || !stored.Removed || stored.LastError == "" {
			t.Fatalf("expected failed plan after removal, got %+v", stored)
		}
		if fmt.Sprint(svc.IDs()) != "[id3]" {
			t.Errorf("expected duplicates removed, got %v", svc.IDs())
		}

		resumed, err := e.Resume(ctx, out.Plan.PlanID, nil)
		if err != nil {
			t.Fatalf("resume failed: %v", err)
		}
		if resumed.Added != 1 {
			t.Errorf("expected 1 re-added track, got %d", resumed.Added)
		}
		if len(svc.Removed) != 1 {
			t.Errorf("expected resume not to remove again, got %v", svc.Removed)
		}
		if fmt.Sprint(svc.IDs()) != "[id3 id1]" {
			t.Errorf("expected [id3 id1], got %v", svc.IDs())
		}

		if _, err := e.Resume(ctx, out.Plan.PlanID, nil); !errors.Is(err, shared.ErrPlanSettled) {
			t.Errorf("expected ErrPlanSettled, got %v", err)
		}
	})

	t.Run("resume after a partial add only sends the remaining batches", func(t *testing.T) {
		svc := tu.NewMockPlaylistService("pl1",
			track("a1", "Song", 180, "X"),
			track("b1", "Tune", 200, "Y"),
			track("a1", "Song", 180, "X"),
			track("b1", "Tune", 200, "Y"),
		)
		svc.AddErrs = []error{nil, shared.ErrAPIRequest}
		plans := tu.NewMockPlanStore()
		e := newTestEngine(svc, plans, shared.ReconcileConfig{MaxRetries: 0, BatchSize: 1})
		pl, res := resolveMock(t, e)

		out, err := e.Reconcile(ctx, pl, res, nil)
		if !errors.Is(err, shared.ErrPartialReconcile) {
			t.Fatalf("expected ErrPartialReconcile, got %v", err)
		}
		if !strings.Contains(err.Error(), "1 of 2 tracks") {
			t.Errorf("expected error to count the missing track, got %v", err)
		}
		if out.Added != 1 {
			t.Errorf("expected 1 track added before the failure, got %d", out.Added)
		}

		stored, _ := plans.Get(out.Plan.PlanID)
		if stored.Status != models.PlanFailed || stored.Added != 1 {
			t.Fatalf("expected failed plan with 1 added, got %+v", stored)
		}

		resumed, err := e.Resume(ctx, out.Plan.PlanID, nil)
		if err != nil {
			t.Fatalf("resume failed: %v", err)
		}
		if resumed.Added != 1 {
			t.Errorf("expected resume to add 1 track, got %d", resumed.Added)
		}

		want := fmt.Sprint([][]string{{stored.KeepIDs[0]}, {stored.KeepIDs[1]}})
		if fmt.Sprint(svc.Added) != want {
			t.Errorf("expected add calls %s, got %v", want, svc.Added)
		}
		for _, id := range []string{"a1", "b1"} {
			if n := strings.Count(fmt.Sprint(svc.IDs()), id); n != 1 {
				t.Errorf("expected %s once in %v, got %d", id, svc.IDs(), n)
			}
		}

		final, _ := plans.Get(out.Plan.PlanID)
		if final.Status != models.PlanCompleted || final.Added != 2 {
			t.Errorf("expected completed plan with 2 added, got %+v", final)
		}
	})

	t.Run("resume logs carry the plan id", func(t *testing.T) {
		svc := duplicatedPlaylist()
		svc.AddErrs = []error{shared.ErrAPIRequest}
		plans := tu.NewMockPlanStore()
		e := newTestEngine(svc, plans, shared.ReconcileConfig{MaxRetries: 0, BatchSize: 100})
		pl, res := resolveMock(t, e)

		out, err := e.Reconcile(ctx, pl, res, nil)
		if !errors.Is(err, shared.ErrPartialReconcile) {
			t.Fatalf("expected ErrPartialReconcile, got %v", err)
		}

		var buf bytes.Buffer
		e.logger = shared.NewLogger(&buf)
		if _, err := e.Resume(ctx, out.Plan.PlanID, nil); err != nil {
			t.Fatalf("resume failed: %v", err)
		}
		if !strings.Contains(buf.String(), "resuming plan") || !strings.Contains(buf.String(), "plan="+out.Plan.PlanID) {
			t.Errorf("expected resume log to name plan %s, got %q", out.Plan.PlanID, buf.String())
		}
	})

	t.Run("remove failure keeps the plan resumable from the start", func(t *testing.T) {
		svc := duplicatedPlaylist()
		svc.RemoveErrs = []error{shared.ErrPlaylistNotFound}
		plans := tu.NewMockPlanStore()
		e := newTestEngine(svc, plans, cfg)
		pl, res := resolveMock(t, e)

		out, err := e.Reconcile(ctx, pl, res, nil)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if n := strings.Count(strings.Join(svc.Calls, ","), "remove"); n != 1 {
			t.Errorf("expected a permanent error not to be retried, got %d attempts", n)
		}
		if slices.Contains(svc.Calls, "add") {
			t.Error("expected no add after a failed remove")
		}

		stored, _ := plans.Get(out.Plan.PlanID)
		if stored.Status != models.PlanFailed || stored.Removed {
			t.Fatalf("expected failed plan before removal, got %+v", stored)
		}

		if _, err := e.Resume(ctx, out.Plan.PlanID, nil); err != nil {
			t.Fatalf("resume failed: %v", err)
		}
		if fmt.Sprint(svc.IDs()) != "[id3 id1]" {
			t.Errorf("expected [id3 id1], got %v", svc.IDs())
		}
	})

	t.Run("plan store failure aborts before any mutation", func(t *testing.T) {
		svc := duplicatedPlaylist()
		plans := tu.NewMockPlanStore()
		plans.CreateErr = tu.ErrStore
		e := newTestEngine(svc, plans, cfg)
		pl, res := resolveMock(t, e)

		if _, err := e.Reconcile(ctx, pl, res, nil); !errors.Is(err, tu.ErrStore) {
			t.Fatalf("expected store error, got %v", err)
		}
		if slices.Contains(svc.Calls, "remove") {
			t.Error("expected no remove call")
		}
	})

	t.Run("nothing actionable", func(t *testing.T) {
		svc := tu.NewMockPlaylistService("pl1", track("", "Song", 1, "X"), track("", "Song", 1, "X"))
		e := newTestEngine(svc, tu.NewMockPlanStore(), cfg)
		pl, res := resolveMock(t, e)

		out, err := e.Reconcile(ctx, pl, res, nil)
		if err != nil || out.Plan != nil {
			t.Errorf("expected a no-op, got %+v, %v", out, err)
		}
		if slices.Contains(svc.Calls, "remove") || slices.Contains(svc.Calls, "add") {
			t.Error("expected no mutation")
		}
	})

	t.Run("resume unknown plan", func(t *testing.T) {
		e := newTestEngine(duplicatedPlaylist(), tu.NewMockPlanStore(), cfg)
		if _, err := e.Resume(ctx, "missing", nil); !errors.Is(err, shared.ErrPlanNotFound) {
			t.Errorf("expected ErrPlanNotFound, got %v", err)
		}
	})

	t.Run("without a plan store", func(t *testing.T) {
		svc := duplicatedPlaylist()
		e := newTestEngine(svc, nil, cfg)
		pl, res := resolveMock(t, e)

		out, err := e.Reconcile(ctx, pl, res, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out.Plan.Status != models.PlanCompleted {
			t.Errorf("expected completed plan, got %s", out.Plan.Status)
		}
		if _, err := e.Resume(ctx, out.Plan.PlanID, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
