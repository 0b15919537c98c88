package tasks

import (
	"fmt"

	"github.com/desertthunder/dupx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase      Phase  // Operation phase
	Step       int    // Current step number within phase
	Total      int    // Total steps in this phase (the playlist's declared size while ingesting)
	Duplicates int    // Keys seen more than once so far
	Message    string // Human-readable message for display
	Data       any    // Optional phase-specific data for advanced UIs
}

// Percent is Step/Total clamped to [0, 1].
func (u ProgressUpdate) Percent() float64 {
	if u.Total <= 0 {
		return 0
	}
	p := float64(u.Step) / float64(u.Total)
	return min(max(p, 0), 1)
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylist Phase = iota
	FetchItems
	SavePlan
	RemoveTracks
	AddTracks
	Finished
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylist:
		return "fetch_playlist"
	case FetchItems:
		return "fetch_items"
	case SavePlan:
		return "save_plan"
	case RemoveTracks:
		return "remove_tracks"
	case AddTracks:
		return "add_tracks"
	case Finished:
		return "finished"
	default:
		return ""
	}
}

func fetchPlaylistUpdate(id string) ProgressUpdate {
	return ProgressUpdate{Phase: FetchPlaylist, Message: fmt.Sprintf("Fetching playlist %s...", id)}
}

func foundPlaylistUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d items)", pl.Name, pl.TotalItems),
		Data:    pl,
	}
}

func ingestUpdate(step, total, duplicates int, tr *models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:      FetchItems,
		Step:       step,
		Total:      total,
		Duplicates: duplicates,
		Message:    tr.Name,
	}
}

func savePlanUpdate(plan *models.Plan) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SavePlan,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Saved plan %s", plan.PlanID),
		Data:    plan,
	}
}

func batchUpdate(phase Phase, step, total int) ProgressUpdate {
	verb := "Removing"
	if phase == AddTracks {
		verb = "Re-adding"
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("%s tracks [%d/%d]", verb, step, total),
	}
}

func finishedUpdate(plan *models.Plan) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Finished,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Plan %s %s", plan.PlanID, plan.Status),
		Data:    plan,
	}
}
