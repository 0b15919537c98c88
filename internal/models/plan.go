package models

import (
	"fmt"
	"time"
)

// PlanStatus tracks how far a reconciliation got.
type PlanStatus string

const (
	PlanPending   PlanStatus = "pending"
	PlanRemoved   PlanStatus = "removed"
	PlanCompleted PlanStatus = "completed"
	PlanFailed    PlanStatus = "failed"
)

// Plan is the persisted remove/keep sets for one playlist.
//
// Removed records whether the remove step finished. Added counts the leading
// KeepIDs already appended, so a resumed plan never adds an id twice.
type Plan struct {
	PlanID       string
	PlaylistID   string
	PlaylistName string
	RemoveIDs    []string
	KeepIDs      []string
	Status       PlanStatus
	Removed      bool
	Added        int
	LastError    string
	Created      time.Time
	Updated      time.Time
}

func (p *Plan) ID() string           { return p.PlanID }
func (p *Plan) CreatedAt() time.Time { return p.Created }
func (p *Plan) UpdatedAt() time.Time { return p.Updated }

func (p *Plan) Validate() error {
	if p.PlanID == "" {
		return fmt.Errorf("plan id is required")
	}
	if p.PlaylistID == "" {
		return fmt.Errorf("playlist id is required")
	}
	switch p.Status {
	case PlanPending, PlanRemoved, PlanCompleted, PlanFailed:
	default:
		return fmt.Errorf("unknown plan status %q", p.Status)
	}
	if p.Added < 0 || p.Added > len(p.KeepIDs) {
		return fmt.Errorf("added count %d out of range", p.Added)
	}
	if len(p.KeepIDs) > len(p.RemoveIDs) {
		return fmt.Errorf("keep set larger than remove set")
	}
	return nil
}

// Pending returns the keep ids not yet re-added.
func (p *Plan) Pending() []string {
	return p.KeepIDs[min(max(p.Added, 0), len(p.KeepIDs)):]
}

// Settled reports whether there is nothing left to do.
func (p *Plan) Settled() bool {
	return p.Status == PlanCompleted
}
