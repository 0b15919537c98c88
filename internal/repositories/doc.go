// Package repositories implements SQLite persistence for reconciliation plans.
//
// A plan row carries status and bookkeeping; its remove and keep sets live in
// plan_tracks, one row per id, ordered by position so a reloaded plan replays
// its batches in the same first-appearance order.
//
// Key Implementations:
//   - [PlanRepository] : models.Repository[*models.Plan] backed by the plans and plan_tracks tables
package repositories
