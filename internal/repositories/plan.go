package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/dupx/internal/models"
	"github.com/desertthunder/dupx/internal/shared"
)

const (
	kindRemove = "remove"
	kindKeep   = "keep"
)

// PlanRepository implements models.Repository[*models.Plan].
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository with the given database connection
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create inserts plan and its track sets in one transaction. An empty PlanID is filled in.
func (r *PlanRepository) Create(plan *models.Plan) error {
	if plan.PlanID == "" {
		plan.PlanID = shared.GenerateID()
	}
	now := time.Now().UTC()
	if plan.Created.IsZero() {
		plan.Created = now
	}
	if plan.Updated.IsZero() {
		plan.Updated = now
	}

	if err := plan.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return withTx(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO plans (id, playlist_id, playlist_name, status, removed, added, last_error, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			plan.PlanID, plan.PlaylistID, plan.PlaylistName, string(plan.Status),
			plan.Removed, plan.Added, plan.LastError, plan.Created, plan.Updated,
		)
		if err != nil {
			return fmt.Errorf("failed to insert plan: %w", err)
		}

		if err := insertTracks(tx, plan.PlanID, kindRemove, plan.RemoveIDs); err != nil {
			return err
		}
		return insertTracks(tx, plan.PlanID, kindKeep, plan.KeepIDs)
	})
}

func insertTracks(tx *sql.Tx, planID, kind string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(`INSERT INTO plan_tracks (plan_id, kind, position, track_id) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare track insert: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.Exec(planID, kind, i, id); err != nil {
			return fmt.Errorf("failed to insert %s track %s: %w", kind, id, err)
		}
	}
	return nil
}

// Get loads a plan with its remove and keep sets.
func (r *PlanRepository) Get(id string) (*models.Plan, error) {
	row := r.db.QueryRow(`
		SELECT id, playlist_id, playlist_name, status, removed, added, last_error, created_at, updated_at
		FROM plans
		WHERE id = ?`, id)

	plan, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlanNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadTracks(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Update writes status, progress and error. The track sets of a plan never change.
func (r *PlanRepository) Update(plan *models.Plan) error {
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	plan.Updated = time.Now().UTC()
	result, err := r.db.Exec(`
		UPDATE plans
		SET status = ?, removed = ?, added = ?, last_error = ?, updated_at = ?
		WHERE id = ?`,
		string(plan.Status), plan.Removed, plan.Added, plan.LastError, plan.Updated, plan.PlanID,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	return affected(result, fmt.Errorf("%w: %s", shared.ErrPlanNotFound, plan.PlanID))
}

// Delete removes a plan. Its tracks go with it through the foreign key cascade.
func (r *PlanRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	return affected(result, fmt.Errorf("%w: %s", shared.ErrPlanNotFound, id))
}

// List retrieves plans, newest first, filtered by the optional "status" and "playlist_id" criteria.
func (r *PlanRepository) List(criteria map[string]any) ([]*models.Plan, error) {
	query := `
		SELECT id, playlist_id, playlist_name, status, removed, added, last_error, created_at, updated_at
		FROM plans
		WHERE 1 = 1`
	args := []any{}

	switch status := criteria["status"].(type) {
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	case models.PlanStatus:
		query += " AND status = ?"
		args = append(args, string(status))
	}

	if playlistID, ok := criteria["playlist_id"].(string); ok && playlistID != "" {
		query += " AND playlist_id = ?"
		args = append(args, playlistID)
	}

	query += " ORDER BY created_at DESC, id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	for _, plan := range plans {
		if err := r.loadTracks(plan); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

func (r *PlanRepository) loadTracks(plan *models.Plan) error {
	rows, err := r.db.Query(`
		SELECT kind, track_id
		FROM plan_tracks
		WHERE plan_id = ?
		ORDER BY kind, position`, plan.PlanID)
	if err != nil {
		return fmt.Errorf("failed to query plan tracks: %w", err)
	}
	defer rows.Close()

	plan.RemoveIDs, plan.KeepIDs = nil, nil
	for rows.Next() {
		var kind, id string
		if err := rows.Scan(&kind, &id); err != nil {
			return fmt.Errorf("failed to scan plan track: %w", err)
		}
		switch kind {
		case kindRemove:
			plan.RemoveIDs = append(plan.RemoveIDs, id)
		case kindKeep:
			plan.KeepIDs = append(plan.KeepIDs, id)
		}
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanPlan reads the plans columns in SELECT order. sql.ErrNoRows is returned unwrapped.
func scanPlan(s scanner) (*models.Plan, error) {
	var (
		plan   models.Plan
		status string
	)

	err := s.Scan(
		&plan.PlanID, &plan.PlaylistID, &plan.PlaylistName, &status,
		&plan.Removed, &plan.Added, &plan.LastError, &plan.Created, &plan.Updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}

	plan.Status = models.PlanStatus(status)
	return &plan, nil
}
