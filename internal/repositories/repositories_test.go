package repositories

import (
	"database/sql"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/dupx/internal/models"
	"github.com/desertthunder/dupx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func newPlan(playlistID string) *models.Plan {
	return &models.Plan{
		PlaylistID:   playlistID,
		PlaylistName: "Road Trip",
		RemoveIDs:    []string{"id1", "id2", "id4"},
		KeepIDs:      []string{"id1", "id4"},
		Status:       models.PlanPending,
	}
}

func TestPlanRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewPlanRepository(setupTestDB(t))
		plan := newPlan("pl1")

		if err := repo.Create(plan); err != nil {
			t.Fatalf("failed to create plan: %v", err)
		}
		if plan.PlanID == "" {
			t.Error("plan ID should be set after creation")
		}
		if plan.Created.IsZero() || plan.Updated.IsZero() {
			t.Error("timestamps should be set after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewPlanRepository(setupTestDB(t))
		plan := newPlan("pl1")
		if err := repo.Create(plan); err != nil {
			t.Fatalf("failed to create plan: %v", err)
		}

		got, err := repo.Get(plan.PlanID)
		if err != nil {
			t.Fatalf("failed to get plan: %v", err)
		}

		if got.PlaylistID != "pl1" || got.PlaylistName != "Road Trip" {
			t.Errorf("unexpected playlist fields: %+v", got)
		}
		if got.Status != models.PlanPending || got.Removed {
			t.Errorf("unexpected status: %s removed=%v", got.Status, got.Removed)
		}
		if !slices.Equal(got.RemoveIDs, plan.RemoveIDs) {
			t.Errorf("expected remove set %v, got %v", plan.RemoveIDs, got.RemoveIDs)
		}
		if !slices.Equal(got.KeepIDs, plan.KeepIDs) {
			t.Errorf("expected keep set %v, got %v", plan.KeepIDs, got.KeepIDs)
		}
		if !got.Created.Equal(plan.Created) {
			t.Errorf("expected created %v, got %v", plan.Created, got.Created)
		}
	})

	t.Run("Get preserves order past ten ids", func(t *testing.T) {
		repo := NewPlanRepository(setupTestDB(t))
		plan := newPlan("pl1")
		plan.RemoveIDs = []string{"k", "j", "i", "h", "g", "f", "e", "d", "c", "b", "a"}
		plan.KeepIDs = []string{"k", "a"}
		if err := repo.Create(plan); err != nil {
			t.Fatalf("failed to create plan: %v", err)
		}

		got, err := repo.Get(plan.PlanID)
		if err != nil {
			t.Fatalf("failed to get plan: %v", err)
		}
		if !slices.Equal(got.RemoveIDs, plan.RemoveIDs) {
			t.Errorf("expected remove set %v, got %v", plan.RemoveIDs, got.RemoveIDs)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewPlanRepository(setupTestDB(t))
		plan := newPlan("pl1")
		if err := repo.Create(plan); err != nil {
			t.Fatalf("failed to create plan: %v", err)
		}

		plan.Status = models.PlanFailed
		plan.Removed = true
		plan.Added = 1
		plan.LastError = "503 from upstream"
		if err := repo.Update(plan); err != nil {
			t.Fatalf("failed to update plan: %v", err)
		}

		got, err := repo.Get(plan.PlanID)
		if err != nil {
			t.Fatalf("failed to get plan: %v", err)
		}
		if got.Status != models.PlanFailed || !got.Removed || got.Added != 1 || got.LastError != "503 from upstream" {
			t.Errorf("update not persisted: %+v", got)
		}
		if len(got.RemoveIDs) != 3 {
			t.Errorf("expected track sets untouched, got %v", got.RemoveIDs)
		}
	})

	t.Run("Delete cascades to tracks", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlanRepository(db)
		plan := newPlan("pl1")
		if err := repo.Create(plan); err != nil {
			t.Fatalf("failed to create plan: %v", err)
		}

		if err := repo.Delete(plan.PlanID); err != nil {
			t.Fatalf("failed to delete plan: %v", err)
		}
		if _, err := repo.Get(plan.PlanID); !errors.Is(err, shared.ErrPlanNotFound) {
			t.Errorf("expected ErrPlanNotFound, got %v", err)
		}

		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM plan_tracks WHERE plan_id = ?", plan.PlanID).Scan(&n); err != nil {
			t.Fatalf("failed to count tracks: %v", err)
		}
		if n != 0 {
			t.Errorf("expected plan tracks to be deleted, got %d", n)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewPlanRepository(setupTestDB(t))
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		for i, seed := range []struct {
			playlist string
			status   models.PlanStatus
		}{
			{"pl1", models.PlanCompleted},
			{"pl1", models.PlanFailed},
			{"pl2", models.PlanFailed},
		} {
			plan := newPlan(seed.playlist)
			plan.Status = seed.status
			plan.Created = base.Add(time.Duration(i) * time.Hour)
			if err := repo.Create(plan); err != nil {
				t.Fatalf("failed to create plan: %v", err)
			}
		}

		tc := []struct {
			name     string
			criteria map[string]any
			want     []string
		}{
			{name: "all newest first", criteria: nil, want: []string{"pl2", "pl1", "pl1"}},
			{name: "by status", criteria: map[string]any{"status": models.PlanFailed}, want: []string{"pl2", "pl1"}},
			{name: "by status string", criteria: map[string]any{"status": "completed"}, want: []string{"pl1"}},
			{name: "by playlist", criteria: map[string]any{"playlist_id": "pl2"}, want: []string{"pl2"}},
			{name: "combined", criteria: map[string]any{"playlist_id": "pl1", "status": "failed"}, want: []string{"pl1"}},
			{name: "no match", criteria: map[string]any{"playlist_id": "nope"}, want: nil},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				plans, err := repo.List(tt.criteria)
				if err != nil {
					t.Fatalf("failed to list plans: %v", err)
				}

				var got []string
				for _, p := range plans {
					got = append(got, p.PlaylistID)
					if len(p.KeepIDs) != 2 {
						t.Errorf("expected keep set to be loaded, got %v", p.KeepIDs)
					}
				}
				if !slices.Equal(got, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			})
		}
	})
}

func TestPlanRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			repo := NewPlanRepository(setupTestDB(t))
			plan := newPlan("")

			if err := repo.Create(plan); err == nil {
				t.Fatal("expected validation error for empty playlist id")
			}
		})

		t.Run("DuplicateID", func(t *testing.T) {
			repo := NewPlanRepository(setupTestDB(t))
			plan := newPlan("pl1")
			if err := repo.Create(plan); err != nil {
				t.Fatalf("failed to create plan: %v", err)
			}

			again := newPlan("pl1")
			again.PlanID = plan.PlanID
			if err := repo.Create(again); err == nil {
				t.Fatal("expected error when creating plan with duplicate id")
			}

			got, err := repo.Get(plan.PlanID)
			if err != nil {
				t.Fatalf("failed to get plan: %v", err)
			}
			if len(got.RemoveIDs) != 3 {
				t.Errorf("expected failed insert to roll back, got %v", got.RemoveIDs)
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			repo := NewPlanRepository(setupTestDB(t))

			if _, err := repo.Get("nonexistent-id"); !errors.Is(err, shared.ErrPlanNotFound) {
				t.Fatalf("expected ErrPlanNotFound, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			repo := NewPlanRepository(setupTestDB(t))
			plan := newPlan("pl1")
			plan.PlanID = "nonexistent-id"

			if err := repo.Update(plan); !errors.Is(err, shared.ErrPlanNotFound) {
				t.Fatalf("expected ErrPlanNotFound, got %v", err)
			}
		})

		t.Run("InvalidStatus", func(t *testing.T) {
			repo := NewPlanRepository(setupTestDB(t))
			plan := newPlan("pl1")
			if err := repo.Create(plan); err != nil {
				t.Fatalf("failed to create plan: %v", err)
			}

			plan.Status = "halfway"
			if err := repo.Update(plan); err == nil {
				t.Fatal("expected validation error for unknown status")
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			repo := NewPlanRepository(setupTestDB(t))

			if err := repo.Delete("nonexistent-id"); !errors.Is(err, shared.ErrPlanNotFound) {
				t.Fatalf("expected ErrPlanNotFound, got %v", err)
			}
		})
	})
}
