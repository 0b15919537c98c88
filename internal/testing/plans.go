package testing

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/desertthunder/dupx/internal/models"
	"github.com/desertthunder/dupx/internal/shared"
)

// MockPlanStore is an in-memory plan repository. Stored plans are copies.
type MockPlanStore struct {
	CreateErr error
	UpdateErr error

	mu    sync.Mutex
	plans map[string]models.Plan
	order []string
	// History records every status transition, in order. Progress writes
	// that keep the status are not repeated.
	History []models.PlanStatus
}

func NewMockPlanStore() *MockPlanStore {
	return &MockPlanStore{plans: make(map[string]models.Plan)}
}

func clonePlan(p models.Plan) models.Plan {
	p.RemoveIDs = slices.Clone(p.RemoveIDs)
	p.KeepIDs = slices.Clone(p.KeepIDs)
	return p
}

func (s *MockPlanStore) Create(plan *models.Plan) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if err := plan.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[plan.PlanID]; ok {
		return fmt.Errorf("plan %s already exists", plan.PlanID)
	}
	s.plans[plan.PlanID] = clonePlan(*plan)
	s.order = append(s.order, plan.PlanID)
	s.History = append(s.History, plan.Status)
	return nil
}

func (s *MockPlanStore) Get(id string) (*models.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlanNotFound, id)
	}
	c := clonePlan(p)
	return &c, nil
}

func (s *MockPlanStore) Update(plan *models.Plan) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[plan.PlanID]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlanNotFound, plan.PlanID)
	}
	if err := plan.Validate(); err != nil {
		return err
	}
	prev := s.plans[plan.PlanID].Status
	s.plans[plan.PlanID] = clonePlan(*plan)
	if prev != plan.Status {
		s.History = append(s.History, plan.Status)
	}
	return nil
}

func (s *MockPlanStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[id]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlanNotFound, id)
	}
	delete(s.plans, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

// List supports the "status" and "playlist_id" criteria.
func (s *MockPlanStore) List(criteria map[string]any) ([]*models.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Plan
	for _, id := range s.order {
		p := clonePlan(s.plans[id])
		if v, ok := criteria["status"]; ok && fmt.Sprint(v) != string(p.Status) {
			continue
		}
		if v, ok := criteria["playlist_id"]; ok && fmt.Sprint(v) != p.PlaylistID {
			continue
		}
		out = append(out, &p)
	}
	return out, nil
}

// ErrStore is a convenient failure for CreateErr/UpdateErr.
var ErrStore = errors.New("store unavailable")
