package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// GoalService manages savings goals and their contributions.
type GoalService struct {
	store storage.Store
}

func NewGoalService(store storage.Store) *GoalService {
	return &GoalService{store: store}
}

func (s *GoalService) List(ctx context.Context, ownerID string) ([]core.Goal, error) {
	goals, err := s.store.ListGoals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

func (s *GoalService) Get(ctx context.Context, ownerID, id string) (core.Goal, error) {
	g, err := s.store.GetGoal(ctx, ownerID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Goal{}, core.NotFoundf("goal not found")
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

// Create stores a new active goal with nothing saved yet.
func (s *GoalService) Create(ctx context.Context, ownerID string, g core.Goal) (core.Goal, error) {
	g.ID = ""
	g.OwnerID = ownerID
	g.CurrentAmount = core.Money{}
	g.Status = core.GoalActive
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}

	id, err := s.store.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	return s.confirm(ctx, ownerID, id, "create goal")
}

func (s *GoalService) Update(ctx context.Context, ownerID, id string, p storage.GoalPatch) (core.Goal, error) {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return core.Goal{}, err
	}
	if err := validateGoalPatch(p); err != nil {
		return core.Goal{}, err
	}

	if err := s.store.UpdateGoal(ctx, ownerID, id, p); err != nil {
		return core.Goal{}, writeFailed("update goal", err)
	}
	return s.confirm(ctx, ownerID, id, "update goal")
}

func validateGoalPatch(p storage.GoalPatch) error {
	if p.Name != nil {
		if err := core.ValidateGoalName(*p.Name); err != nil {
			return err
		}
	}
	if p.TargetAmount != nil {
		if err := p.TargetAmount.Validate(); err != nil {
			return err
		}
	}
	if p.Deadline != nil {
		if err := p.Deadline.Validate(); err != nil {
			return err
		}
	}
	if p.Status != nil && !p.Status.IsValid() {
		return core.ErrInvalidStatus
	}
	return nil
}

func (s *GoalService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.store.DeleteGoal(ctx, ownerID, id); err != nil {
		return writeFailed("delete goal", err)
	}
	return nil
}

// AddContribution deposits into an active goal. The store applies the
// increment and the completion transition atomically.
func (s *GoalService) AddContribution(ctx context.Context, ownerID, goalID string, c core.Contribution) (core.Goal, error) {
	c.ID = ""
	c.GoalID = goalID
	if err := c.Validate(); err != nil {
		return core.Goal{}, err
	}

	g, err := s.store.AddGoalContribution(ctx, ownerID, c)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return core.Goal{}, core.NotFoundf("goal not found")
	case errors.Is(err, storage.ErrGoalInactive):
		return core.Goal{}, core.BadRequestf("cannot add contribution to inactive goal")
	case err != nil:
		return core.Goal{}, fmt.Errorf("add contribution: %w", err)
	}

	if g.Status == core.GoalCompleted {
		slog.InfoContext(ctx, "Goal completed", "id", g.ID, "target", g.TargetAmount.String())
	}
	return g, nil
}

// ListContributions returns the goal's deposits, newest first.
func (s *GoalService) ListContributions(ctx context.Context, ownerID, goalID string) ([]core.Contribution, error) {
	cs, err := s.store.ListContributions(ctx, ownerID, goalID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, core.NotFoundf("goal not found")
	}
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	if cs == nil {
		cs = []core.Contribution{}
	}
	return cs, nil
}

func (s *GoalService) confirm(ctx context.Context, ownerID, id, op string) (core.Goal, error) {
	g, err := s.store.GetGoal(ctx, ownerID, id)
	if err != nil {
		return core.Goal{}, writeFailed(op, err)
	}
	return g, nil
}
