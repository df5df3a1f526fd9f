// Package task serves the owner-scoped to-do items.
package task

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/store"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/task/entity"
)

type IDGenerator interface {
	NewID() string
}

// Service applies every task operation on behalf of one owner. A task
// owned by someone else is reported as not found.
type Service struct {
	tasks  store.Tasks
	ids    IDGenerator
	now    func() time.Time
	logger *zap.SugaredLogger
}

func NewService(tasks store.Tasks, ids IDGenerator, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{tasks: tasks, ids: ids, now: time.Now, logger: logger}
}

func normalizeDescription(raw string) (string, error) {
	d := strings.TrimSpace(raw)
	if d == "" {
		return "", apperr.Validation("description is required")
	}
	return d, nil
}

// Create stores a new task owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, draft entity.Draft) (*entity.Task, error) {
	desc, err := normalizeDescription(draft.Description)
	if err != nil {
		return nil, err
	}
	now := s.now()
	t := &entity.Task{
		ID:          s.ids.NewID(),
		Description: desc,
		Progress:    draft.Progress,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, store.Classify("create task", err)
	}
	s.logger.Debugw("task created", "task_id", t.ID, "owner", ownerID)
	return t, nil
}

func (s *Service) List(ctx context.Context, ownerID string, opts entity.ListOptions) ([]entity.Task, error) {
	tasks, err := s.tasks.List(ctx, ownerID, opts)
	if err != nil {
		return nil, store.Classify("list tasks", err)
	}
	return tasks, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (*entity.Task, error) {
	t, err := s.tasks.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, store.Classify("get task", err)
	}
	return t, nil
}

// Update validates the patch before loading the task, so nothing is
// written when any field is bad.
func (s *Service) Update(ctx context.Context, ownerID, id string, patch entity.Patch) (*entity.Task, error) {
	var desc string
	if patch.Description != nil {
		d, err := normalizeDescription(*patch.Description)
		if err != nil {
			return nil, err
		}
		desc = d
	}

	t, err := s.tasks.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, store.Classify("update task", err)
	}
	if patch.Empty() {
		return t, nil
	}
	if patch.Description != nil {
		t.Description = desc
	}
	if patch.Progress != nil {
		t.Progress = *patch.Progress
	}
	t.UpdatedAt = s.now()
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, store.Classify("update task", err)
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) (*entity.Task, error) {
	t, err := s.tasks.DeleteOwned(ctx, id, ownerID)
	if err != nil {
		return nil, store.Classify("delete task", err)
	}
	return t, nil
}
