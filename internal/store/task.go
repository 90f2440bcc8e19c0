package store

import (
	"context"
	"errors"

	"github.com/Falcon-J/saathi/internal/model"
)

type taskStore struct {
	kv KV
}

func newTaskStore(kv KV) TaskStore {
	return &taskStore{kv: kv}
}

// ListByWorkspace returns an empty slice when the workspace has no tasks yet.
func (s *taskStore) ListByWorkspace(ctx context.Context, workspaceID string) ([]model.Task, error) {
	var tasks []model.Task
	if err := getJSON(ctx, s.kv, workspaceTasksKey(workspaceID), &tasks); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []model.Task{}, nil
		}
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (s *taskStore) SaveAll(ctx context.Context, workspaceID string, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	return setJSON(ctx, s.kv, workspaceTasksKey(workspaceID), tasks, 0)
}

func (s *taskStore) DeleteAll(ctx context.Context, workspaceID string) error {
	return s.kv.Delete(ctx, workspaceTasksKey(workspaceID))
}
