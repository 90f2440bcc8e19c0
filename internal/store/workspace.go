package store

import (
	"context"

	"github.com/Falcon-J/saathi/internal/model"
)

type workspaceStore struct {
	kv KV
}

func newWorkspaceStore(kv KV) WorkspaceStore {
	return &workspaceStore{kv: kv}
}

func (s *workspaceStore) GetByID(ctx context.Context, id string) (*model.Workspace, error) {
	var ws model.Workspace
	if err := getJSON(ctx, s.kv, workspaceKey(id), &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

func (s *workspaceStore) Save(ctx context.Context, ws *model.Workspace) error {
	return setJSON(ctx, s.kv, workspaceKey(ws.ID), ws, 0)
}

func (s *workspaceStore) Delete(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, workspaceKey(id))
}

func (s *workspaceStore) ListIDsForUser(ctx context.Context, email string) ([]string, error) {
	return s.kv.SetMembers(ctx, userWorkspacesKey(email))
}

func (s *workspaceStore) AddToUser(ctx context.Context, email, workspaceID string) error {
	return s.kv.SetAdd(ctx, userWorkspacesKey(email), workspaceID)
}

func (s *workspaceStore) RemoveFromUser(ctx context.Context, email, workspaceID string) error {
	return s.kv.SetRemove(ctx, userWorkspacesKey(email), workspaceID)
}
