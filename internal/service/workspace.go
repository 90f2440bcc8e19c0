package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Falcon-J/saathi/common/id"
	"github.com/Falcon-J/saathi/internal/model"
	"github.com/Falcon-J/saathi/internal/store"
)

const maxWorkspaceNameLength = 100

var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrAccessDenied      = errors.New("access denied to workspace")
	ErrNotOwner          = errors.New("only the workspace owner can do this")
	ErrAlreadyMember     = errors.New("user is already a member of this workspace")
	ErrMemberNotFound    = errors.New("user is not a member of this workspace")
	ErrCannotRemoveOwner = errors.New("the workspace owner cannot be removed")
)

type WorkspaceService interface {
	Create(ctx context.Context, owner *model.Session, name string) (*model.Workspace, error)
	Get(ctx context.Context, workspaceID, email string) (*model.Workspace, error)
	ListForUser(ctx context.Context, email string) ([]model.Workspace, error)
	Rename(ctx context.Context, workspaceID, actor, name string) (*model.Workspace, error)
	Delete(ctx context.Context, workspaceID, actor string) error
	AddMember(ctx context.Context, workspaceID, actor, email string) (*model.Workspace, error)
	RemoveMember(ctx context.Context, workspaceID, actor, email string) (*model.Workspace, error)
	RequireMember(ctx context.Context, workspaceID, email string) (*model.Workspace, error)
}

type workspaceService struct {
	wsStore   store.WorkspaceStore
	userStore store.UserStore
	taskStore store.TaskStore
	publisher EventPublisher
}

func NewWorkspaceService(
	wsStore store.WorkspaceStore,
	userStore store.UserStore,
	taskStore store.TaskStore,
	publisher EventPublisher,
) WorkspaceService {
	return &workspaceService{
		wsStore:   wsStore,
		userStore: userStore,
		taskStore: taskStore,
		publisher: publisher,
	}
}

func (s *workspaceService) Create(ctx context.Context, owner *model.Session, name string) (*model.Workspace, error) {
	name, err := validateWorkspaceName(name)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ws := &model.Workspace{
		ID:      id.NewString(),
		Name:    name,
		OwnerID: owner.Email,
		Members: []model.WorkspaceMember{{
			Email:    owner.Email,
			Username: owner.Username,
			Role:     model.MemberRoleOwner,
			JoinedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.wsStore.Save(ctx, ws); err != nil {
		return nil, fmt.Errorf("saving workspace: %w", err)
	}
	if err := s.wsStore.AddToUser(ctx, owner.Email, ws.ID); err != nil {
		return nil, fmt.Errorf("indexing workspace: %w", err)
	}

	slog.InfoContext(ctx, "workspace created", "workspace_id", ws.ID, "owner", owner.Email)
	return ws, nil
}

func (s *workspaceService) Get(ctx context.Context, workspaceID, email string) (*model.Workspace, error) {
	return s.RequireMember(ctx, workspaceID, email)
}

// ListForUser skips index entries whose workspace no longer exists.
func (s *workspaceService) ListForUser(ctx context.Context, email string) ([]model.Workspace, error) {
	ids, err := s.wsStore.ListIDsForUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("listing workspaces: %w", err)
	}

	workspaces := make([]model.Workspace, 0, len(ids))
	for _, wsID := range ids {
		ws, err := s.wsStore.GetByID(ctx, wsID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("getting workspace %s: %w", wsID, err)
		}
		if ws.HasMember(email) {
			workspaces = append(workspaces, *ws)
		}
	}

	sort.Slice(workspaces, func(i, j int) bool {
		return workspaces[i].CreatedAt.After(workspaces[j].CreatedAt)
	})
	return workspaces, nil
}

func (s *workspaceService) Rename(ctx context.Context, workspaceID, actor, name string) (*model.Workspace, error) {
	name, err := validateWorkspaceName(name)
	if err != nil {
		return nil, err
	}

	ws, err := s.requireOwner(ctx, workspaceID, actor)
	if err != nil {
		return nil, err
	}

	ws.Name = name
	ws.UpdatedAt = time.Now()
	if err := s.wsStore.Save(ctx, ws); err != nil {
		return nil, fmt.Errorf("saving workspace: %w", err)
	}
	return ws, nil
}

func (s *workspaceService) Delete(ctx context.Context, workspaceID, actor string) error {
	ws, err := s.requireOwner(ctx, workspaceID, actor)
	if err != nil {
		return err
	}

	for _, m := range ws.Members {
		if err := s.wsStore.RemoveFromUser(ctx, m.Email, ws.ID); err != nil {
			slog.WarnContext(ctx, "failed to unlink workspace from member", "error", err, "email", m.Email)
		}
	}
	if err := s.wsStore.RemoveFromUser(ctx, ws.OwnerID, ws.ID); err != nil {
		slog.WarnContext(ctx, "failed to unlink workspace from owner", "error", err)
	}
	if err := s.taskStore.DeleteAll(ctx, ws.ID); err != nil {
		return fmt.Errorf("deleting tasks: %w", err)
	}
	if err := s.wsStore.Delete(ctx, ws.ID); err != nil {
		return fmt.Errorf("deleting workspace: %w", err)
	}

	slog.InfoContext(ctx, "workspace deleted", "workspace_id", ws.ID)
	return nil
}

func (s *workspaceService) AddMember(ctx context.Context, workspaceID, actor, email string) (*model.Workspace, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	ws, err := s.requireOwner(ctx, workspaceID, actor)
	if err != nil {
		return nil, err
	}
	if ws.HasMember(email) {
		return nil, ErrAlreadyMember
	}

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}

	return joinWorkspace(ctx, s.wsStore, s.publisher, ws, user.Email, user.Username, actor)
}

func (s *workspaceService) RemoveMember(ctx context.Context, workspaceID, actor, email string) (*model.Workspace, error) {
	email = normalizeEmail(email)

	ws, err := s.requireOwner(ctx, workspaceID, actor)
	if err != nil {
		return nil, err
	}
	if ws.IsOwner(email) {
		return nil, ErrCannotRemoveOwner
	}
	if !ws.RemoveMember(email) {
		return nil, ErrMemberNotFound
	}

	ws.UpdatedAt = time.Now()
	if err := s.wsStore.Save(ctx, ws); err != nil {
		return nil, fmt.Errorf("saving workspace: %w", err)
	}
	if err := s.wsStore.RemoveFromUser(ctx, email, ws.ID); err != nil {
		return nil, fmt.Errorf("unlinking workspace: %w", err)
	}

	publish(ctx, s.publisher, model.EventTypeUserLeft, ws.ID, email, memberEventData{Email: email, By: actor})

	slog.InfoContext(ctx, "member removed", "workspace_id", ws.ID, "email", email)
	return ws, nil
}

func (s *workspaceService) RequireMember(ctx context.Context, workspaceID, email string) (*model.Workspace, error) {
	return requireMember(ctx, s.wsStore, workspaceID, email)
}

func (s *workspaceService) requireOwner(ctx context.Context, workspaceID, actor string) (*model.Workspace, error) {
	ws, err := getWorkspace(ctx, s.wsStore, workspaceID)
	if err != nil {
		return nil, err
	}
	if !ws.IsOwner(actor) {
		return nil, ErrNotOwner
	}
	return ws, nil
}

// joinWorkspace adds the member, links the workspace to them and announces it.
func joinWorkspace(ctx context.Context, wsStore store.WorkspaceStore, pub EventPublisher, ws *model.Workspace, email, username, by string) (*model.Workspace, error) {
	now := time.Now()
	ws.Members = append(ws.Members, model.WorkspaceMember{
		Email:    email,
		Username: username,
		Role:     model.MemberRoleMember,
		JoinedAt: now,
	})
	ws.UpdatedAt = now

	if err := wsStore.Save(ctx, ws); err != nil {
		return nil, fmt.Errorf("saving workspace: %w", err)
	}
	if err := wsStore.AddToUser(ctx, email, ws.ID); err != nil {
		return nil, fmt.Errorf("linking workspace: %w", err)
	}

	publish(ctx, pub, model.EventTypeUserJoined, ws.ID, email, memberEventData{
		Email:    email,
		Username: username,
		Role:     model.MemberRoleMember,
		By:       by,
	})

	slog.InfoContext(ctx, "member joined", "workspace_id", ws.ID, "email", email)
	return ws, nil
}

func getWorkspace(ctx context.Context, wsStore store.WorkspaceStore, workspaceID string) (*model.Workspace, error) {
	if strings.TrimSpace(workspaceID) == "" {
		return nil, invalid("workspace id is required")
	}

	ws, err := wsStore.GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("getting workspace: %w", err)
	}
	return ws, nil
}

func requireMember(ctx context.Context, wsStore store.WorkspaceStore, workspaceID, email string) (*model.Workspace, error) {
	ws, err := getWorkspace(ctx, wsStore, workspaceID)
	if err != nil {
		return nil, err
	}
	if !ws.HasMember(email) {
		return nil, ErrAccessDenied
	}
	return ws, nil
}

func validateWorkspaceName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("workspace name cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxWorkspaceNameLength {
		return "", invalid("workspace name cannot exceed %d characters", maxWorkspaceNameLength)
	}
	return name, nil
}
