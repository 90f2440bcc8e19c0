package store

import (
	"context"
	"errors"
	"time"

	"github.com/Falcon-J/saathi/internal/model"
)

// ErrAlreadyExists is returned when creating an entity whose key is taken
var ErrAlreadyExists = errors.New("already exists")

// UserStore defines the contract for user data access
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

// SessionStore defines the contract for session data access
type SessionStore interface {
	Create(ctx context.Context, session *model.Session, ttl time.Duration) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}

// WorkspaceStore defines the contract for workspace data access.
// Membership lookups go through the per-user workspace index.
type WorkspaceStore interface {
	GetByID(ctx context.Context, id string) (*model.Workspace, error)
	Save(ctx context.Context, ws *model.Workspace) error
	Delete(ctx context.Context, id string) error
	ListIDsForUser(ctx context.Context, email string) ([]string, error)
	AddToUser(ctx context.Context, email, workspaceID string) error
	RemoveFromUser(ctx context.Context, email, workspaceID string) error
}

// TaskStore keeps a workspace's tasks as one list, matching the stored layout
type TaskStore interface {
	ListByWorkspace(ctx context.Context, workspaceID string) ([]model.Task, error)
	SaveAll(ctx context.Context, workspaceID string, tasks []model.Task) error
	DeleteAll(ctx context.Context, workspaceID string) error
}

// InvitationStore defines the contract for invitation data access
type InvitationStore interface {
	GetByID(ctx context.Context, id string) (*model.Invitation, error)
	Save(ctx context.Context, inv *model.Invitation) error
	Delete(ctx context.Context, id string) error
	ListIDsForUser(ctx context.Context, email string) ([]string, error)
	AddToUser(ctx context.Context, email, invitationID string) error
	RemoveFromUser(ctx context.Context, email, invitationID string) error
}
