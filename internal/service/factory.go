package service

import (
	"github.com/Falcon-J/saathi/core/config"
	"github.com/Falcon-J/saathi/internal/store"
)

type Services struct {
	stores     *store.Stores
	publisher  EventPublisher
	sessionCfg config.SessionConfig
}

func NewServices(stores *store.Stores, publisher EventPublisher, sessionCfg config.SessionConfig) *Services {
	return &Services{
		stores:     stores,
		publisher:  publisher,
		sessionCfg: sessionCfg,
	}
}

func (s *Services) Auth() AuthService {
	return NewAuthService(s.stores.Users(), s.stores.Sessions(), s.sessionCfg)
}

func (s *Services) Workspaces() WorkspaceService {
	return NewWorkspaceService(s.stores.Workspaces(), s.stores.Users(), s.stores.Tasks(), s.publisher)
}

func (s *Services) Invitations() InvitationService {
	return NewInvitationService(s.stores.Invitations(), s.stores.Workspaces(), s.publisher)
}

func (s *Services) Tasks() TaskService {
	return NewTaskService(s.stores.Tasks(), s.stores.Workspaces(), s.publisher)
}
