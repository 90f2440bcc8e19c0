package store

type Stores struct {
	kv KV
}

func NewStores(kv KV) *Stores {
	return &Stores{kv: kv}
}

func (s *Stores) KV() KV {
	return s.kv
}

func (s *Stores) Users() UserStore {
	return newUserStore(s.kv)
}

func (s *Stores) Sessions() SessionStore {
	return newSessionStore(s.kv)
}

func (s *Stores) Workspaces() WorkspaceStore {
	return newWorkspaceStore(s.kv)
}

func (s *Stores) Tasks() TaskStore {
	return newTaskStore(s.kv)
}

func (s *Stores) Invitations() InvitationStore {
	return newInvitationStore(s.kv)
}
