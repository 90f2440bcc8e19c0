package store

import (
	"context"
	"time"

	"github.com/Falcon-J/saathi/internal/model"
)

type sessionStore struct {
	kv KV
}

func newSessionStore(kv KV) SessionStore {
	return &sessionStore{kv: kv}
}

func (s *sessionStore) Create(ctx context.Context, session *model.Session, ttl time.Duration) error {
	return setJSON(ctx, s.kv, sessionKey(session.ID), session, ttl)
}

func (s *sessionStore) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	if err := getJSON(ctx, s.kv, sessionKey(id), &session); err != nil {
		return nil, err
	}
	session.ID = id
	return &session, nil
}

func (s *sessionStore) Delete(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, sessionKey(id))
}
