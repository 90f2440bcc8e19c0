package store

import (
	"context"

	"github.com/Falcon-J/saathi/internal/model"
)

type invitationStore struct {
	kv KV
}

func newInvitationStore(kv KV) InvitationStore {
	return &invitationStore{kv: kv}
}

func (s *invitationStore) GetByID(ctx context.Context, id string) (*model.Invitation, error) {
	var inv model.Invitation
	if err := getJSON(ctx, s.kv, invitationKey(id), &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *invitationStore) Save(ctx context.Context, inv *model.Invitation) error {
	return setJSON(ctx, s.kv, invitationKey(inv.ID), inv, 0)
}

func (s *invitationStore) Delete(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, invitationKey(id))
}

func (s *invitationStore) ListIDsForUser(ctx context.Context, email string) ([]string, error) {
	return s.kv.SetMembers(ctx, userInvitationsKey(email))
}

func (s *invitationStore) AddToUser(ctx context.Context, email, invitationID string) error {
	return s.kv.SetAdd(ctx, userInvitationsKey(email), invitationID)
}

func (s *invitationStore) RemoveFromUser(ctx context.Context, email, invitationID string) error {
	return s.kv.SetRemove(ctx, userInvitationsKey(email), invitationID)
}
