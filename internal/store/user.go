package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Falcon-J/saathi/internal/model"
)

type userStore struct {
	kv KV
}

func newUserStore(kv KV) UserStore {
	return &userStore{kv: kv}
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := getJSON(ctx, s.kv, userKey(email), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Create is check-then-set; two concurrent signups for one email race and
// the last write wins.
func (s *userStore) Create(ctx context.Context, user *model.User) error {
	_, err := s.kv.Get(ctx, userKey(user.Email))
	switch {
	case err == nil:
		return ErrAlreadyExists
	case !errors.Is(err, ErrNotFound):
		return fmt.Errorf("checking user: %w", err)
	}
	return setJSON(ctx, s.kv, userKey(user.Email), user, 0)
}
