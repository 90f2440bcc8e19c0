package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Falcon-J/saathi/common/id"
	"github.com/Falcon-J/saathi/internal/model"
	"github.com/Falcon-J/saathi/internal/store"
)

const InviteExpiryDays = 7

var (
	ErrInviteNotFound      = errors.New("invitation not found")
	ErrInviteExpired       = errors.New("invitation has expired")
	ErrInviteNotPending    = errors.New("invitation is no longer pending")
	ErrEmailMismatch       = errors.New("invitation does not belong to current user")
	ErrInvitePendingExists = errors.New("invitation already sent to this user")
	ErrCannotInviteSelf    = errors.New("you cannot invite yourself to the workspace")
)

type InvitationService interface {
	Send(ctx context.Context, workspaceID string, inviter *model.Session, inviteeEmail string) (*model.Invitation, error)
	ListForUser(ctx context.Context, email string) ([]model.Invitation, error)
	Accept(ctx context.Context, invitationID string, user *model.Session) (*model.Workspace, error)
	Decline(ctx context.Context, invitationID, email string) error
}

type invitationService struct {
	invStore  store.InvitationStore
	wsStore   store.WorkspaceStore
	publisher EventPublisher
}

func NewInvitationService(invStore store.InvitationStore, wsStore store.WorkspaceStore, publisher EventPublisher) InvitationService {
	return &invitationService{
		invStore:  invStore,
		wsStore:   wsStore,
		publisher: publisher,
	}
}

func (s *invitationService) Send(ctx context.Context, workspaceID string, inviter *model.Session, inviteeEmail string) (*model.Invitation, error) {
	inviteeEmail = normalizeEmail(inviteeEmail)
	if err := validateEmail(inviteeEmail); err != nil {
		return nil, err
	}
	if strings.EqualFold(inviteeEmail, inviter.Email) {
		return nil, ErrCannotInviteSelf
	}

	ws, err := getWorkspace(ctx, s.wsStore, workspaceID)
	if err != nil {
		return nil, err
	}
	if !ws.IsOwner(inviter.Email) {
		return nil, ErrNotOwner
	}
	if ws.HasMember(inviteeEmail) {
		return nil, ErrAlreadyMember
	}

	pending, err := s.ListForUser(ctx, inviteeEmail)
	if err != nil {
		return nil, err
	}
	for _, inv := range pending {
		if inv.WorkspaceID == ws.ID {
			return nil, ErrInvitePendingExists
		}
	}

	now := time.Now()
	inv := &model.Invitation{
		ID:            id.NewString(),
		WorkspaceID:   ws.ID,
		WorkspaceName: ws.Name,
		InviterEmail:  inviter.Email,
		InviteeEmail:  inviteeEmail,
		Status:        model.InvitationStatusPending,
		CreatedAt:     now,
		ExpiresAt:     now.Add(InviteExpiryDays * 24 * time.Hour),
	}

	if err := s.invStore.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("creating invitation: %w", err)
	}
	if err := s.invStore.AddToUser(ctx, inviteeEmail, inv.ID); err != nil {
		return nil, fmt.Errorf("indexing invitation: %w", err)
	}

	slog.InfoContext(ctx, "invitation created",
		"invitation_id", inv.ID,
		"workspace_id", ws.ID,
		"email", inviteeEmail,
		"expires_at", inv.ExpiresAt,
	)

	return inv, nil
}

// ListForUser returns the user's valid pending invitations, newest first.
func (s *invitationService) ListForUser(ctx context.Context, email string) ([]model.Invitation, error) {
	email = normalizeEmail(email)

	ids, err := s.invStore.ListIDsForUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}

	invitations := make([]model.Invitation, 0, len(ids))
	for _, invID := range ids {
		inv, err := s.invStore.GetByID(ctx, invID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("getting invitation %s: %w", invID, err)
		}
		if inv.IsValid() {
			invitations = append(invitations, *inv)
		}
	}

	sort.Slice(invitations, func(i, j int) bool {
		return invitations[i].CreatedAt.After(invitations[j].CreatedAt)
	})
	return invitations, nil
}

func (s *invitationService) Accept(ctx context.Context, invitationID string, user *model.Session) (*model.Workspace, error) {
	inv, err := s.getForUser(ctx, invitationID, user.Email)
	if err != nil {
		return nil, err
	}
	if inv.Status != model.InvitationStatusPending {
		return nil, ErrInviteNotPending
	}
	if time.Now().After(inv.ExpiresAt) {
		return nil, ErrInviteExpired
	}

	ws, err := getWorkspace(ctx, s.wsStore, inv.WorkspaceID)
	if err != nil {
		return nil, err
	}

	if !ws.HasMember(user.Email) {
		ws, err = joinWorkspace(ctx, s.wsStore, s.publisher, ws, user.Email, user.Username, inv.InviterEmail)
		if err != nil {
			return nil, err
		}
	}

	inv.Status = model.InvitationStatusAccepted
	if err := s.invStore.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("accepting invitation: %w", err)
	}
	if err := s.invStore.RemoveFromUser(ctx, user.Email, inv.ID); err != nil {
		slog.WarnContext(ctx, "failed to unlink accepted invitation", "error", err, "invitation_id", inv.ID)
	}

	slog.InfoContext(ctx, "invitation accepted",
		"invitation_id", inv.ID,
		"workspace_id", ws.ID,
		"email", user.Email,
	)

	return ws, nil
}

func (s *invitationService) Decline(ctx context.Context, invitationID, email string) error {
	inv, err := s.getForUser(ctx, invitationID, email)
	if err != nil {
		return err
	}

	inv.Status = model.InvitationStatusDeclined
	if err := s.invStore.Save(ctx, inv); err != nil {
		return fmt.Errorf("declining invitation: %w", err)
	}
	if err := s.invStore.RemoveFromUser(ctx, inv.InviteeEmail, inv.ID); err != nil {
		return fmt.Errorf("unlinking invitation: %w", err)
	}

	slog.InfoContext(ctx, "invitation declined", "invitation_id", inv.ID, "email", inv.InviteeEmail)
	return nil
}

func (s *invitationService) getForUser(ctx context.Context, invitationID, email string) (*model.Invitation, error) {
	inv, err := s.invStore.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("getting invitation: %w", err)
	}

	if !strings.EqualFold(inv.InviteeEmail, email) {
		slog.WarnContext(ctx, "email mismatch on invitation",
			"invitation_email", inv.InviteeEmail,
			"user_email", email,
			"invitation_id", inv.ID,
		)
		return nil, ErrEmailMismatch
	}
	return inv, nil
}
