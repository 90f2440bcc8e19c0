package model

import (
	"strings"
	"time"
)

type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleMember MemberRole = "member"
)

type WorkspaceMember struct {
	Email    string     `json:"email"`
	Username string     `json:"username"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joinedAt"`
}

type Workspace struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	OwnerID   string            `json:"ownerId"`
	Members   []WorkspaceMember `json:"members"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func (w *Workspace) IsOwner(email string) bool {
	return strings.EqualFold(w.OwnerID, email)
}

func (w *Workspace) Member(email string) (WorkspaceMember, bool) {
	for _, m := range w.Members {
		if strings.EqualFold(m.Email, email) {
			return m, true
		}
	}
	return WorkspaceMember{}, false
}

func (w *Workspace) HasMember(email string) bool {
	if w.IsOwner(email) {
		return true
	}
	_, ok := w.Member(email)
	return ok
}

// RemoveMember drops the member with the given email and reports whether
// anything was removed.
func (w *Workspace) RemoveMember(email string) bool {
	for i, m := range w.Members {
		if strings.EqualFold(m.Email, email) {
			w.Members = append(w.Members[:i], w.Members[i+1:]...)
			return true
		}
	}
	return false
}
