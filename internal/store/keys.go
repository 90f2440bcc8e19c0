package store

import "fmt"

func userKey(email string) string {
	return fmt.Sprintf("user:%s", email)
}

func userWorkspacesKey(email string) string {
	return fmt.Sprintf("user:%s:workspaces", email)
}

func userInvitationsKey(email string) string {
	return fmt.Sprintf("user:%s:invitations", email)
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func workspaceKey(id string) string {
	return fmt.Sprintf("workspace:%s", id)
}

func workspaceTasksKey(id string) string {
	return fmt.Sprintf("workspace:%s:tasks", id)
}

func invitationKey(id string) string {
	return fmt.Sprintf("invitation:%s", id)
}
