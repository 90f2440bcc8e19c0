package realtime

import "fmt"

// LatestEventKey holds the single retained event of a workspace.
func LatestEventKey(workspaceID string) string {
	return fmt.Sprintf("events:%s:latest", workspaceID)
}

// PresenceKey holds a user's last-seen Unix-ms timestamp in a workspace.
func PresenceKey(workspaceID, userID string) string {
	return fmt.Sprintf("presence:%s:%s", workspaceID, userID)
}

// ActiveUsersKey is the best-effort set of users present in a workspace.
func ActiveUsersKey(workspaceID string) string {
	return fmt.Sprintf("presence:%s:active", workspaceID)
}
