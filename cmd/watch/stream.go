package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Falcon-J/saathi/client"
	"github.com/Falcon-J/saathi/internal/model"
)

var streamCmd = &cobra.Command{
	Use:   "stream WORKSPACE_ID",
	Short: "Print the workspace's events until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reconnect, _ := cmd.Flags().GetDuration("reconnect-delay")
		workspaceID := args[0]

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		baseURL, sessionID, err := resolveSession(ctx, cmd)
		if err != nil {
			return err
		}

		out := newLineWriter(cmd.OutOrStdout())
		event := func(typ model.EventType) func(json.RawMessage) {
			return func(data json.RawMessage) { out.write(string(typ), data) }
		}

		c, err := client.New(client.Config{
			BaseURL:        baseURL,
			WorkspaceID:    workspaceID,
			SessionID:      sessionID,
			ReconnectDelay: reconnect,
		}, client.Handlers{
			OnOpen: func() {
				slog.InfoContext(ctx, "stream open", "workspace_id", workspaceID)
			},
			OnConnected: func(d model.ConnectedData) { out.write(model.MessageTypeConnected, d) },
			OnHeartbeat: func(users []string) {
				out.write(model.MessageTypeHeartbeat, model.HeartbeatData{ActiveUsers: users})
			},
			OnTaskCreated: event(model.EventTypeTaskCreated),
			OnTaskUpdated: event(model.EventTypeTaskUpdated),
			OnTaskDeleted: event(model.EventTypeTaskDeleted),
			OnTaskToggled: event(model.EventTypeTaskToggled),
			OnUserJoined:  event(model.EventTypeUserJoined),
			OnUserLeft:    event(model.EventTypeUserLeft),
			OnError: func(err error) {
				slog.WarnContext(ctx, "stream error", "error", err)
			},
		})
		if err != nil {
			return err
		}

		c.Connect(ctx)
		<-ctx.Done()
		c.Disconnect()

		slog.InfoContext(cmd.Context(), "stream stopped")
		return nil
	},
}

func init() {
	streamCmd.Flags().Duration("reconnect-delay", client.DefaultReconnectDelay, "Pause before reconnecting a dropped stream")
}

// lineWriter prints one JSON object per message. Handlers run on the
// client's goroutine, so writes are serialized.
type lineWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{enc: json.NewEncoder(w)}
}

func (l *lineWriter) write(typ string, data any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(map[string]any{"type": typ, "data": data}); err != nil {
		slog.Warn("failed to write message", "error", err)
	}
}
