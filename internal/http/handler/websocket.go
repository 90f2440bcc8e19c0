package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Falcon-J/saathi/internal/model"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadLimit    = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return sameOrigin(r) },
}

// wsSink writes each stream message as one JSON text frame. Only the
// connection loop writes, so no write lock is needed.
type wsSink struct {
	conn *websocket.Conn
}

func (s *wsSink) Send(msg model.StreamMessage) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(msg)
}

// StreamWS serves the same subscription as Stream over a WebSocket at
// GET /api/realtime/ws. Frames carry the same JSON messages; anything the
// client sends is discarded.
func (h *RealtimeHandler) StreamWS(c *gin.Context) {
	req, ok := h.parseStreamRequest(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(c.Request.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// The request context is not canceled when a hijacked client goes away;
	// the reader below ends the stream instead.
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	go func() {
		defer cancel()
		conn.SetReadLimit(wsReadLimit)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.run(ctx, req, "websocket", &wsSink{conn: conn})

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

// sameOrigin accepts requests without an Origin header (non-browser
// clients) and browser requests whose Origin host matches Host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
