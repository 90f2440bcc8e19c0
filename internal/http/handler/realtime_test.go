package handler_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Falcon-J/saathi/common/metrics"
	"github.com/Falcon-J/saathi/core/config"
	"github.com/Falcon-J/saathi/internal/model"
)

func readMessage(r *bufio.Reader) model.StreamMessage {
	for {
		line, err := r.ReadString('\n')
		Expect(err).NotTo(HaveOccurred())
		if payload, ok := strings.CutPrefix(line, "data: "); ok {
			var msg model.StreamMessage
			Expect(json.Unmarshal([]byte(strings.TrimSpace(payload)), &msg)).To(Succeed())
			return msg
		}
	}
}

func readUntil(r *bufio.Reader, typ string) model.StreamMessage {
	for {
		if msg := readMessage(r); msg.Type == typ {
			return msg
		}
	}
}

var _ = Describe("RealtimeHandler", func() {
	var (
		app    *testApp
		owner  *http.Cookie
		ws     model.Workspace
		server *httptest.Server
		client *http.Client
	)

	BeforeEach(func() {
		app = newTestApp(config.RateLimitConfig{})
		DeferCleanup(app.realtime.Close)

		owner = app.signup("owner@example.com", "Owner")
		ws = app.createWorkspace(owner, "Launch")

		server = httptest.NewServer(app.router)
		DeferCleanup(server.Close)
		DeferCleanup(server.CloseClientConnections)
		client = &http.Client{Timeout: 5 * time.Second}
	})

	open := func(ctx context.Context, query string, cookie *http.Cookie) *http.Response {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/realtime"+query, nil)
		Expect(err).NotTo(HaveOccurred())
		if cookie != nil {
			req.AddCookie(cookie)
		}
		resp, err := client.Do(req)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(resp.Body.Close)
		return resp
	}

	Describe("Stream", func() {
		It("returns 401 without a session", func() {
			resp := open(context.Background(), "?workspaceId="+ws.ID, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("returns 400 without a workspace id", func() {
			resp := open(context.Background(), "", owner)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 for a malformed since", func() {
			resp := open(context.Background(), "?workspaceId="+ws.ID+"&since=yesterday", owner)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns 403 for a non-member", func() {
			outsider := app.signup("eve@example.com", "Eve")

			resp := open(context.Background(), "?workspaceId="+ws.ID, outsider)
			Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
		})

		It("returns 404 for an unknown workspace", func() {
			resp := open(context.Background(), "?workspaceId=missing", owner)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("streams a connected message and then workspace events", func() {
			ctx, cancel := context.WithCancel(context.Background())
			DeferCleanup(cancel)

			resp := open(ctx, "?workspaceId="+ws.ID+"&since=0", owner)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream"))
			Expect(resp.Header.Get("Cache-Control")).To(Equal("no-cache"))
			Expect(resp.Header.Get("X-Accel-Buffering")).To(Equal("no"))

			reader := bufio.NewReader(resp.Body)
			connected := readMessage(reader)
			Expect(connected.Type).To(Equal(model.MessageTypeConnected))
			Expect(connected.UserID).To(Equal("owner@example.com"))
			Expect(connected.WorkspaceID).To(Equal(ws.ID))

			w := app.do(http.MethodPost, "/api/v1/workspaces/"+ws.ID+"/tasks", map[string]string{"title": "Write spec"}, owner)
			Expect(w.Code).To(Equal(http.StatusCreated))

			event := readUntil(reader, string(model.EventTypeTaskCreated))
			Expect(event.WorkspaceID).To(Equal(ws.ID))
			Expect(event.UserID).To(Equal("owner@example.com"))

			var task model.Task
			Expect(json.Unmarshal(event.Data, &task)).To(Succeed())
			Expect(task.Title).To(Equal("Write spec"))

			hb := readUntil(reader, model.MessageTypeHeartbeat)
			var data model.HeartbeatData
			Expect(json.Unmarshal(hb.Data, &data)).To(Succeed())
			Expect(data.ActiveUsers).To(ContainElement("owner@example.com"))
		})

		It("marks the subscriber present while streaming", func() {
			ctx, cancel := context.WithCancel(context.Background())
			DeferCleanup(cancel)

			resp := open(ctx, "?workspaceId="+ws.ID, owner)
			readMessage(bufio.NewReader(resp.Body))

			Eventually(func() any {
				w := app.do(http.MethodGet, "/api/v1/workspaces/"+ws.ID+"/presence", nil, owner)
				Expect(w.Code).To(Equal(http.StatusOK))
				return decode(w)["activeUsers"]
			}).Should(ContainElement("owner@example.com"))
		})
	})

	Describe("StreamWS", func() {
		dial := func(query string, cookie *http.Cookie) (*websocket.Conn, *http.Response, error) {
			header := http.Header{}
			if cookie != nil {
				header.Set("Cookie", cookie.Name+"="+cookie.Value)
			}
			wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/realtime/ws" + query
			return websocket.DefaultDialer.Dial(wsURL, header)
		}

		It("rejects the upgrade without a session", func() {
			_, resp, err := dial("?workspaceId="+ws.ID, nil)

			Expect(err).To(MatchError(websocket.ErrBadHandshake))
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("rejects the upgrade for a non-member", func() {
			outsider := app.signup("eve@example.com", "Eve")

			_, resp, err := dial("?workspaceId="+ws.ID, outsider)

			Expect(err).To(MatchError(websocket.ErrBadHandshake))
			Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
		})

		It("rejects cross-origin browser upgrades", func() {
			header := http.Header{}
			header.Set("Cookie", owner.Name+"="+owner.Value)
			header.Set("Origin", "http://evil.example")
			wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/realtime/ws?workspaceId=" + ws.ID

			_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)

			Expect(err).To(MatchError(websocket.ErrBadHandshake))
			Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
		})

		It("sends the same messages as the event stream", func() {
			conn, _, err := dial("?workspaceId="+ws.ID+"&since=0", owner)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(conn.Close)
			Expect(conn.SetReadDeadline(time.Now().Add(5 * time.Second))).To(Succeed())

			var connected model.StreamMessage
			Expect(conn.ReadJSON(&connected)).To(Succeed())
			Expect(connected.Type).To(Equal(model.MessageTypeConnected))
			Expect(connected.WorkspaceID).To(Equal(ws.ID))

			w := app.do(http.MethodPost, "/api/v1/workspaces/"+ws.ID+"/tasks", map[string]string{"title": "Write spec"}, owner)
			Expect(w.Code).To(Equal(http.StatusCreated))

			for {
				var msg model.StreamMessage
				Expect(conn.ReadJSON(&msg)).To(Succeed())
				if msg.Type == string(model.EventTypeTaskCreated) {
					Expect(msg.UserID).To(Equal("owner@example.com"))
					break
				}
			}
		})

		It("ends the connection loop when the client closes", func() {
			conn, _, err := dial("?workspaceId="+ws.ID, owner)
			Expect(err).NotTo(HaveOccurred())

			var connected model.StreamMessage
			Expect(conn.ReadJSON(&connected)).To(Succeed())
			Expect(conn.Close()).To(Succeed())

			Eventually(func() float64 {
				return testutil.ToFloat64(metrics.ActiveConnections)
			}).Should(BeZero())
		})
	})

	Describe("Schema", func() {
		It("describes the stream message envelope", func() {
			w := app.do(http.MethodGet, "/api/realtime/schema", nil, nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			props, ok := decode(w)["properties"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(props).To(HaveKey("type"))
			Expect(props).To(HaveKey("timestamp"))
		})
	})

	Describe("LegacyStream", func() {
		It("redirects permanently to the realtime endpoint", func() {
			w := app.do(http.MethodGet, "/tasks/stream?workspaceId=abc", nil, nil)

			Expect(w.Code).To(Equal(http.StatusMovedPermanently))
			Expect(w.Header().Get("Location")).To(Equal("/api/realtime?workspaceId=abc"))
		})
	})
})
