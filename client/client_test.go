package client_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Falcon-J/saathi/client"
	"github.com/Falcon-J/saathi/internal/model"
)

type recorder struct {
	mu        sync.Mutex
	opens     int
	connected []model.ConnectedData
	heartbeat [][]string
	created   []json.RawMessage
	joined    []json.RawMessage
	errs      []error
}

func (r *recorder) handlers() client.Handlers {
	return client.Handlers{
		OnOpen: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.opens++
		},
		OnConnected: func(d model.ConnectedData) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.connected = append(r.connected, d)
		},
		OnHeartbeat: func(users []string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.heartbeat = append(r.heartbeat, users)
		},
		OnTaskCreated: func(d json.RawMessage) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.created = append(r.created, d)
		},
		OnUserJoined: func(d json.RawMessage) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.joined = append(r.joined, d)
		},
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
	}
}

func (r *recorder) Opens() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opens
}

func (r *recorder) Connected() []model.ConnectedData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ConnectedData{}, r.connected...)
}

func (r *recorder) Heartbeats() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string{}, r.heartbeat...)
}

func (r *recorder) Created() []json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]json.RawMessage{}, r.created...)
}

func (r *recorder) Joined() []json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]json.RawMessage{}, r.joined...)
}

func (r *recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error{}, r.errs...)
}

func writeFrame(w http.ResponseWriter, payload string) {
	fmt.Fprintf(w, "data: %s\n\n", payload)
	w.(http.Flusher).Flush()
}

func streamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	w.(http.Flusher).Flush()
}

var _ = Describe("Client", func() {
	var (
		rec    *recorder
		server *httptest.Server
		c      *client.Client
	)

	BeforeEach(func() {
		rec = &recorder{}
	})

	AfterEach(func() {
		if c != nil {
			c.Disconnect()
		}
		if server != nil {
			server.Close()
		}
		c, server = nil, nil
	})

	connect := func(delay time.Duration) {
		var err error
		c, err = client.New(client.Config{
			BaseURL:        server.URL,
			WorkspaceID:    "ws 1",
			SessionID:      "sess-123",
			ReconnectDelay: delay,
		}, rec.handlers())
		Expect(err).NotTo(HaveOccurred())
		c.Connect(context.Background())
	}

	Describe("New", func() {
		It("requires a base url and workspace", func() {
			_, err := client.New(client.Config{WorkspaceID: "ws"}, client.Handlers{})
			Expect(err).To(HaveOccurred())

			_, err = client.New(client.Config{BaseURL: "http://localhost"}, client.Handlers{})
			Expect(err).To(HaveOccurred())
		})

		It("starts disconnected with no users and no event", func() {
			cl, err := client.New(client.Config{BaseURL: "http://localhost", WorkspaceID: "ws"}, client.Handlers{})
			Expect(err).NotTo(HaveOccurred())

			Expect(cl.State()).To(Equal(client.StateDisconnected))
			Expect(cl.ActiveUsers()).To(BeEmpty())
			Expect(cl.LastEvent()).To(BeNil())
		})
	})

	Describe("dispatch", func() {
		It("routes each frame by type and tracks users and the last event", func() {
			var gotPath, gotCookie atomic.Value
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath.Store(r.URL.RequestURI())
				if ck, err := r.Cookie("auth-session"); err == nil {
					gotCookie.Store(ck.Value)
				}
				streamHeaders(w)
				writeFrame(w, `{"type":"connected","timestamp":1,"data":{"userId":"a@x.com","workspaceId":"ws 1"}}`)
				writeFrame(w, `{"type":"heartbeat","timestamp":2,"data":{"activeUsers":["a@x.com","b@x.com"]}}`)
				writeFrame(w, `not json`)
				writeFrame(w, `{"type":"mystery","timestamp":3}`)
				writeFrame(w, `{"id":"e1","type":"task-created","workspaceId":"ws 1","userId":"a@x.com","timestamp":100,"data":{"title":"Ship"}}`)
				writeFrame(w, `{"id":"e2","type":"user-joined","workspaceId":"ws 1","userId":"b@x.com","timestamp":200,"data":{"email":"b@x.com"}}`)
				<-r.Context().Done()
			}))
			connect(time.Second)

			Eventually(rec.Joined).Should(HaveLen(1))

			Expect(gotPath.Load()).To(Equal("/api/realtime?workspaceId=ws+1"))
			Expect(gotCookie.Load()).To(Equal("sess-123"))
			Expect(rec.Opens()).To(Equal(1))
			Expect(c.State()).To(Equal(client.StateConnected))

			Expect(rec.Connected()).To(Equal([]model.ConnectedData{{UserID: "a@x.com", WorkspaceID: "ws 1"}}))
			Expect(rec.Heartbeats()).To(Equal([][]string{{"a@x.com", "b@x.com"}}))
			Expect(c.ActiveUsers()).To(ConsistOf("a@x.com", "b@x.com"))

			Expect(rec.Created()).To(HaveLen(1))
			Expect(string(rec.Created()[0])).To(MatchJSON(`{"title":"Ship"}`))

			last := c.LastEvent()
			Expect(last).NotTo(BeNil())
			Expect(last.ID).To(Equal("e2"))
			Expect(last.Type).To(Equal(model.EventTypeUserJoined))
			Expect(last.Timestamp).To(Equal(int64(200)))

			Expect(rec.Errors()).To(BeEmpty())
		})
	})

	Describe("reconnect", func() {
		It("retries after a failed open and reports the error", func() {
			var attempts atomic.Int32
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if attempts.Add(1) == 1 {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				streamHeaders(w)
				writeFrame(w, `{"type":"connected","timestamp":1,"data":{"userId":"a@x.com","workspaceId":"ws 1"}}`)
				<-r.Context().Done()
			}))
			connect(30 * time.Millisecond)

			Eventually(rec.Connected).Should(HaveLen(1))
			Expect(attempts.Load()).To(Equal(int32(2)))

			errs := rec.Errors()
			Expect(errs).To(HaveLen(1))
			var statusErr *client.StatusError
			Expect(errs[0]).To(BeAssignableToTypeOf(statusErr))
			Expect(errs[0].(*client.StatusError).Code).To(Equal(http.StatusServiceUnavailable))
		})

		It("reports a request that cannot be built and stops retrying", func() {
			var err error
			c, err = client.New(client.Config{
				BaseURL:        "http://%zz",
				WorkspaceID:    "ws",
				ReconnectDelay: 10 * time.Millisecond,
			}, rec.handlers())
			Expect(err).NotTo(HaveOccurred())
			c.Connect(context.Background())

			Eventually(rec.Errors).Should(HaveLen(1))
			Expect(rec.Errors()[0]).To(MatchError(ContainSubstring("building stream request")))
			Consistently(rec.Errors, 100*time.Millisecond, 10*time.Millisecond).Should(HaveLen(1))
			Expect(c.State()).To(Equal(client.StateDisconnected))
			Expect(rec.Opens()).To(BeZero())
		})

		It("reconnects when the server ends the stream", func() {
			var attempts atomic.Int32
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				streamHeaders(w)
				writeFrame(w, `{"type":"connected","timestamp":1,"data":{"userId":"a@x.com","workspaceId":"ws 1"}}`)
			}))
			connect(20 * time.Millisecond)

			Eventually(attempts.Load).Should(BeNumerically(">=", 3))
			Eventually(rec.Errors).ShouldNot(BeEmpty())
			Expect(rec.Errors()[0]).To(MatchError(client.ErrStreamClosed))
		})

		It("keeps at most one pending reconnect and cancels it on Disconnect", func() {
			var attempts atomic.Int32
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.WriteHeader(http.StatusInternalServerError)
			}))
			connect(200 * time.Millisecond)

			Eventually(attempts.Load).Should(Equal(int32(1)))
			c.Disconnect()

			Expect(c.State()).To(Equal(client.StateDisconnected))
			Consistently(attempts.Load, 400*time.Millisecond, 20*time.Millisecond).Should(Equal(int32(1)))
		})
	})

	Describe("Disconnect", func() {
		It("closes the live stream", func() {
			closed := make(chan struct{})
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				streamHeaders(w)
				writeFrame(w, `{"type":"connected","timestamp":1,"data":{"userId":"a@x.com","workspaceId":"ws 1"}}`)
				<-r.Context().Done()
				close(closed)
			}))
			connect(time.Second)

			Eventually(rec.Connected).Should(HaveLen(1))
			c.Disconnect()

			Eventually(closed).Should(BeClosed())
			Expect(c.State()).To(Equal(client.StateDisconnected))
			Expect(rec.Errors()).To(BeEmpty())
		})

		It("is safe to call repeatedly and before Connect", func() {
			cl, err := client.New(client.Config{BaseURL: "http://localhost", WorkspaceID: "ws"}, client.Handlers{})
			Expect(err).NotTo(HaveOccurred())

			cl.Disconnect()
			cl.Disconnect()
			Expect(cl.State()).To(Equal(client.StateDisconnected))
		})

		It("replaces the previous stream when Connect is called again", func() {
			var opens atomic.Int32
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				opens.Add(1)
				streamHeaders(w)
				writeFrame(w, `{"type":"connected","timestamp":1,"data":{"userId":"a@x.com","workspaceId":"ws 1"}}`)
				<-r.Context().Done()
			}))
			connect(time.Second)
			Eventually(rec.Connected).Should(HaveLen(1))

			c.Connect(context.Background())

			Eventually(rec.Connected).Should(HaveLen(2))
			Expect(opens.Load()).To(Equal(int32(2)))
			Expect(rec.Errors()).To(BeEmpty())
		})
	})
})
