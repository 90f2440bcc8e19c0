package realtime_test

import (
	"context"
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Falcon-J/saathi/internal/model"
	"github.com/Falcon-J/saathi/internal/realtime"
	"github.com/Falcon-J/saathi/internal/store"
)

var _ = Describe("Publisher", func() {
	var (
		ctx       context.Context
		kv        *store.MemoryKV
		publisher *realtime.Publisher
	)

	BeforeEach(func() {
		ctx = context.Background()
		kv = store.NewMemoryKV()
		publisher = realtime.NewPublisher(kv, time.Second)
		DeferCleanup(publisher.Close)
	})

	Describe("PublishSync", func() {
		It("keeps only the last written event", func() {
			Expect(publisher.PublishSync(ctx, model.Event{
				Type: model.EventTypeTaskCreated, WorkspaceID: "ws1", UserID: "a", Timestamp: 100,
			})).To(Succeed())
			Expect(publisher.PublishSync(ctx, model.Event{
				Type: model.EventTypeTaskUpdated, WorkspaceID: "ws1", UserID: "b", Timestamp: 200,
			})).To(Succeed())

			latest, err := publisher.LatestEvent(ctx, "ws1")
			Expect(err).NotTo(HaveOccurred())
			Expect(latest).NotTo(BeNil())
			Expect(latest.Timestamp).To(Equal(int64(200)))
			Expect(latest.Type).To(Equal(model.EventTypeTaskUpdated))
			Expect(latest.UserID).To(Equal("b"))
		})

		It("stores the event under the workspace latest key", func() {
			Expect(publisher.PublishSync(ctx, model.Event{
				Type: model.EventTypeTaskDeleted, WorkspaceID: "ws1", UserID: "a",
				Data: json.RawMessage(`{"taskId":"t1"}`),
			})).To(Succeed())

			raw, err := kv.Get(ctx, realtime.LatestEventKey("ws1"))
			Expect(err).NotTo(HaveOccurred())
			Expect(raw).To(ContainSubstring(`"workspaceId":"ws1"`))
			Expect(raw).To(ContainSubstring(`"taskId":"t1"`))
		})

		It("assigns an id and strictly increasing timestamps", func() {
			Expect(publisher.PublishSync(ctx, model.Event{Type: model.EventTypeTaskCreated, WorkspaceID: "ws1"})).To(Succeed())
			first, err := publisher.LatestEvent(ctx, "ws1")
			Expect(err).NotTo(HaveOccurred())

			Expect(publisher.PublishSync(ctx, model.Event{Type: model.EventTypeTaskCreated, WorkspaceID: "ws1"})).To(Succeed())
			second, err := publisher.LatestEvent(ctx, "ws1")
			Expect(err).NotTo(HaveOccurred())

			Expect(first.ID).NotTo(BeEmpty())
			Expect(second.ID).NotTo(Equal(first.ID))
			Expect(second.Timestamp).To(BeNumerically(">", first.Timestamp))
		})

		It("rejects events without a workspace", func() {
			err := publisher.PublishSync(ctx, model.Event{Type: model.EventTypeTaskCreated})
			Expect(err).To(MatchError(realtime.ErrMissingWorkspace))
		})

		It("isolates workspaces", func() {
			Expect(publisher.PublishSync(ctx, model.Event{Type: model.EventTypeTaskCreated, WorkspaceID: "ws1", Timestamp: 5})).To(Succeed())

			latest, err := publisher.LatestEvent(ctx, "ws2")
			Expect(err).NotTo(HaveOccurred())
			Expect(latest).To(BeNil())
		})
	})

	Describe("Publish", func() {
		It("completes the write even when the caller's context is canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			publisher.Publish(cctx, model.Event{Type: model.EventTypeTaskToggled, WorkspaceID: "ws1", Timestamp: 42})
			publisher.Close()

			latest, err := publisher.LatestEvent(ctx, "ws1")
			Expect(err).NotTo(HaveOccurred())
			Expect(latest).NotTo(BeNil())
			Expect(latest.Timestamp).To(Equal(int64(42)))
		})

		It("keeps publish order when an earlier write is slow", func() {
			slow := &slowKV{MemoryKV: kv, delay: 50 * time.Millisecond, match: string(model.EventTypeTaskCreated)}
			ordered := realtime.NewPublisher(slow, time.Second)

			ordered.Publish(ctx, model.Event{Type: model.EventTypeTaskCreated, WorkspaceID: "ws1", Timestamp: 1000})
			ordered.Publish(ctx, model.Event{Type: model.EventTypeTaskUpdated, WorkspaceID: "ws1", Timestamp: 1050})
			ordered.Close()

			latest, err := ordered.LatestEvent(ctx, "ws1")
			Expect(err).NotTo(HaveOccurred())
			Expect(latest).NotTo(BeNil())
			Expect(latest.Timestamp).To(Equal(int64(1050)))
			Expect(latest.Type).To(Equal(model.EventTypeTaskUpdated))
		})

		It("writes every queued event before Close returns", func() {
			for i := 1; i <= 20; i++ {
				publisher.Publish(ctx, model.Event{Type: model.EventTypeTaskUpdated, WorkspaceID: "ws1", Timestamp: int64(i * 10)})
			}
			publisher.Close()

			latest, err := publisher.LatestEvent(ctx, "ws1")
			Expect(err).NotTo(HaveOccurred())
			Expect(latest).NotTo(BeNil())
			Expect(latest.Timestamp).To(Equal(int64(200)))
		})

		It("drops events published after Close", func() {
			publisher.Close()
			publisher.Publish(ctx, model.Event{Type: model.EventTypeTaskCreated, WorkspaceID: "ws1", Timestamp: 1})

			latest, err := publisher.LatestEvent(ctx, "ws1")
			Expect(err).NotTo(HaveOccurred())
			Expect(latest).To(BeNil())
		})

		It("does not surface store failures to the caller", func() {
			broken := realtime.NewPublisher(failingKV{MemoryKV: store.NewMemoryKV()}, 50*time.Millisecond)
			Expect(func() {
				broken.Publish(ctx, model.Event{Type: model.EventTypeTaskCreated, WorkspaceID: "ws1"})
				broken.Close()
			}).NotTo(Panic())
		})
	})

	Describe("LatestEvent", func() {
		It("returns an error for a corrupt record", func() {
			Expect(kv.Set(ctx, realtime.LatestEventKey("ws1"), "{not json", 0)).To(Succeed())

			_, err := publisher.LatestEvent(ctx, "ws1")
			Expect(err).To(HaveOccurred())
		})
	})
})
