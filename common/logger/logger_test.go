package logger_test

import (
	"bytes"
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Falcon-J/saathi/common/logger"
)

var _ = Describe("LogFields", func() {
	It("merges newer non-empty values over existing ones", func() {
		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			WorkspaceID: logger.Ptr("ws-1"),
			Component:   "saathi.http",
		})
		ctx = logger.WithLogFields(ctx, logger.LogFields{
			UserID:    logger.Ptr("a@example.com"),
			Component: "saathi.realtime.stream",
		})

		fields := logger.GetLogFields(ctx)
		Expect(*fields.WorkspaceID).To(Equal("ws-1"))
		Expect(*fields.UserID).To(Equal("a@example.com"))
		Expect(fields.Component).To(Equal("saathi.realtime.stream"))
	})

	It("returns empty fields for a bare context", func() {
		Expect(logger.GetLogFields(context.Background())).To(Equal(logger.LogFields{}))
	})
})

var _ = Describe("TraceHandler", func() {
	It("adds context fields to every record", func() {
		var buf bytes.Buffer
		log := slog.New(logger.NewTraceHandler(slog.NewTextHandler(&buf, nil)))

		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			WorkspaceID:  logger.Ptr("ws-9"),
			ConnectionID: logger.Ptr("conn-1"),
			EventType:    logger.Ptr("task-created"),
		})
		log.InfoContext(ctx, "event delivered")

		Expect(buf.String()).To(ContainSubstring("workspace_id=ws-9"))
		Expect(buf.String()).To(ContainSubstring("connection_id=conn-1"))
		Expect(buf.String()).To(ContainSubstring("event_type=task-created"))
	})
})
