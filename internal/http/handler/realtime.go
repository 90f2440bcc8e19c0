package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Falcon-J/saathi/common/logger"
	"github.com/Falcon-J/saathi/internal/http/middleware"
	"github.com/Falcon-J/saathi/internal/model"
	"github.com/Falcon-J/saathi/internal/realtime"
	"github.com/Falcon-J/saathi/internal/service"
)

type RealtimeHandler struct {
	workspaces service.WorkspaceService
	realtime   *realtime.Service
	schema     *jsonschema.Schema
}

func NewRealtimeHandler(workspaces service.WorkspaceService, rt *realtime.Service) *RealtimeHandler {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return &RealtimeHandler{
		workspaces: workspaces,
		realtime:   rt,
		schema:     reflector.Reflect(&model.StreamMessage{}),
	}
}

// streamRequest is a validated stream subscription.
type streamRequest struct {
	workspaceID string
	userID      string
	watermark   int64
}

// parseStreamRequest authorizes the caller for the requested workspace. On
// failure it writes the error response and returns false.
func (h *RealtimeHandler) parseStreamRequest(c *gin.Context) (streamRequest, bool) {
	ctx := c.Request.Context()

	session := middleware.GetSession(ctx)
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return streamRequest{}, false
	}

	workspaceID := strings.TrimSpace(c.Query("workspaceId"))
	if workspaceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "workspace id required"})
		return streamRequest{}, false
	}

	watermark := time.Now().UnixMilli()
	if since := c.Query("since"); since != "" {
		parsed, err := strconv.ParseInt(since, 10, 64)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a unix millisecond timestamp"})
			return streamRequest{}, false
		}
		watermark = parsed
	}

	if _, err := h.workspaces.RequireMember(ctx, workspaceID, session.Email); err != nil {
		respondError(c, err, "failed to open realtime stream")
		return streamRequest{}, false
	}

	return streamRequest{workspaceID: workspaceID, userID: session.Email, watermark: watermark}, true
}

// run drives one connection under a span until it closes.
func (h *RealtimeHandler) run(ctx context.Context, req streamRequest, transport string, sink realtime.Sink) {
	sc := logger.StartSpan(ctx, "realtime.stream", trace.WithSpanKind(trace.SpanKindServer))
	defer sc.End()
	sc.SetAttributes(
		attribute.String("saathi.workspace_id", req.workspaceID),
		attribute.String("saathi.user_id", req.userID),
		attribute.String("saathi.transport", transport),
	)
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{
		WorkspaceID: logger.Ptr(req.workspaceID),
		UserID:      logger.Ptr(req.userID),
	})

	conn := h.realtime.Open(req.workspaceID, req.userID, req.watermark)
	reason := conn.Run(ctx, sink)

	sc.SetAttributes(attribute.String("saathi.close_reason", string(reason)))
}

// Stream serves GET /api/realtime?workspaceId=... as server-sent events.
// An optional since parameter (Unix ms) replaces the default watermark of
// the connection start time.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	req, ok := h.parseStreamRequest(c)
	if !ok {
		return
	}

	setSSEHeaders(c.Writer)
	c.Status(http.StatusOK)
	c.Writer.Flush()

	h.run(c.Request.Context(), req, "sse", &sseSink{w: c.Writer})
}

// Schema returns the JSON Schema of a stream message.
func (h *RealtimeHandler) Schema(c *gin.Context) {
	c.JSON(http.StatusOK, h.schema)
}

// LegacyStream redirects the old stream path, keeping the query.
func (h *RealtimeHandler) LegacyStream(c *gin.Context) {
	target := "/api/realtime"
	if q := c.Request.URL.RawQuery; q != "" {
		target += "?" + q
	}
	c.Redirect(http.StatusMovedPermanently, target)
}
