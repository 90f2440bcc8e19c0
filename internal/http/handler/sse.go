package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Falcon-J/saathi/internal/model"
)

// sseSink writes stream messages as unnamed `data:` frames and flushes
// after each one.
type sseSink struct {
	w gin.ResponseWriter
}

func (s *sseSink) Send(msg model.StreamMessage) error {
	if err := sseWrite(s.w, msg); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}

func setSSEHeaders(w http.ResponseWriter) {
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
}

// sseWrite encodes msg as a single unnamed frame. JSON output holds no raw
// newlines, so one data line is enough.
func sseWrite(w io.Writer, msg model.StreamMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding stream message: %w", err)
	}

	var b bytes.Buffer
	b.Grow(len(payload) + 8)
	b.WriteString("data: ")
	b.Write(payload)
	b.WriteString("\n\n")

	_, err = w.Write(b.Bytes())
	return err
}
