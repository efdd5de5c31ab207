package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/valpere/perelay/internal/chat"
	"github.com/valpere/perelay/internal/pipeline"
)

// chatRequest is the wire shape the UI posts.
type chatRequest struct {
	Message        chat.Turn `json:"message"`
	ID             string    `json:"id"`
	HistoryEnabled *bool     `json:"historyEnabled,omitempty"`
}

// deltaEvent is one chunk of a streamed response.
type deltaEvent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// handleChat validates the request, runs the pipeline, and either streams
// message-delta events or returns a plain-text body. An exhausted refusal is
// deliberately status 200: the failure is content-level, not
// transport-level, and the UI renders it like any assistant message.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field: id"})
		return
	}
	if len(req.Message.Parts) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field: message"})
		return
	}
	historyEnabled := req.HistoryEnabled == nil || *req.HistoryEnabled

	resp, err := s.pipe.Handle(c.Request.Context(), pipeline.Request{
		ConversationID: req.ID,
		Message:        req.Message,
		HistoryEnabled: historyEnabled,
	})
	if err != nil {
		s.log.Error("pipeline failed", "conversation", req.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "translation pipeline failed"})
		return
	}

	if !resp.IsStream() {
		c.String(http.StatusOK, resp.PlainText)
		return
	}

	s.streamResponse(c, resp)
}

// streamResponse relays the pipeline stream as chunked data: events
// terminating in a finish event.
func (s *Server) streamResponse(c *gin.Context, resp *pipeline.Response) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	for {
		chunk, err := resp.Stream.Recv()
		if chunk != "" {
			writeEvent(c, deltaEvent{Type: "message-delta", Text: chunk})
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Error("stream read failed", "error", err)
				writeEvent(c, deltaEvent{Type: "error"})
			}
			break
		}
	}
	writeEvent(c, deltaEvent{Type: "finish"})
}

func writeEvent(c *gin.Context, ev deltaEvent) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	c.Writer.WriteString("data: ")
	c.Writer.Write(raw)
	c.Writer.WriteString("\n\n")
	c.Writer.Flush()
}
