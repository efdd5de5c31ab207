package genai

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// Stream reads content deltas off a server-sent-event response body. It
// implements the pipeline's stream contract: Recv returns the next non-empty
// delta and io.EOF at end of stream.
type Stream struct {
	body io.ReadCloser
	br   *bufio.Reader
	// err is the sticky terminal state: io.EOF after a clean end, the read
	// error otherwise. A truncated stream must keep reporting the failure,
	// not degrade to EOF.
	err error
}

func newStream(body io.ReadCloser) *Stream {
	return &Stream{body: body, br: bufio.NewReader(body)}
}

// Recv returns the next content delta. The terminal "[DONE]" event and the
// natural end of the body both map to io.EOF; a transport error is returned
// on every call from then on.
func (s *Stream) Recv() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	for {
		line, err := s.br.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		if data, ok := strings.CutPrefix(line, "data:"); ok {
			data = strings.TrimSpace(data)
			if data == "[DONE]" {
				return "", s.finish(nil)
			}
			if delta, derr := parseDelta(data); derr == nil && delta != "" {
				return delta, nil
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", s.finish(nil)
			}
			return "", s.finish(err)
		}
	}
}

// Close releases the underlying connection. Safe to call after EOF.
func (s *Stream) Close() error {
	if s.err != nil {
		return nil
	}
	s.err = io.EOF
	return s.body.Close()
}

func (s *Stream) finish(err error) error {
	if err == nil {
		err = io.EOF
	}
	s.err = err
	s.body.Close()
	return err
}

func parseDelta(data string) (string, error) {
	var ev struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return "", err
	}
	if len(ev.Choices) == 0 {
		return "", nil
	}
	return ev.Choices[0].Delta.Content, nil
}
