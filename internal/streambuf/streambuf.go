// Package streambuf consumes generative token streams: it accumulates the
// opening of a stream up to an approximate token budget and classifies it for
// refusal, or drains a stream to completion.
package streambuf

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/valpere/perelay/internal/refusal"
)

// Stream is a sequence of text chunks from a generative backend. Recv blocks
// for the next chunk and returns io.EOF at natural end of stream.
type Stream interface {
	Recv() (string, error)
}

// DefaultBufferTokens is the approximate token budget for refusal screening.
// Refusals are front-loaded; 150 tokens is enough to catch every covered
// phrasing without delaying a genuine translation noticeably.
const DefaultBufferTokens = 150

// Result is the outcome of buffering and classifying a stream opening.
type Result struct {
	IsRefusal      bool
	Confidence     refusal.Grade
	MatchedPattern string
	// BufferedText is the accumulated prefix. When the stream was not a
	// refusal the caller must prepend it to whatever it relays, since those
	// chunks were already consumed.
	BufferedText string
	// EOF reports that the stream ended inside the budget.
	EOF bool
	// Err is the non-EOF read error that ended buffering, if any. The
	// classification fails open, but callers must still surface the error to
	// the consumer rather than relay the prefix as a complete stream.
	Err error
}

// BufferAndCheck reads chunks into a buffer until roughly maxTokens tokens
// have accumulated or the stream ends, then classifies the buffer once.
// Stream read failures fail open: a transport error must never masquerade as
// a content refusal. maxTokens <= 0 selects DefaultBufferTokens.
func BufferAndCheck(ctx context.Context, s Stream, maxTokens int) Result {
	if maxTokens <= 0 {
		maxTokens = DefaultBufferTokens
	}

	var sb strings.Builder
	eof := false
	for refusal.EstimateTokens(sb.String()) < maxTokens {
		if ctx.Err() != nil {
			break
		}
		chunk, err := s.Recv()
		sb.WriteString(chunk)
		if err != nil {
			eof = errors.Is(err, io.EOF)
			if !eof {
				// Fail open on transport errors, but keep the error.
				return Result{BufferedText: sb.String(), Confidence: refusal.Low, Err: err}
			}
			break
		}
	}

	text := sb.String()
	det := refusal.Detect(text, refusal.EstimateTokens(text))
	return Result{
		IsRefusal:      det.IsRefusal,
		Confidence:     det.Confidence,
		MatchedPattern: det.MatchedPattern,
		BufferedText:   text,
		EOF:            eof,
	}
}

// ConsumeAll drains the stream to completion and returns the full text. Used
// once a refusal has already been detected, so the complete refusal can be
// surfaced if every retry is exhausted. A read error ends the drain and
// returns what was collected.
func ConsumeAll(ctx context.Context, s Stream) string {
	var sb strings.Builder
	for ctx.Err() == nil {
		chunk, err := s.Recv()
		sb.WriteString(chunk)
		if err != nil {
			break
		}
	}
	return sb.String()
}

// chanStream adapts a channel of chunks into a Stream.
type chanStream struct {
	ch <-chan string
}

// FromChannel wraps a chunk channel as a Stream; the stream ends when the
// channel closes.
func FromChannel(ch <-chan string) Stream {
	return &chanStream{ch: ch}
}

func (c *chanStream) Recv() (string, error) {
	chunk, ok := <-c.ch
	if !ok {
		return "", io.EOF
	}
	return chunk, nil
}

// textStream replays a fixed string as a single chunk.
type textStream struct {
	text string
	done bool
}

// FromText wraps already-materialized text as a one-chunk Stream.
func FromText(text string) Stream {
	return &textStream{text: text}
}

func (t *textStream) Recv() (string, error) {
	if t.done {
		return "", io.EOF
	}
	t.done = true
	return t.text, nil
}

// errorStream fails every Recv with a fixed error.
type errorStream struct {
	err error
}

// FromError wraps a terminal error as a Stream whose Recv always returns it.
// Used to surface a transport failure after an already-buffered prefix has
// been relayed.
func FromError(err error) Stream {
	return errorStream{err: err}
}

func (e errorStream) Recv() (string, error) {
	return "", e.err
}

// prefixStream replays a prefix before delegating to the live stream, so a
// consumer can relay a stream whose opening was already buffered.
type prefixStream struct {
	prefix string
	sent   bool
	rest   Stream
}

// WithPrefix returns a Stream that yields prefix as its first chunk and then
// continues with rest.
func WithPrefix(prefix string, rest Stream) Stream {
	if prefix == "" {
		return rest
	}
	return &prefixStream{prefix: prefix, rest: rest}
}

func (p *prefixStream) Recv() (string, error) {
	if !p.sent {
		p.sent = true
		return p.prefix, nil
	}
	return p.rest.Recv()
}
