// Package translate converts extracted markdown into a target language.
// Backends are interchangeable behind one contract; a deployment selects one
// canonical backend via configuration.
package translate

import (
	"context"
	"fmt"

	"github.com/valpere/perelay/internal/langsig"
	"github.com/valpere/perelay/internal/streambuf"
)

// Request carries one translation job.
type Request struct {
	Markdown string
	Target   langsig.Code
	// Formality is an optional register hint ("formal" | "informal").
	Formality string
	// Context is optional surrounding text for continuity; LLM backends
	// include it in the prompt, others ignore it.
	Context string
}

// Backend translates markdown synchronously.
type Backend interface {
	Name() string
	Translate(ctx context.Context, req Request) (string, error)
}

// StreamingBackend additionally delivers the translation as a token stream
// for direct relay to the caller.
type StreamingBackend interface {
	Backend
	TranslateStream(ctx context.Context, req Request) (streambuf.Stream, error)
}

// streamAdapter lifts a blocking backend into the streaming contract by
// replaying the finished translation as a single chunk.
type streamAdapter struct {
	Backend
}

func (s *streamAdapter) TranslateStream(ctx context.Context, req Request) (streambuf.Stream, error) {
	out, err := s.Translate(ctx, req)
	if err != nil {
		return nil, err
	}
	return streambuf.FromText(out), nil
}

// AsStreaming returns b unchanged when it already streams, or wraps it so
// the pipeline can treat every translation backend uniformly.
func AsStreaming(b Backend) StreamingBackend {
	if sb, ok := b.(StreamingBackend); ok {
		return sb
	}
	return &streamAdapter{Backend: b}
}

// VerifyLanguage checks that text appears to be written in target, using the
// given statistical detector. A mismatch is advisory: callers log it, they do
// not fail the translation over it. A nil detector, short text, or
// undetectable text all pass.
func VerifyLanguage(det *langsig.StatisticalDetector, text string, target langsig.Code) error {
	if det == nil || len([]rune(text)) < 20 {
		return nil
	}
	detected, ok := det.Detect(text)
	if !ok || detected == target {
		return nil
	}
	return fmt.Errorf("translation language %s does not match target %s", detected, target)
}
