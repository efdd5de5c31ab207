// Package pipeline sequences one translation request end to end: history
// load, OCR, target-language resolution, translation streaming, refusal
// retries, and best-effort persistence. Each invocation owns its state; no
// mutable state is shared across requests.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/valpere/perelay/internal/chat"
	"github.com/valpere/perelay/internal/history"
	"github.com/valpere/perelay/internal/langsig"
	"github.com/valpere/perelay/internal/logger"
	"github.com/valpere/perelay/internal/ocr"
	"github.com/valpere/perelay/internal/retry"
	"github.com/valpere/perelay/internal/streambuf"
	"github.com/valpere/perelay/internal/translate"
)

// Request is one inbound chat message.
type Request struct {
	ConversationID string
	Message        chat.Turn
	HistoryEnabled bool
}

// Response is either a live token stream or, on exhausted refusal retries, a
// plain text body. Exactly one field is set.
type Response struct {
	Stream    streambuf.Stream
	PlainText string
}

// IsStream reports whether the response is streamed.
func (r *Response) IsStream() bool { return r.Stream != nil }

// Config tunes the orchestrator.
type Config struct {
	// HistoryTimeout bounds the history load; a slow store must never delay
	// the user-visible stream. Zero selects 2s.
	HistoryTimeout time.Duration
	// ConcurrentOCR runs batch OCR calls in parallel. Leave off for
	// rate-limited backends.
	ConcurrentOCR bool
	// SaveTimeout bounds the asynchronous persistence write. Zero selects
	// 10s.
	SaveTimeout time.Duration
}

// Orchestrator wires the pipeline's collaborators. All clients are injected,
// constructed once at process start.
type Orchestrator struct {
	ocrBackend ocr.Backend
	translator translate.StreamingBackend
	retrier    *retry.Orchestrator
	extractor  *langsig.Extractor
	store      history.Store // nil disables persistence
	log        *logger.Logger
	cfg        Config
}

// New builds an Orchestrator. store may be nil.
func New(
	ocrBackend ocr.Backend,
	translator translate.StreamingBackend,
	retrier *retry.Orchestrator,
	extractor *langsig.Extractor,
	store history.Store,
	log *logger.Logger,
	cfg Config,
) *Orchestrator {
	if cfg.HistoryTimeout <= 0 {
		cfg.HistoryTimeout = 2 * time.Second
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 10 * time.Second
	}
	return &Orchestrator{
		ocrBackend: ocrBackend,
		translator: translator,
		retrier:    retrier,
		extractor:  extractor,
		store:      store,
		log:        log,
		cfg:        cfg,
	}
}

// Handle processes one request. Document requests run OCR, target-language
// resolution, then streaming translation; any phase failure falls back to the
// direct chat path instead of failing the request.
func (p *Orchestrator) Handle(ctx context.Context, req Request) (*Response, error) {
	if req.ConversationID == "" {
		return nil, fmt.Errorf("pipeline: missing conversation id")
	}
	if len(req.Message.Parts) == 0 {
		return nil, fmt.Errorf("pipeline: empty message")
	}

	prior := p.loadHistory(ctx, req)

	if req.Message.HasImages() {
		resp, err := p.documentPath(ctx, req, prior)
		if err == nil {
			return resp, nil
		}
		p.log.Warn("document path failed, falling back to chat",
			"conversation", req.ConversationID, "error", err)
	}

	return p.chatPath(ctx, req, prior)
}

// loadHistory fetches prior turns, racing the store against a short timeout.
// Any failure, including timeout, degrades to an empty history.
func (p *Orchestrator) loadHistory(ctx context.Context, req Request) []chat.Turn {
	if p.store == nil || !req.HistoryEnabled {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.HistoryTimeout)
	defer cancel()

	turns, err := p.store.Load(ctx, req.ConversationID)
	if err != nil {
		p.log.Warn("history load failed, continuing without",
			"conversation", req.ConversationID, "error", err)
		return nil
	}
	return turns
}

// documentPath: OCR the attachments, resolve the target language, stream the
// translation.
func (p *Orchestrator) documentPath(ctx context.Context, req Request, prior []chat.Turn) (*Response, error) {
	parts := req.Message.ImageParts()
	inputs := make([]ocr.Input, len(parts))
	for i, part := range parts {
		inputs[i] = ocr.Input{Data: part.Data, MediaType: part.MediaType, Filename: part.Filename}
	}

	extracted, err := ocr.ProcessBatch(ctx, p.ocrBackend, inputs, p.cfg.ConcurrentOCR)
	if err != nil {
		return nil, fmt.Errorf("ocr phase: %w", err)
	}
	p.log.Info("ocr complete",
		"conversation", req.ConversationID,
		"pages", extracted.PageCount,
		"confidence", extracted.Confidence,
	)

	target := p.extractor.TargetLanguage(req.Message.Text(), chat.UserText(prior))

	s, err := p.translator.TranslateStream(ctx, translate.Request{
		Markdown: extracted.Markdown,
		Target:   target,
	})
	if err != nil {
		return nil, fmt.Errorf("translation phase: %w", err)
	}

	return &Response{Stream: p.tee(req, prior, s, target)}, nil
}

// chatPath hands the whole conversation to the refusal-retry loop as a
// vision-capable chat call.
func (p *Orchestrator) chatPath(ctx context.Context, req Request, prior []chat.Turn) (*Response, error) {
	full := append(chat.Clone(prior), req.Message)

	outcome, err := p.retrier.Run(ctx, full)
	if err != nil {
		return nil, fmt.Errorf("chat path: %w", err)
	}

	if outcome.Status == retry.ExhaustedRefusal {
		// Content refusal is not an error: the refusal text becomes the
		// assistant's final turn.
		p.persist(req, prior, outcome.RefusalText)
		return &Response{PlainText: outcome.RefusalText}, nil
	}
	return &Response{Stream: p.tee(req, prior, outcome.Stream, "")}, nil
}

// persist writes the original history plus the new user and assistant turns,
// asynchronously. Failures are logged and swallowed: the user already has
// their answer, and the store is a cache, not a source of truth.
func (p *Orchestrator) persist(req Request, prior []chat.Turn, assistantText string) {
	if p.store == nil || !req.HistoryEnabled {
		return
	}
	turns := append(chat.Clone(prior), req.Message, chat.TextTurn(chat.RoleAssistant, assistantText))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.SaveTimeout)
		defer cancel()
		if err := p.store.Save(ctx, req.ConversationID, turns); err != nil {
			p.log.Error("history save failed",
				"conversation", req.ConversationID, "error", err)
		}
	}()
}

// tee wraps a response stream so the accumulated text is persisted when the
// stream ends. target, when set, enables an advisory output-language check.
func (p *Orchestrator) tee(req Request, prior []chat.Turn, s streambuf.Stream, target langsig.Code) streambuf.Stream {
	return &teeStream{p: p, req: req, prior: prior, inner: s, target: target}
}
