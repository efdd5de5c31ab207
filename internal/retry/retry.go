// Package retry runs the refusal-retry state machine around a streaming
// generative call. Each attempt's opening is buffered and classified; a
// high-confidence refusal triggers a retry with a localized ownership
// clarification appended to a request-local copy of the conversation. The
// clarification turns never leave this package: callers receive only the
// final stream or the first refusal text.
package retry

import (
	"context"
	"io"

	"github.com/valpere/perelay/internal/chat"
	"github.com/valpere/perelay/internal/langsig"
	"github.com/valpere/perelay/internal/logger"
	"github.com/valpere/perelay/internal/refusal"
	"github.com/valpere/perelay/internal/streambuf"
)

// MaxRetries bounds retries after the initial attempt: at most MaxRetries+1
// attempts total.
const MaxRetries = 2

// Attempter issues one streaming generative chat call over the given turns.
type Attempter interface {
	StreamChat(ctx context.Context, turns []chat.Turn) (streambuf.Stream, error)
}

// Status is the terminal state of a run.
type Status string

const (
	// Succeeded means an attempt was not a high-confidence refusal; the
	// live stream is handed to the caller.
	Succeeded Status = "succeeded"
	// ExhaustedRefusal means every attempt refused with high confidence.
	ExhaustedRefusal Status = "exhausted_refusal"
)

// Outcome is the result of a run.
type Outcome struct {
	Status Status
	// Stream carries the response when Status is Succeeded. Its opening was
	// already classified; the buffered prefix is replayed first.
	Stream streambuf.Stream
	// RefusalText is the first attempt's complete refusal, verbatim, when
	// Status is ExhaustedRefusal.
	RefusalText string
	// Language is the refusal language detected from the first refusal.
	Language langsig.Code
	// Attempts is the number of attempts actually made.
	Attempts int
}

// Orchestrator drives the attempt loop.
type Orchestrator struct {
	attempter    Attempter
	extractor    *langsig.Extractor
	log          *logger.Logger
	maxRetries   int
	bufferTokens int
}

// New builds an Orchestrator with the standard bounds.
func New(attempter Attempter, extractor *langsig.Extractor, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		attempter:    attempter,
		extractor:    extractor,
		log:          log,
		maxRetries:   MaxRetries,
		bufferTokens: streambuf.DefaultBufferTokens,
	}
}

// Run executes up to maxRetries+1 sequential attempts over history. history
// itself is never modified; clarification turns are appended only to a
// request-local working copy that is discarded when the loop exits.
func (o *Orchestrator) Run(ctx context.Context, history []chat.Turn) (*Outcome, error) {
	working := chat.Clone(history)
	priorText := chat.UserText(history)

	var (
		firstRefusal string
		lang         langsig.Code
	)

	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		s, err := o.attempter.StreamChat(ctx, working)
		if err != nil {
			return nil, err
		}

		res := streambuf.BufferAndCheck(ctx, s, o.bufferTokens)
		if res.Err != nil {
			// Transport failure, not a refusal. Relay what arrived and
			// surface the error so the consumer never mistakes the prefix
			// for a complete answer.
			o.log.Warn("attempt stream failed during screening",
				"attempt", attempt, "error", res.Err)
			return &Outcome{
				Status:   Succeeded,
				Stream:   streambuf.WithPrefix(res.BufferedText, streambuf.FromError(res.Err)),
				Attempts: attempt + 1,
			}, nil
		}
		if !res.IsRefusal || res.Confidence != refusal.High {
			return &Outcome{
				Status:   Succeeded,
				Stream:   streambuf.WithPrefix(res.BufferedText, s),
				Attempts: attempt + 1,
			}, nil
		}

		o.log.Info("refusal detected",
			"attempt", attempt,
			"pattern", res.MatchedPattern,
		)

		if attempt == 0 {
			// Cache the first refusal in full; it is what the user sees if
			// every retry refuses too.
			firstRefusal = res.BufferedText
			if !res.EOF {
				firstRefusal += streambuf.ConsumeAll(ctx, s)
			}
			lang = o.extractor.ConversationLanguage("", priorText, res.BufferedText)
		} else {
			drain(ctx, s, res.EOF)
		}

		if attempt == o.maxRetries {
			break
		}

		working = append(working, chat.TextTurn(chat.RoleUser, ClarificationFor(lang)))
	}

	o.log.Warn("refusal retries exhausted", "attempts", o.maxRetries+1, "language", lang)
	return &Outcome{
		Status:      ExhaustedRefusal,
		RefusalText: firstRefusal,
		Language:    lang,
		Attempts:    o.maxRetries + 1,
	}, nil
}

// drain disposes of a refused retry stream: close it when possible, read it
// off otherwise.
func drain(ctx context.Context, s streambuf.Stream, eof bool) {
	if eof {
		return
	}
	if c, ok := s.(io.Closer); ok {
		c.Close()
		return
	}
	streambuf.ConsumeAll(ctx, s)
}
