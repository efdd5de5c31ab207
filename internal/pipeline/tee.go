package pipeline

import (
	"errors"
	"io"
	"strings"

	"github.com/valpere/perelay/internal/chat"
	"github.com/valpere/perelay/internal/langsig"
	"github.com/valpere/perelay/internal/streambuf"
	"github.com/valpere/perelay/internal/translate"
)

// teeStream relays chunks to the consumer while accumulating the full text.
// When the inner stream ends naturally the accumulated assistant turn is
// persisted asynchronously; read errors skip persistence so a broken stream
// is never recorded as a complete answer.
type teeStream struct {
	p      *Orchestrator
	req    Request
	prior  []chat.Turn
	inner  streambuf.Stream
	target langsig.Code

	buf  strings.Builder
	done bool
}

func (t *teeStream) Recv() (string, error) {
	chunk, err := t.inner.Recv()
	t.buf.WriteString(chunk)
	if err != nil && !t.done {
		t.done = true
		if errors.Is(err, io.EOF) {
			t.finish()
		}
	}
	return chunk, err
}

func (t *teeStream) finish() {
	text := t.buf.String()
	if t.target != "" {
		if verr := translate.VerifyLanguage(t.p.extractor.Statistical(), text, t.target); verr != nil {
			t.p.log.Warn("translation language check failed",
				"conversation", t.req.ConversationID, "error", verr)
		}
	}
	t.p.persist(t.req, t.prior, text)
}

var _ streambuf.Stream = (*teeStream)(nil)
