package streambuf_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/valpere/perelay/internal/refusal"
	"github.com/valpere/perelay/internal/streambuf"
)

// errStream yields its chunks, then a non-EOF error.
type errStream struct {
	chunks []string
	err    error
}

func (e *errStream) Recv() (string, error) {
	if len(e.chunks) == 0 {
		return "", e.err
	}
	chunk := e.chunks[0]
	e.chunks = e.chunks[1:]
	return chunk, nil
}

func chanStreamOf(chunks ...string) streambuf.Stream {
	ch := make(chan string, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return streambuf.FromChannel(ch)
}

func TestBufferAndCheck_CleanStream(t *testing.T) {
	s := chanStreamOf("# Heading\n\n", "Translated body ", "text continues here.")
	res := streambuf.BufferAndCheck(context.Background(), s, 0)

	if res.IsRefusal {
		t.Errorf("clean stream flagged as refusal: %+v", res)
	}
	if !res.EOF {
		t.Error("expected EOF on a short stream")
	}
	if !strings.Contains(res.BufferedText, "Translated body") {
		t.Errorf("buffered text incomplete: %q", res.BufferedText)
	}
}

func TestBufferAndCheck_Refusal(t *testing.T) {
	s := chanStreamOf("I cannot ", "assist with translating this document.")
	res := streambuf.BufferAndCheck(context.Background(), s, 0)

	if !res.IsRefusal || res.Confidence != refusal.High {
		t.Errorf("expected high-confidence refusal, got %+v", res)
	}
}

func TestBufferAndCheck_StopsAtBudget(t *testing.T) {
	// 1000 single-word chunks; a 10-token budget must stop far short of that.
	ch := make(chan string, 1000)
	for i := 0; i < 1000; i++ {
		ch <- "word "
	}
	close(ch)
	s := streambuf.FromChannel(ch)

	res := streambuf.BufferAndCheck(context.Background(), s, 10)
	if res.EOF {
		t.Error("did not expect EOF, stream has chunks left")
	}
	words := len(strings.Fields(res.BufferedText))
	if words > 20 {
		t.Errorf("buffered %d words, expected to stop near the 10-token budget", words)
	}
}

func TestBufferAndCheck_FailsOpenOnTransportError(t *testing.T) {
	cause := errors.New("connection reset")
	s := &errStream{chunks: []string{"I cannot "}, err: cause}
	res := streambuf.BufferAndCheck(context.Background(), s, 0)

	if res.IsRefusal {
		t.Errorf("transport error classified as refusal: %+v", res)
	}
	if res.EOF {
		t.Error("transport error must not report EOF")
	}
	if res.BufferedText != "I cannot " {
		t.Errorf("expected partial text preserved, got %q", res.BufferedText)
	}
	if !errors.Is(res.Err, cause) {
		t.Errorf("read error not carried in result: %v", res.Err)
	}
}

func TestFromError(t *testing.T) {
	cause := errors.New("connection reset")
	s := streambuf.FromError(cause)
	for i := 0; i < 2; i++ {
		if _, err := s.Recv(); !errors.Is(err, cause) {
			t.Fatalf("Recv %d = %v, want the wrapped error", i, err)
		}
	}
}

func TestConsumeAll(t *testing.T) {
	s := chanStreamOf("one ", "two ", "three")
	got := streambuf.ConsumeAll(context.Background(), s)
	if got != "one two three" {
		t.Errorf("ConsumeAll = %q", got)
	}
}

func TestConsumeAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Never reads from the channel, so an unbuffered stream must not block.
	s := streambuf.FromChannel(make(chan string))
	if got := streambuf.ConsumeAll(ctx, s); got != "" {
		t.Errorf("expected empty result on cancelled context, got %q", got)
	}
}

func TestWithPrefix(t *testing.T) {
	s := streambuf.WithPrefix("prefix ", chanStreamOf("rest"))

	chunk, err := s.Recv()
	if err != nil || chunk != "prefix " {
		t.Fatalf("first Recv = %q, %v", chunk, err)
	}
	chunk, err = s.Recv()
	if err != nil || chunk != "rest" {
		t.Fatalf("second Recv = %q, %v", chunk, err)
	}
	if _, err = s.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestWithPrefix_EmptyPrefixPassthrough(t *testing.T) {
	inner := chanStreamOf("only")
	if got := streambuf.WithPrefix("", inner); got != inner {
		t.Error("empty prefix should return the inner stream unchanged")
	}
}

func TestFromText(t *testing.T) {
	s := streambuf.FromText("whole")
	chunk, err := s.Recv()
	if err != nil || chunk != "whole" {
		t.Fatalf("Recv = %q, %v", chunk, err)
	}
	if _, err := s.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}
