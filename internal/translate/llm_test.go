package translate_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/valpere/perelay/internal/genai"
	"github.com/valpere/perelay/internal/langsig"
	"github.com/valpere/perelay/internal/streambuf"
	"github.com/valpere/perelay/internal/translate"
)

type capturedRequest struct {
	System string
	User   string
}

func llmBackend(t *testing.T, output string, captured *[]capturedRequest) *translate.LLMBackend {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		var cap capturedRequest
		for _, m := range body.Messages {
			switch m.Role {
			case "system":
				cap.System = m.Content
			case "user":
				cap.User = m.Content
			}
		}
		*captured = append(*captured, cap)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": output}}},
		})
	}))
	t.Cleanup(srv.Close)
	return translate.NewLLMBackend(genai.NewClient(genai.Config{BaseURL: srv.URL, Model: "m"}))
}

func TestLLMTranslate(t *testing.T) {
	var reqs []capturedRequest
	b := llmBackend(t, "# Facture\n\nMontant total.", &reqs)

	got, err := b.Translate(context.Background(), translate.Request{
		Markdown: "# Invoice\n\nTotal amount.",
		Target:   langsig.French,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "# Facture\n\nMontant total." {
		t.Errorf("translation = %q", got)
	}

	if len(reqs) != 1 {
		t.Fatalf("expected 1 call, got %d", len(reqs))
	}
	sys := reqs[0].System
	if !strings.Contains(sys, "French") {
		t.Errorf("system prompt missing target language: %q", sys)
	}
	if !strings.Contains(sys, "code fences") {
		t.Errorf("system prompt missing fence prohibition: %q", sys)
	}
	if !strings.Contains(sys, "COMPLETE") {
		t.Errorf("system prompt missing completeness requirement: %q", sys)
	}
}

func TestLLMTranslate_UnwrapsFencedOutput(t *testing.T) {
	var reqs []capturedRequest
	b := llmBackend(t, "```markdown\n# Résultat\n```", &reqs)

	got, err := b.Translate(context.Background(), translate.Request{
		Markdown: "# Input",
		Target:   langsig.French,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "# Résultat" {
		t.Errorf("fence not stripped: %q", got)
	}
}

func TestLLMTranslate_ChunksLongDocuments(t *testing.T) {
	var reqs []capturedRequest
	b := llmBackend(t, "translated chunk", &reqs)

	// Paragraphs well past the single-call bound force at least two calls.
	para := strings.Repeat("A sentence of some length to fill the paragraph. ", 40)
	doc := strings.TrimSpace(strings.Repeat(para+"\n\n", 10))

	_, err := b.Translate(context.Background(), translate.Request{
		Markdown: doc,
		Target:   langsig.German,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) < 2 {
		t.Fatalf("expected chunked calls, got %d", len(reqs))
	}
	// Later chunks carry a sliding-window context block.
	if !strings.Contains(reqs[1].User, "CONTEXT") {
		t.Errorf("second chunk missing continuity context: %q", reqs[1].User[:80])
	}
}

func TestLLMTranslate_Formality(t *testing.T) {
	var reqs []capturedRequest
	b := llmBackend(t, "ok", &reqs)

	_, err := b.Translate(context.Background(), translate.Request{
		Markdown:  "text",
		Target:    langsig.German,
		Formality: "formal",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reqs[0].System, "formal register") {
		t.Errorf("formality hint missing: %q", reqs[0].System)
	}
}

func TestLLMTranslateStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, delta := range []string{"# Titre", "\n\nCorps."} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", delta)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)
	b := translate.NewLLMBackend(genai.NewClient(genai.Config{BaseURL: srv.URL, Model: "m"}))

	s, err := b.TranslateStream(context.Background(), translate.Request{
		Markdown: "# Title\n\nBody.",
		Target:   langsig.French,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := streambuf.ConsumeAll(context.Background(), s)
	if got != "# Titre\n\nCorps." {
		t.Errorf("streamed translation = %q", got)
	}
}

// blockingBackend is a minimal non-streaming Backend.
type blockingBackend struct{ out string }

func (b *blockingBackend) Name() string { return "blocking" }
func (b *blockingBackend) Translate(ctx context.Context, req translate.Request) (string, error) {
	return b.out, nil
}

func TestAsStreaming_WrapsBlockingBackend(t *testing.T) {
	sb := translate.AsStreaming(&blockingBackend{out: "whole translation"})

	s, err := sb.TranslateStream(context.Background(), translate.Request{Markdown: "x", Target: langsig.French})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := streambuf.ConsumeAll(context.Background(), s); got != "whole translation" {
		t.Errorf("replayed stream = %q", got)
	}
}

func TestAsStreaming_PassesThroughStreamingBackend(t *testing.T) {
	var reqs []capturedRequest
	b := llmBackend(t, "ok", &reqs)
	if got := translate.AsStreaming(b); got != translate.StreamingBackend(b) {
		t.Error("streaming backend should pass through unchanged")
	}
}

func TestVerifyLanguage(t *testing.T) {
	det := langsig.NewStatisticalDetector()
	french := "Bonjour, ceci est un document administratif rédigé entièrement en langue française pour vérifier la détection."

	if err := translate.VerifyLanguage(det, french, langsig.French); err != nil {
		t.Errorf("matching language flagged: %v", err)
	}
	if err := translate.VerifyLanguage(det, french, langsig.German); err == nil {
		t.Error("expected mismatch for French text with German target")
	}
	// Short text always passes.
	if err := translate.VerifyLanguage(det, "ok merci", langsig.German); err != nil {
		t.Errorf("short text should pass: %v", err)
	}
	// No detector configured: verification is skipped entirely.
	if err := translate.VerifyLanguage(nil, french, langsig.German); err != nil {
		t.Errorf("nil detector should pass: %v", err)
	}
}
