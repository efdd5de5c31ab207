package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/valpere/perelay/internal/chat"
	"github.com/valpere/perelay/internal/chunker"
	"github.com/valpere/perelay/internal/genai"
	"github.com/valpere/perelay/internal/langsig"
	"github.com/valpere/perelay/internal/postprocess"
	"github.com/valpere/perelay/internal/streambuf"
)

// maxChunkChars bounds the markdown handed to one model call. Documents over
// the bound are split at paragraph boundaries and translated sequentially
// with a sliding-window context for continuity.
const maxChunkChars = 12000

// LLMBackend translates through a generative model with an engineered prompt
// enforcing completeness and structural fidelity.
type LLMBackend struct {
	client *genai.Client
}

// NewLLMBackend wraps an injected generative client.
func NewLLMBackend(client *genai.Client) *LLMBackend {
	return &LLMBackend{client: client}
}

func (b *LLMBackend) Name() string { return "llm" }

// systemPrompt builds the translation instruction. The contract with the
// model: translate everything, keep the markdown structure, never wrap the
// output in code fences.
func systemPrompt(target langsig.Code, formality string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a professional certified document translator. Translate the user's markdown document into %s.\n\n", target.DisplayName())
	sb.WriteString("Requirements:\n")
	sb.WriteString("- Translate the COMPLETE document. Never summarize, never omit sections.\n")
	sb.WriteString("- Preserve the markdown structure exactly: headings, tables, lists, bold labels.\n")
	sb.WriteString("- Keep names, numbers, dates and identifiers as written.\n")
	sb.WriteString("- Output only the translated document. No commentary, no notes.\n")
	sb.WriteString("- Do NOT wrap the output in code fences.")
	if formality != "" {
		fmt.Fprintf(&sb, "\n- Use a %s register.", formality)
	}
	return sb.String()
}

func userContent(md, context string) string {
	if context == "" {
		return md
	}
	return fmt.Sprintf("CONTEXT (for continuity only, do NOT retranslate):\n...%s\n\nDOCUMENT:\n%s", context, md)
}

// Translate blocks until the full translation is available. Long documents
// are chunked; each chunk call carries the tail of the previous source chunk
// as context.
func (b *LLMBackend) Translate(ctx context.Context, req Request) (string, error) {
	chunks := chunker.Chunk(req.Markdown, maxChunkChars)

	var out []string
	prevContext := req.Context
	for _, c := range chunks {
		turn := chat.TextTurn(chat.RoleUser, userContent(c, prevContext))
		raw, err := b.client.Complete(ctx, systemPrompt(req.Target, req.Formality), []chat.Turn{turn})
		if err != nil {
			return "", fmt.Errorf("llm translate: %w", err)
		}
		out = append(out, postprocess.Unfence(postprocess.Clean(raw)))
		prevContext = chunker.ExtractContext(c, chunker.DefaultContextWords)
	}
	return strings.Join(out, "\n\n"), nil
}

// TranslateStream issues one streaming call and hands the raw token stream
// to the caller. No chunking: the streaming path serves interactive document
// requests, which fit a single call.
func (b *LLMBackend) TranslateStream(ctx context.Context, req Request) (streambuf.Stream, error) {
	turn := chat.TextTurn(chat.RoleUser, userContent(req.Markdown, req.Context))
	s, err := b.client.ChatStream(ctx, systemPrompt(req.Target, req.Formality), []chat.Turn{turn})
	if err != nil {
		return nil, fmt.Errorf("llm translate stream: %w", err)
	}
	return s, nil
}
