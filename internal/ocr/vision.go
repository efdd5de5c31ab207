package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/valpere/perelay/internal/chat"
	"github.com/valpere/perelay/internal/genai"
	"github.com/valpere/perelay/internal/postprocess"
)

// visionPrompt instructs a vision-capable model to act as an OCR engine. The
// page marker lets PageCount survive multi-page PDFs.
const visionPrompt = `You are an OCR engine. Extract ALL text from the provided document image exactly as written, as clean markdown.

Rules:
- Preserve the document structure: headings, tables, lists, bold labels.
- Keep the original language; do not translate.
- Do not describe the image, do not add commentary.
- Do not wrap the output in code fences.
- For multi-page documents, separate pages with a line containing only "<!-- page -->".
- If the document is unreadable, output exactly: UNREADABLE`

// pageMarker separates pages in vision-model output.
const pageMarker = "<!-- page -->"

// VisionBackend prompts a vision-capable generative model to perform OCR.
type VisionBackend struct {
	client *genai.Client
}

// NewVisionBackend wraps an injected generative client.
func NewVisionBackend(client *genai.Client) *VisionBackend {
	return &VisionBackend{client: client}
}

func (v *VisionBackend) Name() string { return "vision" }

// Process sends the document to the model and grades the extraction locally;
// a vision model reports no confidence of its own.
func (v *VisionBackend) Process(ctx context.Context, data []byte, mediaType string) (*Result, error) {
	turn := chat.Turn{
		Role: chat.RoleUser,
		Parts: []chat.Part{
			{Type: chat.PartText, Text: "Extract the text from this document."},
			{Type: chat.PartFile, MediaType: mediaType, Data: data},
		},
	}

	out, err := v.client.Complete(ctx, visionPrompt, []chat.Turn{turn})
	if err != nil {
		return nil, fmt.Errorf("vision ocr: %w", err)
	}

	md := postprocess.Unfence(postprocess.Clean(out))
	if strings.TrimSpace(md) == "" || strings.EqualFold(strings.TrimSpace(md), "UNREADABLE") {
		return nil, fmt.Errorf("vision ocr: no readable text extracted")
	}

	pages := strings.Split(md, pageMarker)
	md = strings.TrimSpace(strings.Join(pages, documentPageJoin))

	return &Result{
		Markdown:   md,
		PageCount:  len(pages),
		Confidence: GradeText(md),
		Metadata:   map[string]string{"model": v.client.Model()},
	}, nil
}

// documentPageJoin replaces the page marker in final output.
const documentPageJoin = "\n\n"
