package ocr_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/valpere/perelay/internal/genai"
	"github.com/valpere/perelay/internal/ocr"
)

func visionBackend(t *testing.T, modelOutput string) *ocr.VisionBackend {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := json.Marshal(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": modelOutput}}},
		})
		w.Write(raw)
	}))
	t.Cleanup(srv.Close)
	return ocr.NewVisionBackend(genai.NewClient(genai.Config{BaseURL: srv.URL, Model: "vision-model"}))
}

func TestVision_Process(t *testing.T) {
	b := visionBackend(t, "# Contract\n\nThis agreement is made between the parties named below and covers all deliverables.")

	res, err := b.Process(context.Background(), []byte("img"), "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(res.Markdown, "# Contract") {
		t.Errorf("markdown = %q", res.Markdown)
	}
	if res.PageCount != 1 {
		t.Errorf("page count = %d, want 1", res.PageCount)
	}
	if res.Metadata["model"] != "vision-model" {
		t.Errorf("metadata model = %q", res.Metadata["model"])
	}
}

func TestVision_MultiPage(t *testing.T) {
	b := visionBackend(t, "# Page one\n\nFirst page body text.\n<!-- page -->\n# Page two\n\nSecond page body text.")

	res, err := b.Process(context.Background(), []byte("pdf"), "application/pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PageCount != 2 {
		t.Errorf("page count = %d, want 2", res.PageCount)
	}
	if strings.Contains(res.Markdown, "<!-- page -->") {
		t.Errorf("page marker leaked into output: %q", res.Markdown)
	}
}

func TestVision_StripsFenceWrapping(t *testing.T) {
	b := visionBackend(t, "```markdown\n# Receipt\n\nTotal: 12.50\n```")

	res, err := b.Process(context.Background(), []byte("img"), "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(res.Markdown, "```") {
		t.Errorf("fence wrapping survived: %q", res.Markdown)
	}
	if !strings.HasPrefix(res.Markdown, "# Receipt") {
		t.Errorf("markdown = %q", res.Markdown)
	}
}

func TestVision_Unreadable(t *testing.T) {
	b := visionBackend(t, "UNREADABLE")
	if _, err := b.Process(context.Background(), []byte("img"), "image/png"); err == nil {
		t.Fatal("expected error for unreadable document")
	}
}
