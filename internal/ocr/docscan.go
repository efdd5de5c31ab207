package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DocscanConfig points at a specialized OCR service with a synchronous
// recognize endpoint.
type DocscanConfig struct {
	Endpoint string        `mapstructure:"endpoint" json:"endpoint"`
	APIKey   string        `mapstructure:"api_key" json:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout" json:"timeout"`
}

// DocscanBackend calls the service once per document and maps its reported
// confidence onto the common grades.
type DocscanBackend struct {
	cfg   DocscanConfig
	httpc *http.Client
}

// NewDocscanBackend builds the synchronous docscan adapter.
func NewDocscanBackend(cfg DocscanConfig) *DocscanBackend {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &DocscanBackend{
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.Timeout},
	}
}

func (d *DocscanBackend) Name() string { return "docscan" }

type docscanRequest struct {
	Content  string `json:"content"`
	MimeType string `json:"mimeType"`
	Format   string `json:"format"`
}

type docscanResponse struct {
	Pages []struct {
		Markdown string `json:"markdown"`
	} `json:"pages"`
	Confidence float64 `json:"confidence"`
}

func (d *DocscanBackend) Process(ctx context.Context, data []byte, mediaType string) (*Result, error) {
	payload, err := json.Marshal(docscanRequest{
		Content:  base64.StdEncoding.EncodeToString(data),
		MimeType: mediaType,
		Format:   "markdown",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.cfg.Endpoint+"/v1/recognize", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.cfg.APIKey)

	resp, err := d.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("docscan: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("docscan %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var out docscanResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("docscan: decode: %w", err)
	}
	if len(out.Pages) == 0 {
		return nil, fmt.Errorf("docscan: empty result")
	}

	pages := make([]string, 0, len(out.Pages))
	for _, p := range out.Pages {
		if s := strings.TrimSpace(p.Markdown); s != "" {
			pages = append(pages, s)
		}
	}
	md := strings.Join(pages, "\n\n")
	if md == "" {
		return nil, fmt.Errorf("docscan: empty result")
	}

	return &Result{
		Markdown:   md,
		PageCount:  len(out.Pages),
		Confidence: gradeFromScore(out.Confidence, md),
		Metadata:   map[string]string{"score": fmt.Sprintf("%.2f", out.Confidence)},
	}, nil
}

// gradeFromScore maps a backend-reported confidence score onto the common
// grades, falling back to the text heuristic when no score was reported.
func gradeFromScore(score float64, md string) Confidence {
	switch {
	case score <= 0:
		return GradeText(md)
	case score >= 0.8:
		return High
	case score >= 0.5:
		return Medium
	default:
		return Low
	}
}
