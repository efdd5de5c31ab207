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

	"github.com/valpere/perelay/internal/poll"
)

// AsyncDocConfig points at an OCR service that only accepts asynchronous job
// submission: submit, receive a check URL, poll until the job settles.
type AsyncDocConfig struct {
	Endpoint string        `mapstructure:"endpoint" json:"endpoint"`
	APIKey   string        `mapstructure:"api_key" json:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout" json:"timeout"`
	Poll     poll.Policy   `mapstructure:"-" json:"-"`
}

// AsyncDocBackend is the job-based adapter.
type AsyncDocBackend struct {
	cfg   AsyncDocConfig
	httpc *http.Client
}

// NewAsyncDocBackend builds the async adapter. The poll policy defaults to
// poll.DefaultPolicy.
func NewAsyncDocBackend(cfg AsyncDocConfig) *AsyncDocBackend {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Poll.MaxAttempts == 0 {
		cfg.Poll = poll.DefaultPolicy()
	}
	return &AsyncDocBackend{
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.Timeout},
	}
}

func (a *AsyncDocBackend) Name() string { return "asyncdoc" }

type asyncSubmitResponse struct {
	JobID    string `json:"job_id"`
	CheckURL string `json:"check_url"`
}

type asyncJobResponse struct {
	Status string `json:"status"` // pending | processing | complete | failed
	Error  string `json:"error,omitempty"`
	Result *struct {
		Pages []struct {
			Markdown string `json:"markdown"`
		} `json:"pages"`
	} `json:"result,omitempty"`
}

func (a *AsyncDocBackend) Process(ctx context.Context, data []byte, mediaType string) (*Result, error) {
	check, err := a.submit(ctx, data, mediaType)
	if err != nil {
		return nil, err
	}

	var job asyncJobResponse
	err = poll.Until(ctx, a.cfg.Poll, func(ctx context.Context) (bool, error) {
		j, err := a.check(ctx, check)
		if err != nil {
			return false, err
		}
		switch j.Status {
		case "failed":
			return false, fmt.Errorf("asyncdoc: job failed: %s", j.Error)
		case "complete":
			job = *j
			return true, nil
		default:
			return false, nil
		}
	})
	if err != nil {
		return nil, fmt.Errorf("asyncdoc: %w", err)
	}

	// A completed job with no pages is an error, never a silent empty
	// success.
	if job.Result == nil || len(job.Result.Pages) == 0 {
		return nil, fmt.Errorf("asyncdoc: job complete with zero pages")
	}

	pages := make([]string, 0, len(job.Result.Pages))
	for _, p := range job.Result.Pages {
		if s := strings.TrimSpace(p.Markdown); s != "" {
			pages = append(pages, s)
		}
	}
	md := strings.Join(pages, "\n\n")
	if md == "" {
		return nil, fmt.Errorf("asyncdoc: job complete with zero pages")
	}

	return &Result{
		Markdown:   md,
		PageCount:  len(job.Result.Pages),
		Confidence: GradeText(md),
		Metadata:   map[string]string{"check_url": check},
	}, nil
}

func (a *AsyncDocBackend) submit(ctx context.Context, data []byte, mediaType string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"content":  base64.StdEncoding.EncodeToString(data),
		"mimeType": mediaType,
		"format":   "markdown",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.cfg.Endpoint+"/v1/jobs", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("asyncdoc: submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("asyncdoc: submit %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var out asyncSubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("asyncdoc: submit: decode: %w", err)
	}
	if out.CheckURL == "" {
		return "", fmt.Errorf("asyncdoc: submit: no check URL in response")
	}
	return out.CheckURL, nil
}

func (a *AsyncDocBackend) check(ctx context.Context, url string) (*asyncJobResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("check %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var out asyncJobResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("check: decode: %w", err)
	}
	return &out, nil
}
