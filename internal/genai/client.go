// Package genai is a minimal client for an OpenAI-compatible chat-completions
// backend. It supports blocking calls and server-sent-event streaming, and
// accepts image parts as data URLs so the same backend serves vision-prompt
// OCR and chat translation.
package genai

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

	"github.com/valpere/perelay/internal/chat"
)

// Config identifies one backend deployment. Constructed once at process start
// and passed in; the client keeps no hidden global state.
type Config struct {
	BaseURL string        `mapstructure:"base_url" json:"base_url"`
	APIKey  string        `mapstructure:"api_key" json:"api_key"`
	Model   string        `mapstructure:"model" json:"model"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
}

// Client issues chat-completion calls against one backend.
type Client struct {
	cfg   Config
	httpc *http.Client
}

// NewClient builds a Client. Timeout defaults to 120s and bounds blocking
// calls only; streaming calls run until the stream ends or the caller's
// context is cancelled.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Client{
		cfg: cfg,
		// No client-level timeout: it would cut streaming responses short.
		// Per-call deadlines come from the request context.
		httpc: &http.Client{},
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

type wireMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// buildContent converts turn parts to the wire content shape: a bare string
// for text-only turns, a typed part array when files are present.
func buildContent(t chat.Turn) any {
	if !t.HasImages() {
		return t.Text()
	}
	var parts []map[string]any
	for _, p := range t.Parts {
		switch p.Type {
		case chat.PartText:
			parts = append(parts, map[string]any{"type": "text", "text": p.Text})
		case chat.PartFile:
			url := p.URL
			if url == "" {
				url = "data:" + p.MediaType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
			}
			parts = append(parts, map[string]any{
				"type":      "image_url",
				"image_url": map[string]any{"url": url},
			})
		}
	}
	return parts
}

func (c *Client) buildBody(system string, turns []chat.Turn, stream bool) ([]byte, error) {
	msgs := make([]wireMessage, 0, len(turns)+1)
	if system != "" {
		msgs = append(msgs, wireMessage{Role: "system", Content: system})
	}
	for _, t := range turns {
		msgs = append(msgs, wireMessage{Role: t.Role, Content: buildContent(t)})
	}
	body := map[string]any{
		"model":    c.cfg.Model,
		"messages": msgs,
	}
	if stream {
		body["stream"] = true
	}
	return json.Marshal(body)
}

func (c *Client) do(ctx context.Context, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("chat backend %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}
	return resp, nil
}

// Complete issues a blocking chat call and returns the full response text.
func (c *Client) Complete(ctx context.Context, system string, turns []chat.Turn) (string, error) {
	payload, err := c.buildBody(system, turns, false)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.do(ctx, payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", err
	}
	if len(raw.Choices) == 0 {
		return "", fmt.Errorf("chat backend: empty response")
	}
	return raw.Choices[0].Message.Content, nil
}

// ChatStream issues a streaming chat call. The returned Stream yields content
// deltas and must be read to io.EOF or closed, or the connection leaks.
func (c *Client) ChatStream(ctx context.Context, system string, turns []chat.Turn) (*Stream, error) {
	payload, err := c.buildBody(system, turns, true)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, payload)
	if err != nil {
		return nil, err
	}
	return newStream(resp.Body), nil
}
