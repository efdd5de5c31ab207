/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"io"

	gtranslate "cloud.google.com/go/translate"
	"google.golang.org/api/option"

	"github.com/valpere/perelay/internal/chat"
	"github.com/valpere/perelay/internal/config"
	"github.com/valpere/perelay/internal/genai"
	"github.com/valpere/perelay/internal/history"
	"github.com/valpere/perelay/internal/langsig"
	"github.com/valpere/perelay/internal/logger"
	"github.com/valpere/perelay/internal/ocr"
	"github.com/valpere/perelay/internal/pipeline"
	"github.com/valpere/perelay/internal/retry"
	"github.com/valpere/perelay/internal/streambuf"
	"github.com/valpere/perelay/internal/translate"
)

// chatSystemPrompt frames the assistant for the direct chat path. The
// document path builds its own prompts per backend.
const chatSystemPrompt = `You are a professional translation assistant. You translate text and
documents the user owns or has the right to process. Translate completely,
preserve Markdown formatting, and answer translation questions directly.
Respond in the language the user writes in unless asked otherwise.`

// components is everything a command needs, built once from configuration.
type components struct {
	log   *logger.Logger
	pipe  *pipeline.Orchestrator
	store history.Store

	closers []io.Closer
}

// Close releases backend resources in reverse construction order.
func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i].Close()
	}
	c.log.Sync()
}

// buildComponents wires the pipeline from configuration: one canonical OCR
// backend, one canonical translation backend, one history store.
func buildComponents(ctx context.Context, cfg *config.Config) (*components, error) {
	log, err := logger.New(cfg.Server.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	comp := &components{log: log}

	client := genai.NewClient(cfg.Genai)

	ocrBackend, err := buildOCRBackend(cfg, client)
	if err != nil {
		return nil, err
	}

	translator, err := buildTranslateBackend(ctx, cfg, client, comp)
	if err != nil {
		return nil, err
	}

	store, err := buildHistoryStore(cfg, comp)
	if err != nil {
		return nil, err
	}
	comp.store = store

	var opts []langsig.Option
	if cfg.Detector.Statistical {
		opts = append(opts, langsig.WithStatistical())
	}
	extractor := langsig.New(opts...)

	retrier := retry.New(&chatAttempter{client: client}, extractor, log)

	comp.pipe = pipeline.New(ocrBackend, translator, retrier, extractor, store, log, pipeline.Config{
		HistoryTimeout: cfg.History.Timeout,
		ConcurrentOCR:  cfg.OCR.Concurrent,
	})
	return comp, nil
}

func buildOCRBackend(cfg *config.Config, client *genai.Client) (ocr.Backend, error) {
	switch cfg.OCR.Backend {
	case "vision":
		return ocr.NewVisionBackend(client), nil
	case "docscan":
		return ocr.NewDocscanBackend(cfg.OCR.Docscan), nil
	case "asyncdoc":
		return ocr.NewAsyncDocBackend(cfg.OCR.AsyncDoc), nil
	default:
		return nil, fmt.Errorf("unknown ocr backend %q", cfg.OCR.Backend)
	}
}

func buildTranslateBackend(ctx context.Context, cfg *config.Config, client *genai.Client, comp *components) (translate.StreamingBackend, error) {
	switch cfg.Translate.Backend {
	case "llm":
		return translate.NewLLMBackend(client), nil
	case "google":
		var opts []option.ClientOption
		if cfg.Translate.GoogleCredentials != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Translate.GoogleCredentials))
		}
		gc, err := gtranslate.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create google translate client: %w", err)
		}
		comp.closers = append(comp.closers, gc)
		return translate.AsStreaming(translate.NewGoogleBackend(gc, comp.log)), nil
	default:
		return nil, fmt.Errorf("unknown translate backend %q", cfg.Translate.Backend)
	}
}

func buildHistoryStore(cfg *config.Config, comp *components) (history.Store, error) {
	switch cfg.History.Backend {
	case "redis":
		r := history.NewRedis(cfg.History.Redis)
		comp.closers = append(comp.closers, r)
		return r, nil
	case "sqlite":
		s, err := history.NewSQLite(cfg.History.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open history database: %w", err)
		}
		comp.closers = append(comp.closers, s)
		return s, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
}

// chatAttempter adapts the generative client to the retry loop.
type chatAttempter struct {
	client *genai.Client
}

func (a *chatAttempter) StreamChat(ctx context.Context, turns []chat.Turn) (streambuf.Stream, error) {
	return a.client.ChatStream(ctx, chatSystemPrompt, turns)
}

var _ retry.Attempter = (*chatAttempter)(nil)
