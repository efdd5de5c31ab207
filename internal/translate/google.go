package translate

import (
	"context"
	"fmt"

	gtranslate "cloud.google.com/go/translate"
	"golang.org/x/text/language"

	"github.com/valpere/perelay/internal/logger"
	"github.com/valpere/perelay/internal/placeholder"
)

// GoogleBackend translates through the Cloud Translation API. Markdown
// markup survives by placeholder protection: fences, inline code and HTML
// tags are swapped for numbered markers before the call and restored after.
//
// The client is injected and constructed once at process start; backends
// keep no lazily-built globals.
type GoogleBackend struct {
	client *gtranslate.Client
	log    *logger.Logger
}

// NewGoogleBackend wraps an existing Cloud Translation client.
func NewGoogleBackend(client *gtranslate.Client, log *logger.Logger) *GoogleBackend {
	return &GoogleBackend{client: client, log: log}
}

func (g *GoogleBackend) Name() string { return "google" }

// Translate performs a synchronous translation. Formality and Context are
// ignored; the API supports neither.
func (g *GoogleBackend) Translate(ctx context.Context, req Request) (string, error) {
	tag, err := language.Parse(string(req.Target))
	if err != nil {
		return "", fmt.Errorf("google translate: invalid target %q: %w", req.Target, err)
	}

	protected, markers := placeholder.Protect(req.Markdown)

	translations, err := g.client.Translate(ctx, []string{protected}, tag, nil)
	if err != nil {
		return "", fmt.Errorf("google translate: %w", err)
	}
	if len(translations) == 0 {
		return "", fmt.Errorf("google translate: no translation returned")
	}

	return g.restoreMarkup(translations[0].Text, markers), nil
}

// restoreMarkup puts protected markup back. MT backends routinely drop a
// marker; the translation is still usable, so the loss is logged rather than
// failed.
func (g *GoogleBackend) restoreMarkup(text string, markers []string) string {
	out, err := placeholder.Restore(text, markers)
	if err != nil {
		g.log.Warn("markup placeholders lost in translation", "error", err)
	}
	return out
}

var _ Backend = (*GoogleBackend)(nil)
