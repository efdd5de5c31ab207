// Package ocr extracts markdown text from document images and PDFs. All
// backends sit behind one contract; which one runs is deployment
// configuration, not call-site choice.
package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/valpere/perelay/internal/markdown"
)

// Confidence is the coarse quality grade of an extraction.
type Confidence string

const (
	High   Confidence = "high"
	Medium Confidence = "medium"
	Low    Confidence = "low"
)

// rank orders grades for min-aggregation across a batch.
func rank(c Confidence) int {
	switch c {
	case High:
		return 2
	case Medium:
		return 1
	default:
		return 0
	}
}

// Result is one extraction. Produced once per document batch and consumed
// exactly once by the translation phase; never mutated.
type Result struct {
	Markdown   string            `json:"markdown"`
	PageCount  int               `json:"page_count"`
	Confidence Confidence        `json:"confidence"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Input is one document handed to a batch.
type Input struct {
	Data      []byte
	MediaType string
	Filename  string
}

// Backend extracts markdown from a single image or PDF.
type Backend interface {
	Name() string
	Process(ctx context.Context, data []byte, mediaType string) (*Result, error)
}

// GradeText grades extracted markdown when a backend supplies no confidence
// of its own. Thresholds:
//   - low: under 10 characters, or a special-character ratio above 0.4
//     (garbled extraction);
//   - high: over 100 characters with structural markup, or over 200
//     characters with more than 20 words;
//   - medium: everything else.
func GradeText(md string) Confidence {
	text := strings.TrimSpace(md)
	if len(text) < 10 || specialRatio(text) > 0.4 {
		return Low
	}
	if len(text) > 100 && markdown.HasStructure(text) {
		return High
	}
	if len(text) > 200 && len(strings.Fields(markdown.ToPlainText([]byte(text)))) > 20 {
		return High
	}
	return Medium
}

func specialRatio(text string) float64 {
	if text == "" {
		return 0
	}
	special, total := 0, 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsPunct(r) {
			special++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(special) / float64(total)
}

// documentSeparator joins documents in a combined batch result.
const documentSeparator = "\n\n---\n\n"

// ProcessBatch runs the backend over every input and combines the successes.
// Individual failures are skipped; the batch fails only when every input
// fails. The combined confidence is the minimum of the successful grades, so
// one garbled document is never hidden behind a high overall grade. When
// concurrent is true the inputs run in parallel; sequential mode exists for
// backends with tight rate limits.
func ProcessBatch(ctx context.Context, b Backend, inputs []Input, concurrent bool) (*Result, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("ocr batch: no inputs")
	}

	results := make([]*Result, len(inputs))
	errs := make([]error, len(inputs))

	if concurrent {
		var wg sync.WaitGroup
		for i, in := range inputs {
			wg.Add(1)
			go func(i int, in Input) {
				defer wg.Done()
				results[i], errs[i] = b.Process(ctx, in.Data, in.MediaType)
			}(i, in)
		}
		wg.Wait()
	} else {
		for i, in := range inputs {
			results[i], errs[i] = b.Process(ctx, in.Data, in.MediaType)
		}
	}

	var (
		parts     []string
		pageCount int
		failed    int
		combined  = High
	)
	for i, r := range results {
		if errs[i] != nil || r == nil {
			failed++
			continue
		}
		parts = append(parts, strings.TrimSpace(r.Markdown))
		pageCount += r.PageCount
		if rank(r.Confidence) < rank(combined) {
			combined = r.Confidence
		}
	}

	if len(parts) == 0 {
		return nil, fmt.Errorf("ocr batch: all %d inputs failed, first error: %w", len(inputs), firstErr(errs))
	}

	md := parts[0]
	if len(parts) > 1 {
		md = strings.Join(parts, documentSeparator)
	}
	return &Result{
		Markdown:   md,
		PageCount:  pageCount,
		Confidence: combined,
		Metadata: map[string]string{
			"backend":   b.Name(),
			"documents": fmt.Sprintf("%d", len(parts)),
			"failed":    fmt.Sprintf("%d", failed),
		},
	}, nil
}

func firstErr(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return fmt.Errorf("no result")
}
