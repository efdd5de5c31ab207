// Package placeholder shields markup from machine-translation backends that
// would otherwise mangle it. Fenced code blocks, inline code spans and HTML
// tags are swapped for numbered markers ([PH0], [PH1], …) before the call;
// Restore substitutes the originals back afterwards and reports markers the
// backend lost.
package placeholder

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// fenced code blocks: ```…``` (non-greedy, may span lines)
	reFencedCode = regexp.MustCompile("(?s)```.*?```")

	// inline code spans: `…`
	reInlineCode = regexp.MustCompile("`[^`]+`")

	// HTML/XML tags: opening, closing, and self-closing
	reHTMLTag = regexp.MustCompile(`<[^>]+>`)

	// placeholder reference in translated text
	rePlaceholder = regexp.MustCompile(`\[PH(\d+)\]`)
)

// Protect replaces protected markup with numbered placeholders in the order
// it appears in text. It returns the modified text and the captured
// originals for Restore.
func Protect(text string) (string, []string) {
	var markers []string

	replace := func(match string) string {
		id := fmt.Sprintf("[PH%d]", len(markers))
		markers = append(markers, match)
		return id
	}

	// Fenced blocks first (longest match), then inline code, then tags.
	text = reFencedCode.ReplaceAllStringFunc(text, replace)
	text = reInlineCode.ReplaceAllStringFunc(text, replace)
	text = reHTMLTag.ReplaceAllStringFunc(text, replace)

	return text, markers
}

// Restore substitutes [PHn] markers back with the originals captured by
// Protect. Unrecognised indices are left as-is. When the translated text has
// dropped markers, the restored text is still returned along with an error
// naming the missing indices, so callers can decide whether the loss
// matters.
func Restore(text string, markers []string) (string, error) {
	restored := rePlaceholder.ReplaceAllStringFunc(text, func(match string) string {
		sub := rePlaceholder.FindStringSubmatch(match)
		idx := 0
		fmt.Sscanf(sub[1], "%d", &idx)
		if idx < 0 || idx >= len(markers) {
			return match
		}
		return markers[idx]
	})

	var missing []int
	for i := range markers {
		if !strings.Contains(text, fmt.Sprintf("[PH%d]", i)) {
			missing = append(missing, i)
		}
	}
	if len(missing) > 0 {
		return restored, fmt.Errorf("placeholder: %d of %d markers lost in translation: %v", len(missing), len(markers), missing)
	}
	return restored, nil
}

// InstructionHint returns a sentence to append to an LLM prompt so the model
// leaves placeholders intact.
func InstructionHint() string {
	return "Preserve all [PHn] markers exactly as they appear; do not translate, move, or remove them."
}
