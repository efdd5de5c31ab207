// Package chunker splits long markdown into translatable pieces without
// breaking sentences or paragraphs, and extracts a sliding-window context
// snippet (last N words) so LLM translators keep continuity across chunk
// boundaries.
package chunker

import (
	"strings"
	"unicode"
)

// DefaultContextWords is the default sliding-window size for ExtractContext.
const DefaultContextWords = 25

// Chunk splits text into pieces of at most maxChars runes each. Split points
// are chosen in order of preference:
//  1. paragraph boundary (blank line)
//  2. sentence-ending punctuation followed by whitespace
//  3. any whitespace
//  4. hard cut at maxChars
//
// maxChars <= 0 means unlimited; text that already fits is returned as a
// single-element slice.
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 || len([]rune(text)) <= maxChars {
		return []string{text}
	}

	var chunks []string
	remaining := text
	for len([]rune(remaining)) > maxChars {
		split := findSplit(remaining, maxChars)
		if chunk := strings.TrimSpace(remaining[:split]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		remaining = strings.TrimSpace(remaining[split:])
	}
	if remaining != "" {
		chunks = append(chunks, remaining)
	}
	return chunks
}

// findSplit returns the byte offset at which to split text so the consumed
// prefix stays within maxChars runes, searching backwards for the best
// boundary.
func findSplit(text string, maxChars int) int {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return len(text)
	}
	candidate := runes[:maxChars]

	// Paragraph boundary.
	prefix := string(candidate)
	if idx := strings.LastIndex(prefix, "\n\n"); idx > 0 {
		return idx + 2
	}
	if idx := strings.LastIndex(prefix, "\r\n\r\n"); idx > 0 {
		return idx + 4
	}

	// Sentence end followed by whitespace.
	for i := len(candidate) - 2; i > 0; i-- {
		r := candidate[i]
		if (r == '.' || r == '!' || r == '?') && unicode.IsSpace(candidate[i+1]) {
			return len(string(candidate[:i+1]))
		}
	}

	// Word boundary.
	for i := len(candidate) - 1; i > 0; i-- {
		if unicode.IsSpace(candidate[i]) {
			return len(string(candidate[:i]))
		}
	}

	// Hard cut.
	return len(prefix)
}

// ExtractContext returns the last wordCount words of text joined by single
// spaces, for use as a sliding-window prompt context. Shorter texts are
// returned whole; wordCount <= 0 selects DefaultContextWords.
func ExtractContext(text string, wordCount int) string {
	if wordCount <= 0 {
		wordCount = DefaultContextWords
	}
	words := strings.Fields(text)
	if len(words) <= wordCount {
		return strings.TrimSpace(text)
	}
	return strings.Join(words[len(words)-wordCount:], " ")
}
