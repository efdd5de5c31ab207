// Package chat defines the conversation data model shared by the pipeline:
// a conversation is an ordered list of turns, each turn an ordered list of
// text and file parts. Turns are immutable once produced; the pipeline only
// ever appends new turns.
package chat

import "strings"

// Roles a turn can carry.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Part kinds.
const (
	PartText = "text"
	PartFile = "file"
)

// Part is one element of a turn: either a text fragment or a file reference.
// A file part carries its payload inline (Data) or by URL, never both.
type Part struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
	Data      []byte `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
	Filename  string `json:"filename,omitempty"`
}

// Turn is one message in a conversation.
type Turn struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// TextTurn builds a single-part text turn.
func TextTurn(role, text string) Turn {
	return Turn{Role: role, Parts: []Part{{Type: PartText, Text: text}}}
}

// Text returns the concatenation of all text parts of the turn.
func (t Turn) Text() string {
	var sb strings.Builder
	for _, p := range t.Parts {
		if p.Type == PartText {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// ImageParts returns the file parts that carry an image or PDF payload.
func (t Turn) ImageParts() []Part {
	var out []Part
	for _, p := range t.Parts {
		if p.Type != PartFile {
			continue
		}
		if strings.HasPrefix(p.MediaType, "image/") || p.MediaType == "application/pdf" {
			out = append(out, p)
		}
	}
	return out
}

// HasImages reports whether the turn carries at least one image or PDF part.
func (t Turn) HasImages() bool {
	return len(t.ImageParts()) > 0
}

// UserText collects the text of every user-authored turn, oldest first.
// Non-user turns are skipped: assistant output must not contribute script or
// keyword signals when detecting the conversation language.
func UserText(turns []Turn) []string {
	var out []string
	for _, t := range turns {
		if t.Role != RoleUser {
			continue
		}
		if s := t.Text(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a shallow copy of the turn list that is safe to append to
// without mutating the original slice. The turns themselves are immutable.
func Clone(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}
