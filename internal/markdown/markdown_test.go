package markdown_test

import (
	"strings"
	"testing"

	"github.com/valpere/perelay/internal/markdown"
)

func TestToPlainText(t *testing.T) {
	md := "# Title\n\nSome **bold** and *italic* text.\n\n- item one\n- item two"
	got := markdown.ToPlainText([]byte(md))

	for _, want := range []string{"Title", "bold", "italic", "item one"} {
		if !strings.Contains(got, want) {
			t.Errorf("plain text missing %q: %q", want, got)
		}
	}
	for _, markup := range []string{"#", "**", "<h1>", "<li>"} {
		if strings.Contains(got, markup) {
			t.Errorf("markup %q survived: %q", markup, got)
		}
	}
}

func TestStripHTMLTags(t *testing.T) {
	got := markdown.StripHTMLTags("<p>Hello <b>world</b></p>")
	if got != "Hello world" {
		t.Errorf("StripHTMLTags = %q", got)
	}
}

func TestHasStructure(t *testing.T) {
	tests := []struct {
		name     string
		md       string
		expected bool
	}{
		{"heading", "# Invoice\n\nbody", true},
		{"table", "| a | b |\n|---|---|\n| 1 | 2 |", true},
		{"bold", "a **bold** label", true},
		{"list", "- one\n- two", true},
		{"flat text", "just a plain paragraph of prose with no markup at all", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := markdown.HasStructure(tt.md); got != tt.expected {
				t.Errorf("HasStructure(%q) = %v, want %v", tt.md, got, tt.expected)
			}
		})
	}
}
