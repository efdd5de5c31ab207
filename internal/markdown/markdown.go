// Package markdown provides the small amount of markdown introspection the
// OCR pipeline needs: plain-text extraction for word counting and structure
// probing for confidence grading.
package markdown

import (
	"bytes"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

func newParser() *parser.Parser {
	ext := parser.CommonExtensions | parser.Tables
	return parser.NewWithExtensions(ext)
}

// ToHTML renders md to HTML with common extensions enabled.
func ToHTML(md []byte) string {
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	doc := newParser().Parse(md)
	return string(markdown.Render(doc, renderer))
}

// ToPlainText strips all markup from md, leaving only text content.
func ToPlainText(md []byte) string {
	return StripHTMLTags(ToHTML(md))
}

// StripHTMLTags removes anything between angle brackets.
func StripHTMLTags(htmlContent string) string {
	var result bytes.Buffer
	inTag := false
	for _, ch := range htmlContent {
		switch ch {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				result.WriteRune(ch)
			}
		}
	}
	return result.String()
}

// HasStructure reports whether md contains structural markup (headings,
// tables, emphasis/bold, lists) as opposed to a flat run of text. OCR
// output with structure is much more likely to be a faithful extraction.
func HasStructure(md string) bool {
	doc := newParser().Parse([]byte(md))
	found := false
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch node.(type) {
		case *ast.Heading, *ast.Table, *ast.Strong, *ast.Emph, *ast.List:
			found = true
			return ast.Terminate
		}
		return ast.GoToNext
	})
	return found
}
