package view

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Markdown turns an article body into sanitized HTML.
type Markdown interface {
	HTML(md string) string
}

var ugc = bluemonday.UGCPolicy()

// NewMarkdown returns the renderer registered under name: "gomarkdown"
// (default), "goldmark" or "plain".
func NewMarkdown(name string) (Markdown, error) {
	switch name {
	case "", "gomarkdown":
		return GoMarkdown{}, nil
	case "goldmark":
		return NewGoldmark(), nil
	case "plain":
		return Plain{}, nil
	}
	return nil, fmt.Errorf("unknown markdown renderer %q", name)
}

type GoMarkdown struct{}

func (GoMarkdown) HTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	doc := p.Parse([]byte(md))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank})
	return string(ugc.SanitizeBytes(markdown.Render(doc, renderer)))
}

type Goldmark struct {
	md goldmark.Markdown
}

func NewGoldmark() Goldmark {
	return Goldmark{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

func (g Goldmark) HTML(md string) string {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(md), &buf); err != nil {
		return Plain{}.HTML(md)
	}
	return string(ugc.SanitizeBytes(buf.Bytes()))
}

// Plain wraps every line in a paragraph. It is the fallback when no
// Markdown renderer is available.
type Plain struct{}

func (Plain) HTML(md string) string {
	var sb strings.Builder
	for _, line := range strings.Split(md, "\n") {
		sb.WriteString("<p>")
		sb.WriteString(html.EscapeString(line))
		sb.WriteString("</p>")
	}
	return sb.String()
}
