// Package toc builds the outline of a rendered article body and decides
// which outline entry is active for a scroll position.
package toc

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// SpyOffset is how far below the top of the viewport a heading may start
// and still count as the current section.
const SpyOffset = 100

type Entry struct {
	ID    string
	Text  string
	Level int
}

// Class is the CSS class of the outline link for this entry.
func (e Entry) Class() string {
	return fmt.Sprintf("toc-link toc-h%d", e.Level)
}

// Generate finds h1, h2 and h3 elements of body in document order, gives
// each the positional id heading-N and returns the rewritten body together
// with the outline. A body without headings comes back unchanged.
func Generate(body string) (string, []Entry, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(body), ctx)
	if err != nil {
		return "", nil, err
	}

	var entries []Entry
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.DataAtom); level > 0 {
				id := fmt.Sprintf("heading-%d", len(entries))
				setAttr(n, "id", id)
				entries = append(entries, Entry{ID: id, Text: strings.TrimSpace(textOf(n)), Level: level})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	if len(entries) == 0 {
		return body, nil, nil
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", nil, err
		}
	}
	return buf.String(), entries, nil
}

// Active returns the index of the last heading whose top offset is at or
// above scrollY+SpyOffset, 0 when none is, and -1 when there are no
// headings at all.
func Active(tops []float64, scrollY float64) int {
	if len(tops) == 0 {
		return -1
	}
	active := 0
	for i, top := range tops {
		if top <= scrollY+SpyOffset {
			active = i
		}
	}
	return active
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	}
	return 0
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textOf(c))
	}
	return sb.String()
}
