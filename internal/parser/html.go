package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Headings, list items and bold runs are
// rewritten in the markdown dialect the classifier reads.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*Source, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	src := &Source{Title: titleFrom(filename)}
	if title := findTitle(doc); title != "" {
		src.Title = title
	}

	w := &htmlWriter{}
	if body := findBody(doc); body != nil {
		w.walk(body)
	} else {
		w.walk(doc)
	}
	src.Lines = trimTrailingBlanks(w.lines)
	return src, nil
}

type htmlWriter struct {
	lines []string
}

func (w *htmlWriter) add(line string) {
	if line != "" {
		w.lines = append(w.lines, line)
	}
}

func (w *htmlWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.add(collapse(n.Data))
		return
	case html.ElementNode:
	default:
		w.children(n)
		return
	}

	switch n.Data {
	case "script", "style", "nav", "head", "noscript", "template":
		return
	case "h1", "h2", "h3", "h4", "h5", "h6":
		if t := inlineText(n); t != "" {
			w.lines = appendBlank(w.lines)
			w.add(strings.Repeat("#", headingLevel(n.Data)) + " " + t)
		}
	case "ul", "ol":
		w.list(n, 0)
	case "li":
		w.item(n, 0)
	case "p", "td", "th", "blockquote", "address", "dt", "dd", "figcaption", "strong", "b":
		w.add(inlineText(n))
	case "hr":
		w.lines = appendBlank(w.lines)
	case "br":
	default:
		w.children(n)
	}
}

func (w *htmlWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *htmlWriter) list(n *html.Node, depth int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "li" {
			w.item(c, depth)
		}
	}
}

// item writes the li's own text, then any nested lists one level deeper.
func (w *htmlWriter) item(n *html.Node, depth int) {
	if t := inlineText(n); t != "" {
		w.add(strings.Repeat("  ", depth) + "- " + t)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
			w.list(c, depth+1)
		}
	}
}

// inlineText flattens n to one line, keeping bold and italic as markdown
// emphasis and skipping nested lists.
func inlineText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
			return
		case n.Type != html.ElementNode:
		case n.Data == "ul" || n.Data == "ol" || n.Data == "script" || n.Data == "style":
			return
		case n.Data == "br":
			buf.WriteByte(' ')
			return
		case n.Data == "strong" || n.Data == "b":
			buf.WriteString("**")
			defer buf.WriteString("**")
		case n.Data == "em" || n.Data == "i":
			buf.WriteString("*")
			defer buf.WriteString("*")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return collapse(buf.String())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
