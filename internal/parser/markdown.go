package parser

import (
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Block structure
// comes from the AST; line content is the raw source so inline emphasis
// reaches the classifier untouched.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Source, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	w := &mdWriter{src: src}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n)
	}

	return &Source{
		Title: titleFrom(filename),
		Lines: trimTrailingBlanks(w.lines),
	}, nil
}

type mdWriter struct {
	src   []byte
	lines []string
}

// sep reproduces a blank line that separated n from the previous block.
func (w *mdWriter) sep(n ast.Node) {
	if n.HasBlankPreviousLines() {
		w.lines = appendBlank(w.lines)
	}
}

func (w *mdWriter) block(n ast.Node) {
	switch node := n.(type) {
	case *ast.Heading:
		w.sep(n)
		w.lines = append(w.lines, strings.Repeat("#", node.Level)+" "+strings.Join(segmentLines(n, w.src), " "))
	case *ast.List:
		w.sep(n)
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			w.item(item, 0)
		}
	case *ast.ThematicBreak:
		w.lines = appendBlank(w.lines)
	case *ast.Blockquote:
		w.sep(n)
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.block(c)
		}
	default:
		if n.Type() != ast.TypeBlock {
			return
		}
		w.sep(n)
		w.lines = append(w.lines, segmentLines(n, w.src)...)
	}
}

// item writes one list item as "- text", two spaces of indent per level.
func (w *mdWriter) item(item ast.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	first := true
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		if list, ok := c.(*ast.List); ok {
			for li := list.FirstChild(); li != nil; li = li.NextSibling() {
				w.item(li, depth+1)
			}
			continue
		}
		for _, line := range segmentLines(c, w.src) {
			if first {
				w.lines = append(w.lines, indent+"- "+line)
				first = false
				continue
			}
			w.lines = append(w.lines, indent+"  "+line)
		}
	}
}

// segmentLines returns the raw source lines of a block node.
func segmentLines(n ast.Node, src []byte) []string {
	segs := n.Lines()
	out := make([]string, 0, segs.Len())
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		out = append(out, strings.TrimRight(string(seg.Value(src)), " \t\r\n"))
	}
	return out
}
