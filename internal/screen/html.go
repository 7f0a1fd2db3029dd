package screen

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/docforge/internal/doctree"
)

var md = goldmark.New()

// WriteHTML serialises nodes as a single <div class="document"> fragment.
func WriteHTML(w io.Writer, nodes []Node) error {
	root := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "class", Val: "document"}},
	}
	for _, n := range nodes {
		root.AppendChild(toHTML(n))
	}
	return html.Render(w, root)
}

// HTML is WriteHTML into a string.
func HTML(nodes []Node) string {
	var sb strings.Builder
	_ = WriteHTML(&sb, nodes)
	return sb.String()
}

func toHTML(n Node) *html.Node {
	el := element(n.Element, n.Class, n.Style)
	if n.Section != "" {
		el.Attr = append(el.Attr, html.Attribute{Key: "data-section", Val: n.Section})
	}

	switch n.Tag {
	case doctree.BulletItem:
		dot := element("span", "dot", "")
		dot.AppendChild(&html.Node{Type: html.TextNode, Data: "•"})
		body := element("span", "text", "")
		appendInline(body, n.Text)
		el.AppendChild(dot)
		el.AppendChild(body)
	case doctree.Blank:
	default:
		appendInline(el, n.Text)
	}
	return el
}

func element(tag, class, style string) *html.Node {
	el := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	if class != "" {
		el.Attr = append(el.Attr, html.Attribute{Key: "class", Val: class})
	}
	if style != "" {
		el.Attr = append(el.Attr, html.Attribute{Key: "style", Val: style})
	}
	return el
}

// appendInline renders markdown emphasis in text as inline HTML under parent.
// Text that goldmark would turn into anything other than one paragraph is
// written verbatim.
func appendInline(parent *html.Node, text string) {
	if text == "" {
		return
	}
	if !strings.ContainsAny(text, "*_`[") {
		parent.AppendChild(&html.Node{Type: html.TextNode, Data: text})
		return
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		parent.AppendChild(&html.Node{Type: html.TextNode, Data: text})
		return
	}
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	frag, err := html.ParseFragment(&buf, ctx)
	if err != nil {
		parent.AppendChild(&html.Node{Type: html.TextNode, Data: text})
		return
	}

	var para *html.Node
	for _, f := range frag {
		if f.Type == html.TextNode && strings.TrimSpace(f.Data) == "" {
			continue
		}
		if para != nil || f.Type != html.ElementNode || f.DataAtom != atom.P {
			parent.AppendChild(&html.Node{Type: html.TextNode, Data: text})
			return
		}
		para = f
	}
	if para == nil {
		parent.AppendChild(&html.Node{Type: html.TextNode, Data: text})
		return
	}
	for c := para.FirstChild; c != nil; {
		next := c.NextSibling
		para.RemoveChild(c)
		parent.AppendChild(c)
		c = next
	}
}
