package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fumiama/go-docx"
)

// boldLabelLimit is the longest fully bold paragraph treated as a label.
const boldLabelLimit = 50

// DOCXParser handles .docx files.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var lines []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		lines = append(lines, docxLine(para))
	}

	return &Source{
		Title: titleFrom(filename),
		Lines: trimTrailingBlanks(lines),
	}, nil
}

// docxLine renders one paragraph: heading styles become "#", numbered or
// list-styled paragraphs become "- ", and a short paragraph that is bold throughout is wrapped in
// "**".
func docxLine(para *docx.Paragraph) string {
	text, bold := docxParagraphText(para)
	if text == "" {
		return ""
	}
	style := docxStyle(para)
	if level := docxHeadingLevel(style); level > 0 {
		return strings.Repeat("#", level) + " " + text
	}
	if level, ok := docxListLevel(para, style); ok {
		return strings.Repeat("  ", level) + "- " + text
	}
	if bold && utf8.RuneCountInString(text) < boldLabelLimit {
		return "**" + text + "**"
	}
	return text
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

// docxListLevel reports whether para is a list item and its nesting depth.
func docxListLevel(para *docx.Paragraph, style string) (int, bool) {
	if para.Properties != nil && para.Properties.NumProperties != nil {
		level := 0
		if ilvl := para.Properties.NumProperties.Ilvl; ilvl != nil {
			level, _ = strconv.Atoi(ilvl.Val)
		}
		return max(level, 0), true
	}
	return 0, strings.Contains(strings.ToLower(style), "list")
}

func docxHeadingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	switch s {
	case "title":
		return 1
	case "heading1", "heading2", "heading3", "heading4", "heading5", "heading6":
		return int(s[len(s)-1] - '0')
	}
	return 0
}

// docxParagraphText returns the paragraph text and whether every run that
// carries text is bold.
func docxParagraphText(para *docx.Paragraph) (string, bool) {
	var buf strings.Builder
	bold := true
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		var runText strings.Builder
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				runText.WriteString(t.Text)
			}
		}
		if strings.TrimSpace(runText.String()) != "" && (run.RunProperties == nil || run.RunProperties.Bold == nil) {
			bold = false
		}
		buf.WriteString(runText.String())
	}
	return strings.TrimSpace(buf.String()), bold
}
