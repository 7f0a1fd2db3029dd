// Package classify assigns a semantic tag to every line of a generated
// résumé or cover letter using an ordered rule cascade.
package classify

import (
	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/docforge/internal/doctree"
)

// WindowSize is how many preceding lines a rule may look back on.
const WindowSize = 5

// Window is the bounded lookback state handed to each rule.
type Window struct {
	lines        []doctree.ClassifiedLine // oldest first, at most WindowSize
	greetingSeen bool
}

// Prev returns the immediately preceding line.
func (w *Window) Prev() (doctree.ClassifiedLine, bool) {
	if len(w.lines) == 0 {
		return doctree.ClassifiedLine{}, false
	}
	return w.lines[len(w.lines)-1], true
}

// Lines returns the lookback lines, oldest first.
func (w *Window) Lines() []doctree.ClassifiedLine {
	return w.lines
}

// GreetingSeen reports whether a Greeting has been classified earlier.
func (w *Window) GreetingSeen() bool {
	return w.greetingSeen
}

func (w *Window) push(l doctree.ClassifiedLine) {
	if len(w.lines) == WindowSize {
		copy(w.lines, w.lines[1:])
		w.lines = w.lines[:WindowSize-1]
	}
	w.lines = append(w.lines, l)
	if l.Tag == doctree.Greeting {
		w.greetingSeen = true
	}
}

// Scanner classifies lines one at a time, left to right.
type Scanner struct {
	rules  []Rule
	window Window
	index  int
}

// NewScanner returns a Scanner using the cascade for kind.
func NewScanner(kind doctree.DocKind) *Scanner {
	return &Scanner{
		rules:  Rules(kind),
		window: Window{lines: make([]doctree.ClassifiedLine, 0, WindowSize)},
	}
}

// Next classifies the next line. It always returns a tag.
func (s *Scanner) Next(raw string) doctree.ClassifiedLine {
	in := newInput(s.index, raw)
	out := doctree.ClassifiedLine{Number: s.index, Raw: raw, Tag: doctree.BodyParagraph, Text: in.Trimmed}
	for _, r := range s.rules {
		if res, ok := r.Match(in, &s.window); ok {
			out.Tag = res.Tag
			out.Level = res.Level
			out.Text = res.Text
			break
		}
	}
	s.window.push(out)
	s.index++
	return out
}

// Classify tags every line. The result has the same length and order as lines.
func Classify(lines []string, kind doctree.DocKind) []doctree.ClassifiedLine {
	if len(lines) == 0 {
		return nil
	}
	s := NewScanner(kind)
	out := make([]doctree.ClassifiedLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, s.Next(l))
	}
	return out
}

// ClassifyText normalises text to NFC, splits it into lines and classifies them.
func ClassifyText(text string, kind doctree.DocKind) []doctree.ClassifiedLine {
	return Classify(doctree.SplitLines(norm.NFC.String(text)), kind)
}
