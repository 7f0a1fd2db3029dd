package structure

import (
	"github.com/dgallion1/docforge/internal/doctree"
)

// Build folds classified lines into blocks. Every physical line is its own
// block except that consecutive Blank lines collapse into one. Each block
// records the most recent SectionLabel seen before it.
func Build(lines []doctree.ClassifiedLine) []doctree.Block {
	if len(lines) == 0 {
		return nil
	}

	blocks := make([]doctree.Block, 0, len(lines))
	section := ""

	for _, l := range lines {
		if l.Tag == doctree.Blank && len(blocks) > 0 {
			last := &blocks[len(blocks)-1]
			if last.Tag == doctree.Blank {
				last.Lines = append(last.Lines, l.Raw)
				continue
			}
		}

		b := doctree.Block{
			Index:     len(blocks),
			Tag:       l.Tag,
			Level:     l.Level,
			Text:      l.Text,
			Lines:     []string{l.Raw},
			FirstLine: l.Number,
			Section:   section,
		}
		blocks = append(blocks, b)

		if l.Tag == doctree.SectionLabel {
			section = l.Text
		}
	}

	return blocks
}

// Sections lists section labels in document order.
func Sections(blocks []doctree.Block) []string {
	var out []string
	for _, b := range blocks {
		if b.Tag == doctree.SectionLabel {
			out = append(out, b.Text)
		}
	}
	return out
}

// NewDocument builds the block sequence for already classified lines.
func NewDocument(kind doctree.DocKind, lines []doctree.ClassifiedLine) *doctree.Document {
	return &doctree.Document{
		Kind:   kind,
		Lines:  lines,
		Blocks: Build(lines),
	}
}
