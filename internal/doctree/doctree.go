package doctree

import (
	"fmt"
	"strings"
)

// DocKind selects which classification rules apply to a document.
type DocKind string

const (
	KindResume      DocKind = "resume"
	KindCoverLetter DocKind = "cover_letter"
)

// ParseKind maps user input to a DocKind. Empty input means resume.
func ParseKind(s string) (DocKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "resume":
		return KindResume, nil
	case "cover_letter", "coverletter", "cover-letter":
		return KindCoverLetter, nil
	default:
		return "", fmt.Errorf("unknown document kind: %q", s)
	}
}

// Tag is the semantic role assigned to a single line.
type Tag string

const (
	Blank              Tag = "blank"
	Heading            Tag = "heading"
	NameHeader         Tag = "name_header"
	ContactBlock       Tag = "contact_block"
	Greeting           Tag = "greeting"
	Closing            Tag = "closing"
	Signature          Tag = "signature"
	BulletItem         Tag = "bullet_item"
	SectionLabel       Tag = "section_label"
	EmployerOrDateLine Tag = "employer_or_date_line"
	DateLine           Tag = "date_line"
	SummaryParagraph   Tag = "summary_paragraph"
	BodyParagraph      Tag = "body_paragraph"
)

// ClassifiedLine is one source line with its assigned tag.
type ClassifiedLine struct {
	Number int    `json:"number" yaml:"number"` // 0-based source line
	Raw    string `json:"raw" yaml:"raw"`       // Line exactly as received
	Text   string `json:"text" yaml:"text"`     // Display text with tag markers stripped
	Tag    Tag    `json:"tag" yaml:"tag"`
	Level  int    `json:"level,omitempty" yaml:"level,omitempty"` // Heading level or bullet indent
}

// Block is a contiguous run of lines sharing one rendering treatment.
type Block struct {
	Index     int      `json:"index" yaml:"index"`
	Tag       Tag      `json:"tag" yaml:"tag"`
	Level     int      `json:"level,omitempty" yaml:"level,omitempty"`
	Text      string   `json:"text" yaml:"text"`
	Lines     []string `json:"lines" yaml:"lines"`
	FirstLine int      `json:"first_line" yaml:"first_line"`
	Section   string   `json:"section,omitempty" yaml:"section,omitempty"` // Last SectionLabel seen before this block
}

// Document is the full result of classifying and structuring one text.
type Document struct {
	Kind   DocKind          `json:"kind" yaml:"kind"`
	Lines  []ClassifiedLine `json:"-" yaml:"-"`
	Blocks []Block          `json:"blocks" yaml:"blocks"`
}

// SplitLines breaks text into lines on \n, \r\n or \r. A single trailing
// line break does not produce an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
