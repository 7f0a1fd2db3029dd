package classify

import (
	"strings"

	"github.com/dgallion1/docforge/internal/doctree"
)

// headerScanLines bounds how far into the document the header is looked for.
const headerScanLines = 10

// Header is the candidate (or sender) identity shown at the top of a page.
type Header struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Contact string `json:"contact,omitempty" yaml:"contact,omitempty"`
}

// ExtractHeader picks the name and contact line from the first lines of a
// classified document. Cover letters fall back to the signature for the name.
func ExtractHeader(lines []doctree.ClassifiedLine, kind doctree.DocKind) Header {
	var h Header
	var contacts []string
	for i, l := range lines {
		if i >= headerScanLines {
			break
		}
		switch l.Tag {
		case doctree.NameHeader:
			if h.Name == "" {
				h.Name = l.Text
			}
		case doctree.ContactBlock:
			if l.Text != "" {
				contacts = append(contacts, l.Text)
			}
		}
	}
	h.Contact = strings.Join(contacts, " | ")

	if h.Name == "" && kind == doctree.KindCoverLetter {
		for _, l := range lines {
			if l.Tag == doctree.Signature {
				h.Name = l.Text
				break
			}
		}
	}
	return h
}
