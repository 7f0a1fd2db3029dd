package classify

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docforge/internal/doctree"
)

// Input is the line under classification.
type Input struct {
	Index   int    // 0-based position in the document
	Raw     string // Line as received
	Trimmed string // Raw with surrounding whitespace removed
}

func newInput(index int, raw string) Input {
	return Input{Index: index, Raw: raw, Trimmed: strings.TrimSpace(raw)}
}

// Result is what a matching rule assigns.
type Result struct {
	Tag   doctree.Tag
	Level int
	Text  string
}

// Rule is one predicate in the cascade. The first rule that matches wins.
type Rule struct {
	Name  string
	Match func(in Input, w *Window) (Result, bool)
}

const (
	nameHeaderLines   = 3
	contactLines      = 5
	dateRegionLines   = 20
	sectionLabelLimit = 50
)

var (
	headingRe     = regexp.MustCompile(`^(#+)\s(.*)$`)
	boldRe        = regexp.MustCompile(`\*\*.+?\*\*`)
	placeholderRe = regexp.MustCompile(`\*\[([^\]]+)\]\*`)
	bracketRe     = regexp.MustCompile(`\[[^\]]*\]`)
	monthRe       = regexp.MustCompile(`\b(January|February|March|April|May|June|July|August|September|October|November|December)\b`)
	slashDateRe   = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
	ordinalDayRe  = regexp.MustCompile(`\b\d{1,2}(st|nd|rd|th)\b`)
	spaceRunRe    = regexp.MustCompile(`\s+`)
)

var closingPrefixes = []string{"Sincerely,", "Best regards,", "Regards,", "Yours truly,", "Thank you,"}

var employerMarkers = []string{"Ltd", "Inc", "LLC"}

// Rules returns the ordered cascade for kind.
func Rules(kind doctree.DocKind) []Rule {
	if kind == doctree.KindCoverLetter {
		return []Rule{
			blankRule,
			signatureRule,
			closingRule,
			greetingRule,
			dateLineRule,
			headingRule,
			nameHeaderRule,
			contactRule,
			bulletRule,
			sectionLabelRule,
			employerRule,
			summaryRule,
			bodyRule,
		}
	}
	return []Rule{
		blankRule,
		headingRule,
		nameHeaderRule,
		contactRule,
		bulletRule,
		sectionLabelRule,
		employerRule,
		bodyRule,
	}
}

var blankRule = Rule{
	Name: "blank",
	Match: func(in Input, _ *Window) (Result, bool) {
		return Result{Tag: doctree.Blank}, in.Trimmed == ""
	},
}

var headingRule = Rule{
	Name: "heading",
	Match: func(in Input, _ *Window) (Result, bool) {
		m := headingRe.FindStringSubmatch(strings.TrimLeftFunc(in.Raw, unicode.IsSpace))
		if m == nil {
			return Result{}, false
		}
		return Result{Tag: doctree.Heading, Level: len(m[1]), Text: strings.TrimSpace(m[2])}, true
	},
}

var nameHeaderRule = Rule{
	Name: "name_header",
	Match: func(in Input, _ *Window) (Result, bool) {
		if m := placeholderRe.FindStringSubmatch(in.Raw); m != nil {
			return Result{Tag: doctree.NameHeader, Text: strings.TrimSpace(m[1])}, true
		}
		if in.Index < nameHeaderLines && boldRe.MatchString(in.Raw) {
			return Result{Tag: doctree.NameHeader, Text: StripEmphasis(in.Trimmed)}, true
		}
		return Result{}, false
	},
}

var contactRule = Rule{
	Name: "contact_block",
	Match: func(in Input, _ *Window) (Result, bool) {
		if in.Index >= contactLines {
			return Result{}, false
		}
		if !bracketRe.MatchString(in.Raw) && !strings.Contains(in.Raw, "|") {
			return Result{}, false
		}
		return Result{Tag: doctree.ContactBlock, Text: cleanContact(in.Trimmed)}, true
	},
}

var bulletRule = Rule{
	Name: "bullet_item",
	Match: func(in Input, _ *Window) (Result, bool) {
		rest, ok := cutBullet(in.Trimmed)
		if !ok {
			return Result{}, false
		}
		return Result{Tag: doctree.BulletItem, Level: leadingSpace(in.Raw) / 2, Text: rest}, true
	},
}

var sectionLabelRule = Rule{
	Name: "section_label",
	Match: func(in Input, _ *Window) (Result, bool) {
		if !boldRe.MatchString(in.Raw) || utf8.RuneCountInString(in.Trimmed) >= sectionLabelLimit {
			return Result{}, false
		}
		return Result{Tag: doctree.SectionLabel, Text: StripEmphasis(in.Trimmed)}, true
	},
}

// employerRule is a loose heuristic: any dash plus a "19"/"20" substring
// matches, so prose mentioning a year next to a hyphen is caught too.
var employerRule = Rule{
	Name: "employer_or_date",
	Match: func(in Input, _ *Window) (Result, bool) {
		for _, m := range employerMarkers {
			if strings.Contains(in.Raw, m) {
				return Result{Tag: doctree.EmployerOrDateLine, Text: in.Trimmed}, true
			}
		}
		if strings.ContainsAny(in.Raw, "-–—") && (strings.Contains(in.Raw, "20") || strings.Contains(in.Raw, "19")) {
			return Result{Tag: doctree.EmployerOrDateLine, Text: in.Trimmed}, true
		}
		return Result{}, false
	},
}

var greetingRule = Rule{
	Name: "greeting",
	Match: func(in Input, _ *Window) (Result, bool) {
		ok := strings.HasPrefix(in.Trimmed, "Dear ") || strings.HasPrefix(in.Trimmed, "To ")
		return Result{Tag: doctree.Greeting, Text: in.Trimmed}, ok
	},
}

var closingRule = Rule{
	Name: "closing",
	Match: func(in Input, _ *Window) (Result, bool) {
		for _, p := range closingPrefixes {
			if strings.HasPrefix(in.Trimmed, p) {
				return Result{Tag: doctree.Closing, Text: in.Trimmed}, true
			}
		}
		return Result{}, false
	},
}

var signatureRule = Rule{
	Name: "signature",
	Match: func(in Input, w *Window) (Result, bool) {
		prev, ok := w.Prev()
		if !ok || prev.Tag != doctree.Closing || in.Trimmed == "" {
			return Result{}, false
		}
		return Result{Tag: doctree.Signature, Text: StripEmphasis(in.Trimmed)}, true
	},
}

var dateLineRule = Rule{
	Name: "date_line",
	Match: func(in Input, w *Window) (Result, bool) {
		if w.GreetingSeen() || in.Index >= dateRegionLines {
			return Result{}, false
		}
		if monthRe.MatchString(in.Raw) || slashDateRe.MatchString(in.Raw) || ordinalDayRe.MatchString(in.Raw) {
			return Result{Tag: doctree.DateLine, Text: in.Trimmed}, true
		}
		return Result{}, false
	},
}

var summaryRule = Rule{
	Name: "summary_paragraph",
	Match: func(in Input, w *Window) (Result, bool) {
		for _, l := range w.Lines() {
			lower := strings.ToLower(l.Raw)
			if strings.Contains(lower, "summary") || strings.Contains(lower, "profile") {
				return Result{Tag: doctree.SummaryParagraph, Text: in.Trimmed}, true
			}
		}
		return Result{}, false
	},
}

var bodyRule = Rule{
	Name: "body_paragraph",
	Match: func(in Input, _ *Window) (Result, bool) {
		return Result{Tag: doctree.BodyParagraph, Text: in.Trimmed}, true
	},
}

// StripEmphasis removes markdown bold/italic asterisks around and inside s.
func StripEmphasis(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	return strings.TrimSpace(strings.Trim(s, "*"))
}

func cleanContact(s string) string {
	s = strings.NewReplacer("[", "", "]", "", "*", "").Replace(s)
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(s, " "))
}

// cutBullet strips a leading bullet glyph. A line opening with "**" is
// bold text, not a bullet.
func cutBullet(trimmed string) (string, bool) {
	if rest, ok := strings.CutPrefix(trimmed, "•"); ok {
		return strings.TrimSpace(rest), true
	}
	if strings.HasPrefix(trimmed, "**") {
		return "", false
	}
	if trimmed == "" || (trimmed[0] != '-' && trimmed[0] != '*') {
		return "", false
	}
	return strings.TrimSpace(trimmed[1:]), true
}

func leadingSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			break
		}
		n++
	}
	return n
}
