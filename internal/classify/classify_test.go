package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docforge/internal/doctree"
)

func tags(lines []doctree.ClassifiedLine) []doctree.Tag {
	out := make([]doctree.Tag, len(lines))
	for i, l := range lines {
		out[i] = l.Tag
	}
	return out
}

func TestClassify_ResumeScenario(t *testing.T) {
	lines := ClassifyText("# Summary\nExperienced engineer.\n\n- Built systems\n- Led teams\n", doctree.KindResume)
	require.Len(t, lines, 5)

	assert.Equal(t, []doctree.Tag{
		doctree.Heading,
		doctree.BodyParagraph,
		doctree.Blank,
		doctree.BulletItem,
		doctree.BulletItem,
	}, tags(lines))
	assert.Equal(t, "Summary", lines[0].Text)
	assert.Equal(t, 1, lines[0].Level)
	assert.Equal(t, "Experienced engineer.", lines[1].Text)
	assert.Equal(t, "Built systems", lines[3].Text)
	assert.Equal(t, "Led teams", lines[4].Text)
	assert.Equal(t, 0, lines[3].Level)
}

func TestClassify_EmptyInput(t *testing.T) {
	assert.Empty(t, ClassifyText("", doctree.KindResume))
	assert.Empty(t, Classify(nil, doctree.KindCoverLetter))
}

func TestClassify_SameLengthAndOrder(t *testing.T) {
	in := []string{"", "  ", "plain", "**Bold**", "- item", "# H"}
	out := Classify(in, doctree.KindResume)
	require.Len(t, out, len(in))
	for i, l := range out {
		assert.Equal(t, i, l.Number)
		assert.Equal(t, in[i], l.Raw)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	text := "**Jane Doe**\n[jane@example.com] | [555-0100]\n\n**Experience**\nAcme Inc - 2019-2023\n- Shipped things\n  - Nested detail\n"
	a := ClassifyText(text, doctree.KindResume)
	b := ClassifyText(text, doctree.KindResume)
	assert.Equal(t, a, b)
}

func TestClassify_Headings(t *testing.T) {
	tests := []struct {
		line  string
		level int
		text  string
	}{
		{"# Summary", 1, "Summary"},
		{"## Experience", 2, "Experience"},
		{"### Skills & Tools", 3, "Skills & Tools"},
		{"  ## Indented", 2, "Indented"},
	}
	for _, tt := range tests {
		// Pad past the name/contact region so position rules cannot interfere.
		lines := Classify([]string{"", "", "", "", "", tt.line}, doctree.KindResume)
		got := lines[5]
		assert.Equal(t, doctree.Heading, got.Tag, tt.line)
		assert.Equal(t, tt.level, got.Level, tt.line)
		assert.Equal(t, tt.text, got.Text, tt.line)
	}
}

func TestClassify_HashWithoutSpaceIsNotHeading(t *testing.T) {
	lines := Classify([]string{"", "", "", "", "", "#hashtag"}, doctree.KindResume)
	assert.Equal(t, doctree.BodyParagraph, lines[5].Tag)
}

func TestClassify_NameHeader(t *testing.T) {
	lines := ClassifyText("**Jane Doe**\nSoftware Engineer", doctree.KindResume)
	assert.Equal(t, doctree.NameHeader, lines[0].Tag)
	assert.Equal(t, "Jane Doe", lines[0].Text)

	lines = ClassifyText("intro\n\n\n\n\n\n*[Jane Doe]*", doctree.KindResume)
	assert.Equal(t, doctree.NameHeader, lines[6].Tag)
	assert.Equal(t, "Jane Doe", lines[6].Text)
}

func TestClassify_BoldAfterFirstThreeLinesIsSectionLabel(t *testing.T) {
	lines := ClassifyText("Name\nTitle\nCity\n\n\n**Experience**\n**A much longer bolded sentence that goes past fifty characters**", doctree.KindResume)
	assert.Equal(t, doctree.SectionLabel, lines[5].Tag)
	assert.Equal(t, "Experience", lines[5].Text)
	assert.Equal(t, doctree.BodyParagraph, lines[6].Tag)
}

func TestClassify_ContactBlock(t *testing.T) {
	lines := ClassifyText("**Jane Doe**\n[jane@example.com] | [555-0100]\nlinkedin.com/in/jane | Berlin", doctree.KindResume)
	assert.Equal(t, doctree.ContactBlock, lines[1].Tag)
	assert.Equal(t, "jane@example.com | 555-0100", lines[1].Text)
	assert.Equal(t, doctree.ContactBlock, lines[2].Tag)

	// Past the first five lines the same shape is no longer contact info.
	lines = ClassifyText("a\nb\nc\nd\ne\nfoo | bar", doctree.KindResume)
	assert.Equal(t, doctree.BodyParagraph, lines[5].Tag)
}

func TestClassify_Bullets(t *testing.T) {
	tests := []struct {
		line   string
		indent int
		text   string
	}{
		{"- Built systems", 0, "Built systems"},
		{"* Led teams", 0, "Led teams"},
		{"• Mentored juniors", 0, "Mentored juniors"},
		{"  - Nested", 1, "Nested"},
		{"    - Deeper", 2, "Deeper"},
		{"   • Odd spaces", 1, "Odd spaces"},
		{"\t\t- Tabs", 1, "Tabs"},
		{"-Led teams", 0, "Led teams"},
		{"*Shipped", 0, "Shipped"},
		{"•Built", 0, "Built"},
	}
	for _, tt := range tests {
		lines := Classify([]string{"", "", "", "", "", tt.line}, doctree.KindResume)
		got := lines[5]
		assert.Equal(t, doctree.BulletItem, got.Tag, tt.line)
		assert.Equal(t, tt.indent, got.Level, tt.line)
		assert.Equal(t, tt.text, got.Text, tt.line)
	}
}

func TestClassify_DoubleAsteriskIsNotBullet(t *testing.T) {
	lines := Classify([]string{"", "", "", "", "", "**Projects**"}, doctree.KindResume)
	assert.Equal(t, doctree.SectionLabel, lines[5].Tag)
}

func TestClassify_BulletBeatsEmployer(t *testing.T) {
	lines := Classify([]string{"", "", "", "", "", "- Migrated billing in 2020 - on time"}, doctree.KindResume)
	assert.Equal(t, doctree.BulletItem, lines[5].Tag)
}

func TestClassify_EmployerOrDateLine(t *testing.T) {
	for _, line := range []string{
		"Acme Inc",
		"Widgets Ltd, London",
		"Foo LLC",
		"Globex — 2019–2023",
		"Initech - 2015-2018",
	} {
		lines := Classify([]string{"", "", "", "", "", line}, doctree.KindResume)
		assert.Equal(t, doctree.EmployerOrDateLine, lines[5].Tag, line)
	}

	// Known false positive of the heuristic.
	lines := Classify([]string{"", "", "", "", "", "Cut costs by 20% year-over-year"}, doctree.KindResume)
	assert.Equal(t, doctree.EmployerOrDateLine, lines[5].Tag)
}

func TestClassify_ResumeHasNoSummaryParagraph(t *testing.T) {
	lines := ClassifyText("# Professional Summary\nSeasoned engineer.", doctree.KindResume)
	assert.Equal(t, doctree.BodyParagraph, lines[1].Tag)
}

func TestClassify_CoverLetter(t *testing.T) {
	text := strings.Join([]string{
		"**John Smith**",
		"[john@example.com] | [555-0199]",
		"March 3, 2024",
		"",
		"Dear Hiring Manager,",
		"I am writing to apply for the role.",
		"My profile fits well.",
		"It shows in my work.",
		"",
		"Sincerely,",
		"John Smith",
	}, "\n") + "\n"

	lines := ClassifyText(text, doctree.KindCoverLetter)
	require.Len(t, lines, 11)
	assert.Equal(t, []doctree.Tag{
		doctree.NameHeader,
		doctree.ContactBlock,
		doctree.DateLine,
		doctree.Blank,
		doctree.Greeting,
		doctree.BodyParagraph,
		doctree.BodyParagraph,
		doctree.SummaryParagraph,
		doctree.Blank,
		doctree.Closing,
		doctree.Signature,
	}, tags(lines))
	assert.Equal(t, "John Smith", lines[10].Text)
}

func TestClassify_SignatureRequiresImmediateClosing(t *testing.T) {
	lines := ClassifyText("Dear Ann,\nBody.\nBest regards,\n\nJohn", doctree.KindCoverLetter)
	assert.Equal(t, doctree.Closing, lines[2].Tag)
	assert.Equal(t, doctree.Blank, lines[3].Tag)
	assert.Equal(t, doctree.BodyParagraph, lines[4].Tag)
}

func TestClassify_DateLineOnlyBeforeGreeting(t *testing.T) {
	lines := ClassifyText("12/05/2024\nDear Team,\nSince the 3rd of June I have led releases.", doctree.KindCoverLetter)
	assert.Equal(t, doctree.DateLine, lines[0].Tag)
	assert.Equal(t, doctree.Greeting, lines[1].Tag)
	assert.Equal(t, doctree.BodyParagraph, lines[2].Tag)
}

func TestClassify_DateLineOnlyInHeaderRegion(t *testing.T) {
	in := make([]string, 25)
	for i := range in {
		in[i] = "filler"
	}
	in[22] = "June 1st"
	lines := Classify(in, doctree.KindCoverLetter)
	assert.Equal(t, doctree.BodyParagraph, lines[22].Tag)
}

func TestClassify_ResumeIgnoresCoverLetterRules(t *testing.T) {
	lines := ClassifyText("a\nb\nc\nd\ne\nDear Sir,\nSincerely,\nJohn", doctree.KindResume)
	assert.Equal(t, []doctree.Tag{doctree.BodyParagraph, doctree.BodyParagraph, doctree.BodyParagraph}, tags(lines[5:]))
}

func TestRules_Order(t *testing.T) {
	names := func(rs []Rule) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.Name
		}
		return out
	}
	assert.Equal(t, []string{
		"blank", "heading", "name_header", "contact_block", "bullet_item",
		"section_label", "employer_or_date", "body_paragraph",
	}, names(Rules(doctree.KindResume)))

	cl := names(Rules(doctree.KindCoverLetter))
	assert.Equal(t, "blank", cl[0])
	assert.Equal(t, []string{"signature", "closing", "greeting", "date_line"}, cl[1:5])
	assert.Equal(t, "body_paragraph", cl[len(cl)-1])
}

func TestWindow_KeepsLastFive(t *testing.T) {
	s := NewScanner(doctree.KindResume)
	for _, l := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		s.Next(l)
	}
	got := s.window.Lines()
	require.Len(t, got, WindowSize)
	assert.Equal(t, "3", got[0].Raw)
	assert.Equal(t, "7", got[4].Raw)
}

func TestExtractHeader(t *testing.T) {
	lines := ClassifyText("**Jane Doe**\n[jane@example.com] | [555-0100]\nBerlin | Remote\n\n**Experience**", doctree.KindResume)
	h := ExtractHeader(lines, doctree.KindResume)
	assert.Equal(t, "Jane Doe", h.Name)
	assert.Equal(t, "jane@example.com | 555-0100 | Berlin | Remote", h.Contact)
}

func TestExtractHeader_CoverLetterFallsBackToSignature(t *testing.T) {
	lines := ClassifyText("Dear Team,\nThanks.\nSincerely,\nJohn Smith", doctree.KindCoverLetter)
	h := ExtractHeader(lines, doctree.KindCoverLetter)
	assert.Equal(t, "John Smith", h.Name)

	resume := ExtractHeader(ClassifyText("no name here", doctree.KindResume), doctree.KindResume)
	assert.Empty(t, resume.Name)
}

func TestClassifyText_NormalisesUnicode(t *testing.T) {
	// "é" written as e + combining acute accent.
	lines := ClassifyText("**Rene\u0301**", doctree.KindResume)
	assert.Equal(t, "Ren\u00e9", lines[0].Text)
}
