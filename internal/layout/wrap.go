package layout

import "strings"

// Wrap breaks text into lines no wider than width, greedily by word. A word
// wider than width on its own is split between runes. Empty text yields no
// lines.
func Wrap(text string, width float64, f Font, m Measurer) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var out []string
	cur := ""
	for _, w := range words {
		if cur != "" {
			cand := cur + " " + w
			if m.TextWidth(cand, f) <= width {
				cur = cand
				continue
			}
			out = append(out, cur)
			cur = ""
		}
		if m.TextWidth(w, f) <= width {
			cur = w
			continue
		}
		pieces := splitRunes(w, width, f, m)
		out = append(out, pieces[:len(pieces)-1]...)
		cur = pieces[len(pieces)-1]
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

// splitRunes cuts an over-long word into pieces that each fit width. Every
// piece holds at least one rune so narrow widths still terminate.
func splitRunes(word string, width float64, f Font, m Measurer) []string {
	var pieces []string
	var cur []rune
	for _, r := range word {
		next := append(cur, r)
		if len(cur) > 0 && m.TextWidth(string(next), f) > width {
			pieces = append(pieces, string(cur))
			cur = []rune{r}
			continue
		}
		cur = next
	}
	if len(cur) > 0 {
		pieces = append(pieces, string(cur))
	}
	return pieces
}
