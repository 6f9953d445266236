package scanning

import (
	"strings"
	"unicode"
)

// ExtractCardName picks the most likely card name out of raw OCR text.
//
// The heuristic assumes the card name is the longest clean line in the
// captured region, which holds when the photo framing isolates the name
// band. Lines are trimmed, short lines are dropped, every rune that is
// not a letter or whitespace is stripped (digits, punctuation, OCR noise
// glyphs), and the longest surviving line wins. Ties go to the earliest
// line. Returns "" when nothing survives filtering.
func ExtractCardName(rawText string) string {
	var best string
	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 2 {
			continue
		}
		cleaned := strings.TrimSpace(stripNonLetters(line))
		if len(cleaned) <= 2 {
			continue
		}
		if len(cleaned) > len(best) {
			best = cleaned
		}
	}
	return best
}

// stripNonLetters removes every rune that is not a letter or whitespace
func stripNonLetters(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
