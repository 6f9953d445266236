package scanning

import "strings"

// cleanTranscript normalizes the text returned by a vision model so it
// looks like plain OCR output. Models occasionally wrap the transcript in
// markdown code fences despite being told not to.
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
