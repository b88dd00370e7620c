package services

import (
	"math"
	"strings"
)

// crude token estimate (~4 chars/token English)
func estimateTokens(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	r := []rune(s)
	return int(math.Ceil(float64(len(r)) / 4.0))
}

// splitIntoChunks greedily packs segments into chunks of at most
// budget estimated tokens. A single segment over the budget still
// becomes its own chunk, whole; segments are never split internally.
func splitIntoChunks(segments []string, budget int) []string {
	if budget <= 0 {
		budget = 2000
	}
	var chunks []string
	var buf strings.Builder
	used := 0

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		chunks = append(chunks, buf.String())
		buf.Reset()
		used = 0
	}

	for _, seg := range segments {
		if strings.TrimSpace(seg) == "" {
			continue
		}
		t := estimateTokens(seg)
		if used > 0 && used+t > budget {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(seg)
		used += t
	}
	flush()
	return chunks
}

// segmentText breaks free text into paragraph segments, falling back
// to the whole text when it has no blank-line structure.
func segmentText(text string) []string {
	parts := strings.Split(text, "\n")
	var segs []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			segs = append(segs, p)
		}
	}
	if len(segs) == 0 && strings.TrimSpace(text) != "" {
		segs = []string{strings.TrimSpace(text)}
	}
	return segs
}
