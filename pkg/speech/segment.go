package speech

import "strings"

// isBoundary reports whether r terminates a sentence. The set covers
// ASCII terminators plus their CJK counterparts and line breaks.
func isBoundary(r rune) bool {
	switch r {
	case '.', '!', '?', ';', ':',
		'。', '！', '？', '；', '：', '…', '～',
		'¿', '¡',
		'\r', '\n':
		return true
	}
	return false
}

// SplitSentences splits text into sentence-bounded segments for
// incremental synthesis. Each segment ends at a terminator rune; if the
// tail (or the whole text) contains no terminator it is returned as one
// final segment rather than dropped. Segments are trimmed and empty
// ones discarded.
//
// This is a terminator-pattern heuristic, not language-aware
// segmentation.
func SplitSentences(text string) []string {
	var segs []string
	var b strings.Builder
	prevBoundary := false
	for _, r := range text {
		// Cut when a run of terminators ends, so "..." stays one piece.
		if prevBoundary && !isBoundary(r) {
			if s := strings.TrimSpace(b.String()); s != "" {
				segs = append(segs, s)
			}
			b.Reset()
		}
		b.WriteRune(r)
		prevBoundary = isBoundary(r)
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		segs = append(segs, s)
	}
	return segs
}
