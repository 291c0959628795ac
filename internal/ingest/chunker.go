package ingest

import (
	"strings"
	"unicode/utf8"
)

// Section is a labeled span of document text produced by header matching.
type Section struct {
	Label string
	Text  string
}

// minSectionChars filters out header matches with no real body under them.
const minSectionChars = 20

// SplitSections scans the text line by line for canonical section headers.
// A line equal to a header (after trimming, lowercasing, and stripping a
// trailing colon) opens a section that collects every following line until
// the next header. Text before the first header is discarded. Returns nil
// when no header matched, signalling the fixed-size fallback.
func SplitSections(text string, headers []string) []Section {
	headerSet := make(map[string]bool, len(headers))
	for _, h := range headers {
		headerSet[h] = true
	}

	var sections []Section
	current := -1

	for _, line := range strings.Split(text, "\n") {
		clean := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(line)), ":")
		if headerSet[clean] {
			sections = append(sections, Section{Label: clean})
			current = len(sections) - 1
			continue
		}
		if current >= 0 {
			sections[current].Text += line + "\n"
		}
	}

	var kept []Section
	for _, s := range sections {
		s.Text = strings.TrimSpace(s.Text)
		if len(s.Text) > minSectionChars {
			kept = append(kept, s)
		}
	}
	return kept
}

// breakWindow is the fraction of the window in which Chunk looks backward
// for a sentence boundary before cutting.
const breakWindow = 5 // last 1/5th, i.e. 20%

// Chunk slides a window of the given size across the text with the given
// overlap between consecutive chunks. For every window except the last, the
// right edge is pulled back to the nearest sentence end (./!/?/؟/۔ followed
// by whitespace, or a blank line) within the last 20% of the window, so cuts
// land between sentences where possible. Cuts and restart points always land
// on rune boundaries, so multi-byte text never splits mid-rune. The next
// window starts overlap bytes before the previous cut, guaranteeing at least
// that much redundancy across boundaries.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 || len(text) == 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}

	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}

		end = snapToRuneStart(text, end)
		if end <= start {
			_, width := utf8.DecodeRuneInString(text[start:])
			end = start + width
		}

		if cut := sentenceBreak(text, start+size-size/breakWindow, end); cut > start {
			end = cut
		}

		chunks = append(chunks, text[start:end])

		next := snapToRuneStart(text, end-overlap)
		if next <= start {
			// Degenerate overlap; never stall.
			next = end
		}
		start = next
	}

	return chunks
}

// snapToRuneStart walks i back to the start of the rune containing text[i].
func snapToRuneStart(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// sentenceBreak finds the rightmost sentence boundary in text[lo:hi) and
// returns the index just past it, or 0 if none exists in that range. hi must
// be a rune boundary; the returned index is one too.
func sentenceBreak(text string, lo, hi int) int {
	if lo < 0 {
		lo = 0
	}
	for i := hi; i > lo; {
		r, width := utf8.DecodeLastRuneInString(text[:i])
		if width == 0 {
			break
		}
		i -= width
		switch r {
		case '.', '!', '?', '؟', '۔':
			if i+width < len(text) && isSpace(text[i+width]) {
				return i + width
			}
		case '\n':
			// A blank line is also a safe cut point.
			if i+width < len(text) && text[i+width] == '\n' {
				return i + width
			}
		}
	}
	return 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
