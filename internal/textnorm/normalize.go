package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer decomposes compatibility forms and strips combining marks,
// so "é" and "é" both fold to "e".
var foldTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// NormalizedText is a folded view of a document with per-byte links back to
// the original text, so spans found in the normalized form can be mapped to
// exact original offsets.
type NormalizedText struct {
	Norm string

	// origStart[i] / origEnd[i] are the original byte range that produced
	// the normalized byte at position i.
	origStart []int
	origEnd   []int
}

// ToOriginal maps a [start,end) range in the normalized text back to the
// corresponding byte range in the original text.
func (n *NormalizedText) ToOriginal(start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > len(n.origStart) {
		end = len(n.origStart)
	}
	if start >= end {
		return 0, 0
	}
	return n.origStart[start], n.origEnd[end-1]
}

// Normalize builds the folded form of a document: whitespace runs collapse
// to a single space, hyphenated line breaks between letters are joined,
// compatibility forms are decomposed, combining marks dropped, and all
// letters lowercased. Offset links to the original text are preserved.
func Normalize(orig string) *NormalizedText {
	n := &NormalizedText{
		origStart: make([]int, 0, len(orig)),
		origEnd:   make([]int, 0, len(orig)),
	}
	var b strings.Builder
	b.Grow(len(orig))

	pendingSpace := false
	spaceStart, spaceEnd := 0, 0
	lastWasLetter := false

	emit := func(s string, oStart, oEnd int) {
		for range []byte(s) {
			n.origStart = append(n.origStart, oStart)
			n.origEnd = append(n.origEnd, oEnd)
		}
		b.WriteString(s)
	}

	i := 0
	for i < len(orig) {
		r, size := utf8.DecodeRuneInString(orig[i:])

		if unicode.IsSpace(r) {
			if !pendingSpace {
				pendingSpace = true
				spaceStart = i
			}
			spaceEnd = i + size
			i += size
			continue
		}

		// Hyphen at a line break joins the surrounding word halves.
		if r == '-' && lastWasLetter {
			if skip, ok := hyphenBreak(orig[i+size:]); ok {
				i += size + skip
				pendingSpace = false
				continue
			}
		}

		if pendingSpace {
			if b.Len() > 0 {
				emit(" ", spaceStart, spaceEnd)
			}
			pendingSpace = false
		}

		folded, _, err := transform.String(foldTransformer, string(r))
		if err != nil {
			folded = string(r)
		}
		if folded != "" {
			emit(strings.ToLower(folded), i, i+size)
		}
		lastWasLetter = unicode.IsLetter(r)
		i += size
	}

	n.Norm = b.String()
	return n
}

// hyphenBreak reports whether s starts with a line break (optionally padded
// with other whitespace) followed by a letter, returning how many bytes of
// whitespace to skip.
func hyphenBreak(s string) (int, bool) {
	sawNewline := false
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == '\n' || r == '\r' {
			sawNewline = true
			i += size
			continue
		}
		if unicode.IsSpace(r) {
			i += size
			continue
		}
		if sawNewline && unicode.IsLetter(r) {
			return i, true
		}
		return 0, false
	}
	return 0, false
}

// NormalizeQuery folds a citation quote with the same pipeline used for
// documents, trimmed of surrounding whitespace.
func NormalizeQuery(q string) string {
	return strings.TrimSpace(Normalize(q).Norm)
}
