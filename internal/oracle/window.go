package oracle

import (
	"unicode/utf8"

	"evicite/internal/port"
)

const (
	// Excerpt windows keep oracle requests bounded on large documents.
	windowSize    = 8000
	windowOverlap = 500
)

// Windows slices a document into the excerpts the oracle will be consulted
// with, in the order they should be tried. With a page hint, the window
// covering that page and its neighbors comes first; the remaining chunks
// follow so a wrong hint still lets the search cover the whole document.
func Windows(layout *port.ExtractOutput, text string, pageHint *int) []string {
	var out []string
	if pageHint != nil {
		if w := pageWindow(layout, *pageHint); w != "" {
			out = append(out, w)
		}
	}
	return append(out, chunk(text)...)
}

// pageWindow gathers the text of a page and its immediate neighbors.
func pageWindow(layout *port.ExtractOutput, page int) string {
	if layout == nil {
		return ""
	}
	var b []byte
	for _, p := range layout.Pages {
		if p.Number < page-1 || p.Number > page+1 {
			continue
		}
		for _, r := range p.Runs {
			b = append(b, r.Text...)
			b = append(b, '\n')
		}
	}
	return string(b)
}

// chunk splits text into overlapping windows on rune boundaries.
func chunk(text string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= windowSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + windowSize
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		for end > start && !utf8.RuneStart(text[end]) {
			end--
		}
		chunks = append(chunks, text[start:end])

		next := end - windowOverlap
		if next <= start {
			next = end
		}
		for next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		start = next
	}
	return chunks
}
