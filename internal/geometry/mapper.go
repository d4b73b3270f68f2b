package geometry

import (
	"sort"
	"strings"

	"evicite/internal/port"
)

// Text run coordinates carry the baseline; highlight boxes extend a little
// below it for descenders and up to the nominal line height above it.
const (
	descentRatio = 0.22
	ascentRatio  = 0.92
)

// Extraction offset bookkeeping can drift slightly from the assembled
// document text, e.g. after line merging. Runs are re-anchored by searching
// this many bytes around their recorded offset.
const driftWindow = 32

// MapSpan projects a byte span of the extracted document text onto page
// coordinates. One rectangle is produced per text run the span overlaps, so
// a passage wrapping across lines or pages yields several rectangles. The
// second return lists the pages touched, ascending.
func MapSpan(layout *port.ExtractOutput, text string, start, end int) ([]port.HighlightRect, []int) {
	if layout == nil || start >= end {
		return nil, nil
	}

	var rects []port.HighlightRect
	pageSet := make(map[int]struct{})

	for _, page := range layout.Pages {
		for _, run := range page.Runs {
			runLen := len(run.Text)
			if runLen == 0 {
				continue
			}
			offset, ok := runOffset(text, run)
			if !ok {
				continue
			}
			ovStart := max(start, offset)
			ovEnd := min(end, offset+runLen)
			if ovStart >= ovEnd {
				continue
			}

			// Interpolate horizontally by byte fraction of the run.
			x0 := run.X + run.W*float64(ovStart-offset)/float64(runLen)
			x1 := run.X + run.W*float64(ovEnd-offset)/float64(runLen)

			rects = append(rects, port.HighlightRect{
				Page: page.Number,
				X0:   x0,
				Y0:   run.Y - run.H*descentRatio,
				X1:   x1,
				Y1:   run.Y + run.H*ascentRatio,
			})
			pageSet[page.Number] = struct{}{}
		}
	}

	pages := make([]int, 0, len(pageSet))
	for p := range pageSet {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return rects, pages
}

// runOffset returns the run's position in the document text, correcting for
// bounded drift. When the recorded offset does not reproduce the run's text,
// the window around it is searched; a run that cannot be re-anchored is
// reported as unusable rather than highlighted at a wrong position.
func runOffset(text string, run port.TextRun) (int, bool) {
	if text == "" {
		return run.Offset, true
	}
	if run.Offset >= 0 && run.Offset+len(run.Text) <= len(text) &&
		text[run.Offset:run.Offset+len(run.Text)] == run.Text {
		return run.Offset, true
	}

	lo := run.Offset - driftWindow
	if lo < 0 {
		lo = 0
	}
	hi := run.Offset + driftWindow + len(run.Text)
	if hi > len(text) {
		hi = len(text)
	}
	if lo >= hi {
		return 0, false
	}
	if idx := strings.Index(text[lo:hi], run.Text); idx >= 0 {
		return lo + idx, true
	}
	return 0, false
}
