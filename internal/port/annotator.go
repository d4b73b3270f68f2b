package port

import "context"

// HighlightRect is one rectangle to highlight, in PDF user space
// (origin bottom-left) on a specific page.
type HighlightRect struct {
	Page int // 1-based
	X0   float64
	Y0   float64
	X1   float64
	Y1   float64
}

// Highlight is one visual mark: the rectangles of a single resolved span
// plus its style. ID must be deterministic for the (source, span, style)
// so re-annotation stays idempotent.
type Highlight struct {
	ID      string
	Rects   []HighlightRect
	R, G, B float64
	Opacity float64
	Note    string
}

// Annotator renders highlight annotations into a derived copy of the
// document. The input bytes are never mutated; the full highlight set is
// rendered from the pristine source every time.
type Annotator interface {
	Annotate(ctx context.Context, src []byte, highlights []Highlight) ([]byte, error)
}
