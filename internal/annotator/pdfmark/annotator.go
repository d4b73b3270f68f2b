package pdfmark

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"evicite/internal/port"
)

// Annotator writes highlight annotations into a derived PDF. The source
// bytes are read-only; every call renders the complete highlight set onto a
// fresh copy, so re-annotating with the same set is idempotent.
type Annotator struct {
	author string
	conf   *model.Configuration
}

func NewAnnotator(author string) *Annotator {
	return &Annotator{
		author: author,
		conf:   model.NewDefaultConfiguration(),
	}
}

// Annotate returns a copy of src with one highlight annotation per
// rectangle. Multi-rectangle highlights (wrapped lines) become sibling
// annotations sharing the highlight's note, with the rectangle index
// appended to the ID.
func (a *Annotator) Annotate(ctx context.Context, src []byte, highlights []port.Highlight) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(highlights) == 0 {
		out := make([]byte, len(src))
		copy(out, src)
		return out, nil
	}

	byPage := make(map[int][]model.AnnotationRenderer)
	total := 0
	for _, h := range highlights {
		col := &color.SimpleColor{R: float32(h.R), G: float32(h.G), B: float32(h.B)}
		ca := h.Opacity
		for i, r := range h.Rects {
			rect := types.NewRectangle(r.X0, r.Y0, r.X1, r.Y1)
			ann := model.NewHighlightAnnotation(
				*rect,
				0,
				h.Note,
				fmt.Sprintf("%s-%d", h.ID, i),
				"",
				0,
				col,
				0,
				0,
				0,
				a.author,
				nil,
				&ca,
				"",
				"",
				types.QuadPoints{*types.NewQuadLiteralForRect(rect)},
			)
			byPage[r.Page] = append(byPage[r.Page], ann)
			total++
		}
	}

	var buf bytes.Buffer
	if err := api.AddAnnotationsMap(bytes.NewReader(src), &buf, byPage, a.conf); err != nil {
		return nil, fmt.Errorf("pdfmark.Annotate: adding %d annotations: %w", total, err)
	}
	log.Printf("pdfmark.Annotate: rendered %d annotations across %d pages", total, len(byPage))
	return buf.Bytes(), nil
}
