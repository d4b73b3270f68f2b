package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"evicite/internal/domain"
	"evicite/internal/port"
)

// Fragments on the same line can be separated by small kerning gaps; a gap
// wider than this fraction of the font size becomes a space.
const spaceGapRatio = 0.3

// Same-line detection tolerance in points.
const lineTolerance = 2.0

// Extractor reads positioned text out of PDF bytes.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract pulls every page's text fragments, merged into per-line runs with
// offsets into the concatenated document text.
func (e *Extractor) Extract(ctx context.Context, data []byte) (out *port.ExtractOutput, err error) {
	// The underlying parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("pdftext.Extract: recovered parser panic: %v", r)
			out = nil
			err = domain.ErrCorruptedDocument
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "encrypt") {
			return nil, domain.ErrEncryptedDocument
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptedDocument, err)
	}

	out = &port.ExtractOutput{}
	offset := 0
	sawText := false

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		width, height := mediaBox(page)
		pt := port.PageText{Number: pageNum, Width: width, Height: height}

		for _, run := range mergeLines(page.Content().Text) {
			run.Offset = offset
			offset += len(run.Text) + 1
			pt.Runs = append(pt.Runs, run)
			sawText = true
		}
		out.Pages = append(out.Pages, pt)
	}

	if !sawText {
		return nil, domain.ErrNoExtractableText
	}
	return out, nil
}

// mergeLines groups raw glyph fragments into one run per visual line,
// ordered top to bottom then left to right.
func mergeLines(texts []pdf.Text) []port.TextRun {
	if len(texts) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if diff := sorted[i].Y - sorted[j].Y; diff > lineTolerance || diff < -lineTolerance {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var runs []port.TextRun
	var b strings.Builder
	var cur port.TextRun
	var lastEnd float64
	open := false

	flush := func() {
		if !open {
			return
		}
		cur.Text = b.String()
		cur.W = lastEnd - cur.X
		if strings.TrimSpace(cur.Text) != "" {
			runs = append(runs, cur)
		}
		b.Reset()
		open = false
	}

	for _, t := range sorted {
		if t.S == "" {
			continue
		}
		sameLine := open && cur.Y-t.Y <= lineTolerance && t.Y-cur.Y <= lineTolerance
		if !sameLine {
			flush()
			cur = port.TextRun{X: t.X, Y: t.Y, H: t.FontSize}
			open = true
		} else if gap := t.X - lastEnd; gap > t.FontSize*spaceGapRatio && !strings.HasSuffix(b.String(), " ") {
			b.WriteByte(' ')
		}
		if t.FontSize > cur.H {
			cur.H = t.FontSize
		}
		b.WriteString(t.S)
		lastEnd = t.X + t.W
	}
	flush()
	return runs
}

// mediaBox resolves the page dimensions, walking up the page tree for
// inherited values. Letter size is the fallback.
func mediaBox(page pdf.Page) (float64, float64) {
	v := page.V
	for !v.IsNull() {
		if box := v.Key("MediaBox"); !box.IsNull() && box.Len() == 4 {
			w := box.Index(2).Float64() - box.Index(0).Float64()
			h := box.Index(3).Float64() - box.Index(1).Float64()
			if w > 0 && h > 0 {
				return w, h
			}
		}
		v = v.Key("Parent")
	}
	return 612, 792
}
