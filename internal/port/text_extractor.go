package port

import "context"

// TextRun is one positioned fragment of extracted text. Offset is the
// fragment's start position in the document's concatenated original text.
type TextRun struct {
	Text   string
	X      float64
	Y      float64
	W      float64
	H      float64
	Offset int
}

// PageText is the extracted text and layout of a single page.
type PageText struct {
	Number int // 1-based
	Width  float64
	Height float64
	Runs   []TextRun
}

// ExtractOutput is the full extraction result for one document.
type ExtractOutput struct {
	Pages []PageText
}

// Text reconstructs the concatenated original text of the document.
func (e *ExtractOutput) Text() string {
	n := 0
	for _, p := range e.Pages {
		for _, r := range p.Runs {
			n += len(r.Text) + 1
		}
	}
	b := make([]byte, 0, n)
	for _, p := range e.Pages {
		for _, r := range p.Runs {
			b = append(b, r.Text...)
			b = append(b, '\n')
		}
	}
	return string(b)
}

// TextExtractor pulls positioned text out of raw document bytes.
// Image-only documents return domain.ErrNoExtractableText; encrypted ones
// domain.ErrEncryptedDocument.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (*ExtractOutput, error)
}
