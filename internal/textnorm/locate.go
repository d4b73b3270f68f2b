package textnorm

import "strings"

// Match is a located span, expressed both in normalized and original
// document offsets. Ambiguous is set when the query occurs more than once;
// the match always points at the first occurrence.
type Match struct {
	Start     int // original text offsets
	End       int
	NormStart int
	NormEnd   int
	Ambiguous bool
}

// Locate finds the first occurrence of an already-normalized query in the
// normalized document. The second return is false when the query is empty
// or absent.
func Locate(doc *NormalizedText, query string) (*Match, bool) {
	if query == "" {
		return nil, false
	}
	idx := strings.Index(doc.Norm, query)
	if idx < 0 {
		return nil, false
	}
	origStart, origEnd := doc.ToOriginal(idx, idx+len(query))
	return &Match{
		Start:     origStart,
		End:       origEnd,
		NormStart: idx,
		NormEnd:   idx + len(query),
		Ambiguous: strings.Index(doc.Norm[idx+1:], query) >= 0,
	}, true
}
