package tokenizer

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// Span is the half-open byte range [Start, End) of one pre-token.
type Span struct {
	Start int
	End   int
}

// Len returns the span length in bytes.
func (s Span) Len() int { return s.End - s.Start }

// Segmenter splits plain text (no special tokens) into pre-tokens.
type Segmenter struct {
	re *regexp2.Regexp
}

// Segment returns the regex matches over s as byte spans, in order.
//
// regexp2 reports rune indices. They are mapped back to byte offsets through the
// rune start table of s, which keeps invalid UTF-8 bytes at their original
// positions (each one counts as a single rune on both sides).
func (sg *Segmenter) Segment(s string) ([]Span, error) {
	if s == "" {
		return nil, nil
	}

	offsets := make([]int, 0, len(s)+1)
	for i := range s {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(s))

	var spans []Span
	m, err := sg.re.FindStringMatch(s)
	for m != nil && err == nil {
		if m.Length > 0 {
			spans = append(spans, Span{
				Start: offsets[m.Index],
				End:   offsets[m.Index+m.Length],
			})
		}
		m, err = sg.re.FindNextMatch(m)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: segmentation: %w", ErrEncodingFailed, err)
	}

	return spans, nil
}

// Pieces returns the pre-token strings of s.
func (sg *Segmenter) Pieces(s string) ([]string, error) {
	spans, err := sg.Segment(s)
	if err != nil {
		return nil, err
	}

	pieces := make([]string, len(spans))
	for i, sp := range spans {
		pieces[i] = s[sp.Start:sp.End]
	}
	return pieces, nil
}
