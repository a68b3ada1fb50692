package gdocai

import (
	"sort"
	"strings"
)

// NewDocument builds a Document from an already converted text buffer and pages.
func NewDocument(text string, pages []*Page) *Document {
	return &Document{
		Text:  text,
		Pages: pages,
		runes: []rune(text),
	}
}

// AnchorText resolves an anchor against the text buffer by concatenating each
// segment's slice in segment order. Offsets outside the buffer are clamped.
func (d *Document) AnchorText(anchor TextAnchor) string {
	if d == nil || len(anchor) == 0 {
		return ""
	}
	runes := d.runes
	if runes == nil {
		runes = []rune(d.Text)
	}

	total := len(runes)
	result := strings.Builder{}
	for _, seg := range anchor {
		start, end := seg.Start, seg.End
		if start < 0 {
			start = 0
		}
		if end > total {
			end = total
		}
		if end < 0 {
			end = 0
		}
		if start > end {
			start = end
		}
		result.WriteString(string(runes[start:end]))
	}
	return result.String()
}

// TokensIn returns the page tokens whose anchors lie within the line's anchor,
// ordered by anchor start.
func (p *Page) TokensIn(line *Line) []*Token {
	if p == nil || line == nil {
		return nil
	}

	var result []*Token
	for _, token := range p.Tokens {
		if line.Anchor.Contains(token.Anchor) {
			result = append(result, token)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Anchor.Start() < result[j].Anchor.Start()
	})
	return result
}
