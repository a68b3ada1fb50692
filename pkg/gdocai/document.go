package gdocai

import (
	"strconv"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

// DocumentFromProto converts a Document AI response into our structure.
// Pages keep the order of the response, which matches the input PDF.
func DocumentFromProto(doc *documentaipb.Document) *Document {
	if doc == nil {
		return NewDocument("", nil)
	}

	pages := make([]*Page, 0, len(doc.GetPages()))
	for _, page := range doc.GetPages() {
		pages = append(pages, pageFromProto(page))
	}

	result := NewDocument(doc.GetText(), pages)
	result.Raw = doc
	return result
}

// pageFromProto collects the lines, tokens and raster of one page.
func pageFromProto(page *documentaipb.Document_Page) *Page {
	result := &Page{
		PageNumber: int(page.GetPageNumber()),
		Lines:      make([]*Line, 0, len(page.GetLines())),
		Tokens:     make([]*Token, 0, len(page.GetTokens())),
	}

	for _, line := range page.GetLines() {
		result.Lines = append(result.Lines, &Line{Layout: layoutFromProto(line.GetLayout())})
	}
	for _, token := range page.GetTokens() {
		result.Tokens = append(result.Tokens, &Token{Layout: layoutFromProto(token.GetLayout())})
	}

	if img := page.GetImage(); img != nil {
		result.Image = &Image{
			Content:  img.GetContent(),
			MimeType: img.GetMimeType(),
			Width:    int(img.GetWidth()),
			Height:   int(img.GetHeight()),
		}
	}

	return result
}

// layoutFromProto flattens a Document AI layout. Only normalized vertices are
// used; pixel vertices depend on the raster resolution.
func layoutFromProto(layout *documentaipb.Document_Page_Layout) Layout {
	var result Layout
	if layout == nil {
		return result
	}

	result.Confidence = widenConfidence(layout.GetConfidence())

	for _, v := range layout.GetBoundingPoly().GetNormalizedVertices() {
		result.Vertices = append(result.Vertices, Vertex{X: float64(v.GetX()), Y: float64(v.GetY())})
	}

	for _, seg := range layout.GetTextAnchor().GetTextSegments() {
		result.Anchor = append(result.Anchor, Segment{
			Start: int(seg.GetStartIndex()),
			End:   int(seg.GetEndIndex()),
		})
	}

	return result
}

// widenConfidence converts the service's float32 confidence to the float64
// with the same shortest decimal form, so a reported 0.9 compares equal to a
// 0.9 threshold instead of as 0.8999999761581421.
func widenConfidence(c float32) float64 {
	f, err := strconv.ParseFloat(strconv.FormatFloat(float64(c), 'g', -1, 32), 64)
	if err != nil {
		return float64(c)
	}
	return f
}
