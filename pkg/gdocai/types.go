package gdocai

import (
	"math"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

// Document is the recognized form of an uploaded PDF.
// Every line and token addresses its text through anchors into Text.
type Document struct {
	Raw   *documentaipb.Document // Original Document AI response, kept for debug dumps
	Text  string                 // Text buffer shared by all pages
	Pages []*Page                // Pages in input order

	runes []rune
}

// Page is a single recognized page.
type Page struct {
	PageNumber int      // Page number reported by Document AI (1-based)
	Lines      []*Line  // Lines in reading order
	Tokens     []*Token // Tokens in reading order
	Image      *Image   // Rendered page raster
}

// Image is the page raster Document AI returns with each page.
type Image struct {
	Content  []byte
	MimeType string
	Width    int // pixels
	Height   int // pixels
}

// Line is a line of text on a page.
type Line struct {
	Layout
}

// Token is a word or symbol within a line.
type Token struct {
	Layout
}

// Layout is the geometry, text reference and confidence shared by lines and tokens.
type Layout struct {
	Vertices   []Vertex   // Bounding polygon, normalized to [0,1]
	Anchor     TextAnchor // Reference into Document.Text
	Confidence float64
}

// Vertex is a normalized polygon corner. Y grows downward.
type Vertex struct {
	X float64
	Y float64
}

// Segment is a half-open range of code points in Document.Text.
type Segment struct {
	Start int
	End   int
}

// TextAnchor references one or more ranges of the text buffer.
type TextAnchor []Segment

// Start is the first segment's start offset.
func (a TextAnchor) Start() int {
	if len(a) == 0 {
		return 0
	}
	return a[0].Start
}

// End is the last segment's end offset.
func (a TextAnchor) End() int {
	if len(a) == 0 {
		return 0
	}
	return a[len(a)-1].End
}

// Contains reports whether other lies entirely within a.
// Empty anchors contain nothing and are contained by nothing.
func (a TextAnchor) Contains(other TextAnchor) bool {
	if len(a) == 0 || len(other) == 0 {
		return false
	}
	return other.Start() >= a.Start() && other.End() <= a.End()
}

// Box is an axis-aligned rectangle in normalized image coordinates.
type Box struct {
	Left   float64
	Top    float64 // smallest y
	Right  float64
	Bottom float64 // largest y
}

// Width of the box.
func (b Box) Width() float64 { return b.Right - b.Left }

// Height of the box.
func (b Box) Height() float64 { return b.Bottom - b.Top }

// Box returns the bounding rectangle of the layout's polygon.
func (l Layout) Box() Box {
	if len(l.Vertices) == 0 {
		return Box{}
	}
	b := Box{
		Left:   math.Inf(1),
		Top:    math.Inf(1),
		Right:  math.Inf(-1),
		Bottom: math.Inf(-1),
	}
	for _, v := range l.Vertices {
		b.Left = math.Min(b.Left, v.X)
		b.Right = math.Max(b.Right, v.X)
		b.Top = math.Min(b.Top, v.Y)
		b.Bottom = math.Max(b.Bottom, v.Y)
	}
	return b
}
