package pdfocr

import (
	"fmt"
	"strings"

	"github.com/willangley/pdf-sprinkles/pkg/gdocai"
	"github.com/willangley/pdf-sprinkles/pkg/pdfinfo"
)

// Text rendering modes used for the text layer.
const (
	renderFill      = 0
	renderInvisible = 3
)

// Stats counts what went into the text layer.
type Stats struct {
	Pages         int
	Lines         int // lines at or above the confidence threshold
	LinesSkipped  int // lines below the confidence threshold
	Tokens        int
	TokensSkipped int // tokens with no text or no measurable width
	Unencodable   int // runes outside the Basic Multilingual Plane, replaced with '?'
}

// textRun is one token placed on a line.
type textRun struct {
	Dx    float64 // offset from the previous run, or from the line origin
	Scale float64 // horizontal scaling in percent
	Text  string  // in display order
}

// lineObject is the text object written for one line.
type lineObject struct {
	X, Y float64 // baseline origin in PDF space
	Runs []textRun
}

// operators renders the line as a PDF text object. Td moves relative to the
// start of the previous run, so each run's Dx is measured from there.
func (l lineObject) operators(renderMode int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "BT %d Tr 1 0 0 1 %.2f %.2f Tm", renderMode, l.X, l.Y)
	for _, r := range l.Runs {
		fmt.Fprintf(&b, " %.2f 0 Td %.2f Tz (%s) Tj", r.Dx, r.Scale, escapePDFString(encodeUTF16(r.Text)))
	}
	b.WriteString(" ET")
	return b.String()
}

// layoutPage places the qualifying lines of page onto a page of the given
// size. width measures text at the nominal font size.
func layoutPage(
	doc *gdocai.Document,
	page *gdocai.Page,
	box pdfinfo.Mediabox,
	cfg Config,
	width func(string) float64,
	stats *Stats,
) []lineObject {
	var lines []lineObject

	for _, line := range page.Lines {
		if line.Confidence < cfg.MinConfidence {
			stats.LinesSkipped++
			continue
		}
		stats.Lines++

		lb := line.Box()
		top := lb.Top * box.Height
		bottom := lb.Bottom * box.Height
		baseline := top + cfg.Font.BaselineRatio*(bottom-top)

		obj := lineObject{X: lb.Left * box.Width, Y: box.Height - baseline}
		cursor := obj.X

		for _, token := range page.TokensIn(line) {
			text := doc.AnchorText(token.Anchor)
			if text == "" {
				stats.TokensSkipped++
				continue
			}
			shown, unencodable := replaceUnaddressable(visualOrder(text))
			natural := width(shown)
			if natural <= 0 {
				stats.TokensSkipped++
				continue
			}

			tb := token.Box()
			left := tb.Left * box.Width
			obj.Runs = append(obj.Runs, textRun{
				Dx:    left - cursor,
				Scale: 100 * tb.Width() * box.Width / natural,
				Text:  shown,
			})
			cursor = left
			stats.Tokens++
			stats.Unencodable += unencodable
		}

		if len(obj.Runs) > 0 {
			lines = append(lines, obj)
		}
	}

	return lines
}
