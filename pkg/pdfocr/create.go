package pdfocr

import (
	"bytes"
	"context"
	"fmt"

	"codeberg.org/go-pdf/fpdf"

	"github.com/willangley/pdf-sprinkles/pkg/gdocai"
	"github.com/willangley/pdf-sprinkles/pkg/pdfinfo"
)

// createTextLayer builds a PDF holding only the text layer, one page per
// mediabox, followed by the page from registerRunes. Each layer page's
// TrimBox covers the whole page so the compositor can import it at its true
// size.
func createTextLayer(
	ctx context.Context,
	doc *gdocai.Document,
	mediaboxes []pdfinfo.Mediabox,
	cfg Config,
) ([]byte, Stats, error) {
	var stats Stats

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	if err := useFont(pdf, cfg.Font); err != nil {
		return nil, stats, err
	}

	renderMode := renderInvisible
	if cfg.Debug {
		renderMode = renderFill
	}
	width := func(s string) float64 { return pdf.GetStringWidth(s) }
	shown := make(map[rune]struct{})

	for i, page := range doc.Pages {
		if err := yield(ctx); err != nil {
			return nil, stats, err
		}

		box := mediaboxes[i]
		// The new page reselects the font, emitting the Tf the text objects
		// below rely on.
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: box.Width, Ht: box.Height})
		pdf.SetPageBox("trim", 0, 0, box.Width, box.Height)
		if cfg.Debug {
			pdf.RawWriteStr("1 0 0 rg")
		}

		for _, line := range layoutPage(doc, page, box, cfg, width, &stats) {
			for _, run := range line.Runs {
				for _, r := range run.Text {
					shown[r] = struct{}{}
				}
			}
			pdf.RawWriteStr(line.operators(renderMode))
		}
		stats.Pages++
	}
	registerRunes(pdf, shown)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, stats, fmt.Errorf("failed to generate text layer: %w", err)
	}
	return buf.Bytes(), stats, nil
}
