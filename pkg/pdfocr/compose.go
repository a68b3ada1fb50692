package pdfocr

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"

	"github.com/willangley/pdf-sprinkles/pkg/gdocai"
)

// composePages lays each page raster under the matching text-layer page.
// Output pages take the size of the text layer's TrimBox.
func composePages(
	ctx context.Context,
	doc *gdocai.Document,
	textLayer []byte,
	title string,
	cfg Config,
) (out []byte, err error) {
	// gofpdi reports malformed input by panicking.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to import text layer: %v", r)
		}
	}()

	logger := cfg.logger()

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	if title != "" {
		pdf.SetTitle(title, true)
	}

	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(textLayer))

	for i, page := range doc.Pages {
		if err := yield(ctx); err != nil {
			return nil, err
		}

		pageno := i + 1
		tpl := importer.ImportPageFromStream(pdf, &rs, pageno, "/TrimBox")
		size := importer.GetPageSizes()[pageno]["/TrimBox"]
		w, h := size["w"], size["h"]
		if w <= 0 || h <= 0 {
			return nil, fmt.Errorf("text layer page %d has no trim box", pageno)
		}

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		if page.Image == nil || len(page.Image.Content) == 0 {
			logger.Warn().Int("page", pageno).Msg("page has no image, emitting text layer only")
		} else if err := drawRaster(pdf, fmt.Sprintf("page%d", pageno), page.Image.Content, w, h); err != nil {
			return nil, fmt.Errorf("page %d: %w", pageno, err)
		}

		importer.UseImportedTemplate(pdf, tpl, 0, 0, w, h)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// drawRaster embeds an encoded image fit into a w by h page, centered.
func drawRaster(pdf *fpdf.Fpdf, name string, data []byte, w, h float64) error {
	r, err := prepareRaster(data)
	if err != nil {
		return err
	}
	x, y, iw, ih := fitInto(r.Width, r.Height, w, h)

	opts := fpdf.ImageOptions{ReadDpi: false, ImageType: r.ImageType}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(r.Data))
	pdf.ImageOptions(name, x, y, iw, ih, false, opts, 0, "")
	return pdf.Error()
}
