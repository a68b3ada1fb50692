package pdfinfo

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/require"
)

// testPage describes one page of a hand-built PDF. Empty fields are omitted
// from the page dictionary so they can be inherited from the page tree.
type testPage struct {
	MediaBox string
	Rotate   string
}

// buildPDF writes a minimal PDF with a correct cross-reference table. The
// parent Pages node carries parentAttrs, which pages without their own
// entries inherit.
func buildPDF(parentAttrs string, pages ...testPage) []byte {
	var objects []string

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d %s >>", strings.Join(kids, " "), len(pages), parentAttrs),
	)
	for _, p := range pages {
		dict := "<< /Type /Page /Parent 2 0 R"
		if p.MediaBox != "" {
			dict += " /MediaBox " + p.MediaBox
		}
		if p.Rotate != "" {
			dict += " /Rotate " + p.Rotate
		}
		objects = append(objects, dict+" >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// fpdfDocument renders blank pages of the given sizes in points.
func fpdfDocument(t *testing.T, sizes ...Mediabox) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	for _, size := range sizes {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: size.Width, Ht: size.Height})
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}
