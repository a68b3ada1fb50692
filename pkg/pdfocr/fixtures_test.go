package pdfocr

import (
	"bytes"
	"compress/zlib"
	"image"
	"image/color"
	"image/png"
	"io"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"codeberg.org/go-pdf/fpdf"
	"github.com/phuslu/log"
	"github.com/stretchr/testify/require"

	"github.com/willangley/pdf-sprinkles/pkg/gdocai"
)

func quietLogger() *log.Logger {
	return &log.Logger{Writer: &log.IOWriter{Writer: io.Discard}}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Logger = quietLogger()
	return cfg
}

// rect returns the corners of a normalized box.
func rect(left, top, right, bottom float64) []gdocai.Vertex {
	return []gdocai.Vertex{{X: left, Y: top}, {X: right, Y: top}, {X: right, Y: bottom}, {X: left, Y: bottom}}
}

func layout(vertices []gdocai.Vertex, start, end int, confidence float64) gdocai.Layout {
	return gdocai.Layout{
		Vertices:   vertices,
		Anchor:     gdocai.TextAnchor{{Start: start, End: end}},
		Confidence: confidence,
	}
}

// helloWorld is a one-page document with the line "Hello World" split into
// two tokens.
func helloWorld(t *testing.T) *gdocai.Document {
	page := &gdocai.Page{
		PageNumber: 1,
		Lines: []*gdocai.Line{
			{Layout: layout(rect(0.1, 0.1, 0.5, 0.2), 0, 12, 0.95)},
		},
		Tokens: []*gdocai.Token{
			{Layout: layout(rect(0.3, 0.1, 0.5, 0.2), 6, 12, 0.99)},
			{Layout: layout(rect(0.1, 0.1, 0.25, 0.2), 0, 6, 0.99)},
		},
		Image: &gdocai.Image{Content: pngImage(t, 100, 200), MimeType: "image/png", Width: 100, Height: 200},
	}
	return gdocai.NewDocument("Hello World\n", []*gdocai.Page{page})
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fixedWidth measures every rune as 5 points wide.
func fixedWidth(s string) float64 {
	return 5 * float64(utf8.RuneCountInString(s))
}

var streamPattern = regexp.MustCompile(`(?s)stream\r?\n(.*?)\r?\nendstream`)

// pdfStreams returns the contents of every stream in data, inflated as far
// as zlib will take them.
func pdfStreams(data []byte) []string {
	var streams []string
	for _, m := range streamPattern.FindAllSubmatch(data, -1) {
		body := m[1]
		for {
			zr, err := zlib.NewReader(bytes.NewReader(body))
			if err != nil {
				break
			}
			inflated, err := io.ReadAll(zr)
			if err != nil {
				break
			}
			body = inflated
		}
		streams = append(streams, string(body))
	}
	return streams
}

// streamContaining returns the first stream of data that contains substr.
func streamContaining(t *testing.T, data []byte, substr string) string {
	t.Helper()
	for _, s := range pdfStreams(data) {
		if strings.Contains(s, substr) {
			return s
		}
	}
	t.Fatalf("no stream contains %q", substr)
	return ""
}

// fpdfSink is a document to import templates into when only the importer's
// view of the source matters.
func fpdfSink() *fpdf.Fpdf {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.AddPage()
	return pdf
}
