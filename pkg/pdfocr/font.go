package pdfocr

import (
	"fmt"
	"os"
	"slices"
	"sync"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/goregular"
)

// fontFiles caches TrueType data by path. Each file is read once per process
// and shared read-only by every conversion.
var fontFiles sync.Map // path -> func() ([]byte, error)

// fontData returns the TrueType data for path, or Go Regular when path is empty.
func fontData(path string) ([]byte, error) {
	if path == "" {
		return goregular.TTF, nil
	}
	load, _ := fontFiles.LoadOrStore(path, sync.OnceValues(func() ([]byte, error) {
		return os.ReadFile(path)
	}))
	return load.(func() ([]byte, error))()
}

// useFont registers the text layer font with pdf and selects it. Pages added
// afterwards start with it selected.
func useFont(pdf *fpdf.Fpdf, font FontConfig) (err error) {
	data, err := fontData(font.File)
	if err != nil {
		return fmt.Errorf("failed to load font: %w", err)
	}

	// fpdf's TrueType parser panics on truncated files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse font %q: %v", font.Name, r)
		}
	}()
	pdf.AddUTF8FontFromBytes(font.Name, "", data)
	pdf.SetFont(font.Name, "", font.Size)
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to register font %q: %w", font.Name, err)
	}
	return nil
}

// registerRunes adds a last page that shows every rune in runes once. fpdf
// embeds glyphs and widths only for runes that went through its own text
// calls, and the layer pages are written as raw operators. The compositor
// imports pages by number, so this page never reaches the output.
func registerRunes(pdf *fpdf.Fpdf, runes map[rune]struct{}) {
	if len(runes) == 0 {
		return
	}
	list := make([]rune, 0, len(runes))
	for r := range runes {
		list = append(list, r)
	}
	slices.Sort(list)

	pdf.AddPageFormat("P", fpdf.SizeType{Wd: 1, Ht: 1})
	pdf.SetPageBox("trim", 0, 0, 1, 1)
	pdf.Text(0, 1, string(list))
}
