package pdfocr

import (
	"github.com/phuslu/log"
)

// DefaultMinConfidence is the lowest line confidence that still gets a text layer.
const DefaultMinConfidence = 0.9

// Config holds options for building the searchable output PDF
type Config struct {
	MinConfidence float64     // Lines below this confidence are skipped (equal is kept)
	Debug         bool        // Render the text layer visibly instead of invisibly
	Font          FontConfig  // Font used for the text layer
	Logger        *log.Logger // nil = log.DefaultLogger
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		MinConfidence: DefaultMinConfidence,
		Font:          DefaultFont,
	}
}

func (c Config) logger() *log.Logger {
	if c.Logger == nil {
		return &log.DefaultLogger
	}
	return c.Logger
}

// FontConfig contains font settings for OCR text rendering
type FontConfig struct {
	Name          string  // Family name the font is registered under
	File          string  // TrueType file; empty uses the bundled Go Regular
	Size          float64 // Nominal font size in points
	BaselineRatio float64 // Baseline position as a fraction of the line box height, from the top
}

// DefaultFont is Go Regular at 8pt with the baseline 70% of the way down the line box.
var DefaultFont = FontConfig{
	Name:          "GoRegular",
	Size:          8,
	BaselineRatio: 0.7,
}
