// Package pdfocr builds searchable PDFs from recognized page images.
//
// The output is assembled in two passes. The first pass writes a PDF holding
// only an invisible text layer: for every recognized line above the
// confidence threshold, each token is positioned at its bounding box and
// stretched horizontally to the box width. The second pass imports each
// text-layer page as a template and places it over the page raster returned
// by the recognizer, so the result looks like the scan while its text can be
// searched and selected.
//
// Main Functions:
//
// - BuildOutput: Creates the searchable PDF for a recognized document
package pdfocr

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/willangley/pdf-sprinkles/pkg/gdocai"
	"github.com/willangley/pdf-sprinkles/pkg/pdfinfo"
)

var (
	// ErrPageCountMismatch means the recognizer and the geometry probe disagree
	// on how many pages the input has.
	ErrPageCountMismatch = errors.New("page count mismatch")
	// ErrNoPages is returned for documents without pages.
	ErrNoPages = errors.New("document has no pages")
)

// BuildOutput creates a searchable PDF with one page per mediabox. Pages of
// doc are matched to mediaboxes by position.
func BuildOutput(
	ctx context.Context,
	doc *gdocai.Document,
	mediaboxes []pdfinfo.Mediabox,
	title string,
	config Config,
) ([]byte, Stats, error) {
	if doc == nil {
		return nil, Stats{}, errors.New("document is nil")
	}
	if len(doc.Pages) != len(mediaboxes) {
		return nil, Stats{}, fmt.Errorf("%w: %d recognized pages, %d mediaboxes",
			ErrPageCountMismatch, len(doc.Pages), len(mediaboxes))
	}
	if len(mediaboxes) == 0 {
		return nil, Stats{}, ErrNoPages
	}
	if config.Font.Name == "" {
		config.Font = DefaultFont
	}

	textLayer, stats, err := createTextLayer(ctx, doc, mediaboxes, config)
	if err != nil {
		return nil, stats, fmt.Errorf("error creating text layer: %w", err)
	}

	out, err := composePages(ctx, doc, textLayer, title, config)
	if err != nil {
		return nil, stats, fmt.Errorf("error composing pages: %w", err)
	}

	logger := config.logger()
	logger.Info().
		Int("pages", stats.Pages).
		Int("lines", stats.Lines).
		Int("lines_skipped", stats.LinesSkipped).
		Int("tokens", stats.Tokens).
		Int("tokens_skipped", stats.TokensSkipped).
		Int("bytes", len(out)).
		Msg("built searchable PDF")
	if stats.Unencodable > 0 {
		logger.Warn().Int("runes", stats.Unencodable).Msg("text layer has characters outside the Basic Multilingual Plane")
	}

	return out, stats, nil
}

// yield gives other goroutines a chance to run between pages and stops early
// once ctx is done.
func yield(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}
