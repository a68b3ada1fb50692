// Package sprinkles turns scanned PDFs into searchable ones.
//
// A Converter sends the upload to a Recognizer and, at the same time, to a
// sandboxed pdf-info child process that reports each page's size. Once both
// have finished it hands the recognized document and the page sizes to
// pdfocr.BuildOutput.
package sprinkles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"github.com/willangley/pdf-sprinkles/pkg/gdocai"
	"github.com/willangley/pdf-sprinkles/pkg/pdfinfo"
	"github.com/willangley/pdf-sprinkles/pkg/pdfocr"
)

const (
	// DefaultMaxInputSize matches the largest document Document AI accepts inline.
	DefaultMaxInputSize = gdocai.DefaultMaxDocumentSize
	// DefaultProbeTimeout bounds how long pdf-info may run.
	DefaultProbeTimeout = time.Second
)

// Recognizer runs OCR over a PDF.
type Recognizer interface {
	Recognize(ctx context.Context, pdf []byte) (*gdocai.Document, error)
}

// Prober starts a geometry probe child for a PDF.
type Prober interface {
	Start(ctx context.Context, pdf []byte) (*pdfinfo.Process, error)
}

// Config holds the limits and rendering options of a Converter.
type Config struct {
	MaxInputSize  int           // 0 = DefaultMaxInputSize
	MaxOutputSize int           // 0 = unlimited
	ProbeTimeout  time.Duration // 0 = DefaultProbeTimeout
	Render        pdfocr.Config
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxInputSize: DefaultMaxInputSize,
		ProbeTimeout: DefaultProbeTimeout,
		Render:       pdfocr.DefaultConfig(),
	}
}

// Converter produces searchable PDFs. It is safe for concurrent use; calls
// share nothing but the recognizer.
type Converter struct {
	recognizer Recognizer
	prober     Prober
	cfg        Config
	logger     *log.Logger
}

// Result is everything a conversion produced.
type Result struct {
	PDF        []byte
	Document   *gdocai.Document
	Mediaboxes []pdfinfo.Mediabox
	Stats      pdfocr.Stats
}

// New creates a Converter. A nil logger uses log.DefaultLogger.
func New(recognizer Recognizer, prober Prober, cfg Config, logger *log.Logger) *Converter {
	if cfg.MaxInputSize <= 0 {
		cfg.MaxInputSize = DefaultMaxInputSize
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if logger == nil {
		logger = &log.DefaultLogger
	}
	if cfg.Render.Logger == nil {
		cfg.Render.Logger = logger
	}
	return &Converter{
		recognizer: recognizer,
		prober:     prober,
		cfg:        cfg,
		logger:     logger,
	}
}

// Convert returns a searchable version of input. name becomes the title of
// the output document.
func (c *Converter) Convert(ctx context.Context, input []byte, name string) ([]byte, error) {
	res, err := c.ConvertDocument(ctx, input, name)
	if err != nil {
		return nil, err
	}
	return res.PDF, nil
}

// ConvertDocument is Convert, also returning the intermediate results.
func (c *Converter) ConvertDocument(ctx context.Context, input []byte, name string) (*Result, error) {
	if len(input) > c.cfg.MaxInputSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrInputTooLarge, len(input), c.cfg.MaxInputSize)
	}

	start := time.Now()
	doc, boxes, err := c.acquire(ctx, input)
	if err != nil {
		return nil, err
	}

	out, stats, err := pdfocr.BuildOutput(ctx, doc, boxes, name, c.cfg.Render)
	if err != nil {
		return nil, fmt.Errorf("failed to build output: %w", err)
	}
	if c.cfg.MaxOutputSize > 0 && len(out) > c.cfg.MaxOutputSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrOutputTooLarge, len(out), c.cfg.MaxOutputSize)
	}

	c.logger.Info().
		Str("name", name).
		Int("pages", len(boxes)).
		Int("input_bytes", len(input)).
		Int("output_bytes", len(out)).
		Dur("elapsed", time.Since(start)).
		Msg("converted PDF")

	return &Result{PDF: out, Document: doc, Mediaboxes: boxes, Stats: stats}, nil
}

// acquisition tags the concurrent steps joined by acquire.
type acquisition int

const (
	recognition acquisition = iota
	probeOutput
	probeExit
)

func (a acquisition) String() string {
	switch a {
	case recognition:
		return "recognition"
	case probeOutput:
		return "pdf-info output"
	case probeExit:
		return "pdf-info exit"
	default:
		return fmt.Sprintf("acquisition(%d)", int(a))
	}
}

type outcome struct {
	kind   acquisition
	doc    *gdocai.Document
	output []byte
	err    error
}

// acquire runs recognition and the geometry probe concurrently and waits for
// all of them, even after a failure. The first failure cancels recognition
// and kills the probe so the rest finish promptly.
func (c *Converter) acquire(ctx context.Context, input []byte) (*gdocai.Document, []pdfinfo.Mediabox, error) {
	proc, err := c.prober.Start(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	defer proc.Close()

	recognizeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome, 3)
	go func() {
		doc, err := c.recognizer.Recognize(recognizeCtx, input)
		results <- outcome{kind: recognition, doc: doc, err: err}
	}()
	go func() {
		output, err := proc.ReadOutput()
		results <- outcome{kind: probeOutput, output: output, err: err}
	}()
	go func() {
		results <- outcome{kind: probeExit, err: proc.Wait(ctx, c.cfg.ProbeTimeout)}
	}()

	var (
		doc    *gdocai.Document
		output []byte
		failed *outcome
	)
	for range 3 {
		o := <-results
		if o.err != nil {
			if failed == nil {
				failed = &o
				cancel()
				if err := proc.Kill(); err != nil {
					c.logger.Warn().Err(err).Msg("failed to stop pdf-info")
				}
			}
			continue
		}
		switch o.kind {
		case recognition:
			doc = o.doc
		case probeOutput:
			output = o.output
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if failed != nil {
		if failed.kind == recognition {
			c.logger.Error().Err(failed.err).Msg("recognition failed")
			return nil, nil, failed.err
		}
		return nil, nil, c.malformed(proc, fmt.Errorf("%s: %w", failed.kind, failed.err))
	}

	boxes, err := pdfinfo.ParseMediaboxes(output)
	if err != nil {
		return nil, nil, c.malformed(proc, err)
	}
	if doc == nil {
		return nil, nil, errors.New("recognizer returned no document")
	}
	return doc, boxes, nil
}

func (c *Converter) malformed(proc *pdfinfo.Process, cause error) error {
	c.logger.Warn().
		Err(cause).
		Str("stderr", proc.Stderr()).
		Msg("pdf-info could not read upload")
	return NewMalformedInputError(cause)
}
