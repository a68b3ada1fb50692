package pdfinfo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Mediabox is the size of a page in PDF points after applying its rotation.
// It is encoded in JSON as a [width, height] pair.
type Mediabox struct {
	Width  float64
	Height float64
}

func (m Mediabox) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{m.Width, m.Height})
}

func (m *Mediabox) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("mediabox must be a [width, height] pair, got %d values", len(pair))
	}
	m.Width, m.Height = pair[0], pair[1]
	return nil
}

func (m Mediabox) valid() bool {
	for _, v := range []float64{m.Width, m.Height} {
		if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// ParseMediaboxes decodes the JSON array written by the probe.
func ParseMediaboxes(data []byte) ([]Mediabox, error) {
	var boxes []Mediabox
	if err := json.Unmarshal(data, &boxes); err != nil {
		return nil, fmt.Errorf("failed to parse mediaboxes: %w", err)
	}
	if boxes == nil {
		return nil, errors.New("failed to parse mediaboxes: not an array")
	}
	for i, box := range boxes {
		if !box.valid() {
			return nil, fmt.Errorf("failed to parse mediaboxes: page %d has invalid size %vx%v", i+1, box.Width, box.Height)
		}
	}
	return boxes, nil
}

// NewConfiguration returns the pdfcpu configuration used for probing. It never
// touches pdfcpu's on-disk configuration directory.
func NewConfiguration() *model.Configuration {
	api.DisableConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Mediaboxes reads a PDF and returns the rotated media box size of every
// page, in page order.
func Mediaboxes(rs io.ReadSeeker, conf *model.Configuration) ([]Mediabox, error) {
	if conf == nil {
		conf = NewConfiguration()
	}

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}

	boxes := make([]Mediabox, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		_, _, attrs, err := ctx.PageDict(pageNr, false)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", pageNr, err)
		}
		if attrs == nil || attrs.MediaBox == nil {
			return nil, fmt.Errorf("page %d has no MediaBox", pageNr)
		}
		boxes = append(boxes, rotatedBox(attrs.MediaBox, attrs.Rotate))
	}

	return boxes, nil
}

// rotatedBox computes the page size from the box corners and swaps the sides
// of pages turned a quarter.
func rotatedBox(r *types.Rectangle, rotate int) Mediabox {
	box := Mediabox{
		Width:  r.UR.X - r.LL.X,
		Height: r.UR.Y - r.LL.Y,
	}
	switch normalizeRotation(rotate) {
	case 90, 270:
		box.Width, box.Height = box.Height, box.Width
	}
	return box
}

func normalizeRotation(rotate int) int {
	return ((rotate % 360) + 360) % 360
}
