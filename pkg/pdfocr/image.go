package pdfocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// raster is a page image ready to be embedded by fpdf.
type raster struct {
	Data      []byte
	ImageType string // fpdf image type: "JPG", "PNG" or "GIF"
	Width     int    // pixels
	Height    int    // pixels
}

// prepareRaster inspects an encoded page image and re-encodes it as 8-bit
// PNG when fpdf cannot embed it as is.
func prepareRaster(data []byte) (*raster, error) {
	if len(data) == 0 {
		return nil, errors.New("image is empty")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image has no area: %dx%d", cfg.Width, cfg.Height)
	}

	r := &raster{Data: data, Width: cfg.Width, Height: cfg.Height}
	switch format {
	case "jpeg":
		r.ImageType = "JPG"
		return r, nil
	case "gif":
		r.ImageType = "GIF"
		return r, nil
	case "png":
		if embeddablePNG(data) {
			r.ImageType = "PNG"
			return r, nil
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", strings.ToUpper(format), err)
	}
	r.Data, err = encodePNG(img)
	if err != nil {
		return nil, err
	}
	r.ImageType = "PNG"
	return r, nil
}

// embeddablePNG reports whether fpdf's PNG parser accepts data: at most 8 bits
// per channel and no interlacing.
func embeddablePNG(data []byte) bool {
	// signature, IHDR length and type, width, height, depth, color, compression, filter, interlace
	if len(data) < 29 || !bytes.HasPrefix(data, pngSignature) || string(data[12:16]) != "IHDR" {
		return false
	}
	return data[24] <= 8 && data[28] == 0
}

// encodePNG converts img to an 8-bit PNG, keeping grayscale images gray.
func encodePNG(img image.Image) ([]byte, error) {
	b := img.Bounds()
	var dst draw.Image
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		dst = image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	default:
		dst = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// fitInto scales an image of the given pixel size to fit inside a page,
// preserving its aspect ratio, and centers it.
func fitInto(imgW, imgH int, pageW, pageH float64) (x, y, w, h float64) {
	scale := min(pageW/float64(imgW), pageH/float64(imgH))
	w = float64(imgW) * scale
	h = float64(imgH) * scale
	return (pageW - w) / 2, (pageH - h) / 2, w, h
}
