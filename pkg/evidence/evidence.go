// Package evidence turns uploaded photos into the compact text form stored with interactions.
package evidence

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"

	// decoders for the accepted upload formats
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

// ErrImage wraps every decode or encode failure.
var ErrImage = errors.New("could not process image")

// Defaults match the bounds used for evidence photos on the board.
const (
	DefaultMaxWidth  = 800
	DefaultMaxHeight = 600
	DefaultQuality   = 85
)

// Processor downscales and re-encodes images.
type Processor struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
}

// NewProcessor returns a processor with the given bounds; zero values take the defaults.
func NewProcessor(maxWidth, maxHeight, quality int) *Processor {
	p := &Processor{MaxWidth: maxWidth, MaxHeight: maxHeight, Quality: quality}

	if p.MaxWidth <= 0 {
		p.MaxWidth = DefaultMaxWidth
	}

	if p.MaxHeight <= 0 {
		p.MaxHeight = DefaultMaxHeight
	}

	if p.Quality <= 0 || p.Quality > 100 {
		p.Quality = DefaultQuality
	}

	return p
}

// Process decodes a PNG, JPEG or GIF, shrinks it to fit the bounding box keeping its aspect
// ratio, flattens any transparency onto white and returns the JPEG as base64. Images already
// inside the box are not enlarged.
func (p *Processor) Process(r io.Reader) (string, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImage, err)
	}

	w, h := fit(src.Bounds().Dx(), src.Bounds().Dy(), p.MaxWidth, p.MaxHeight)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: p.Quality}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrImage, err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// fit returns the largest size with the source's aspect ratio inside the box.
func fit(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}

	if w*maxH > h*maxW {
		nh := h * maxW / w
		if nh < 1 {
			nh = 1
		}

		return maxW, nh
	}

	nw := w * maxH / h
	if nw < 1 {
		nw = 1
	}

	return nw, maxH
}

// Decode returns the image stored in an interaction.
func Decode(b64 string) (image.Image, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImage, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImage, err)
	}

	return img, nil
}
