package images

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/lenscart/backend/internal/domain"
)

// Defaults when the config leaves a field unset
const (
	defaultMaxBytes     = 10 << 20 // 10 MiB
	defaultMaxDimension = 2048
	jpegQuality         = 85
)

// Processor validates uploaded images and normalizes them to bounded JPEG
// before they reach the vision client. Formats are sniffed from content,
// never trusted from filenames.
type Processor struct {
	maxBytes     int64
	maxDimension int
}

// NewProcessor creates an image processor with the given limits
func NewProcessor(maxBytes int64, maxDimension int) *Processor {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	if maxDimension <= 0 {
		maxDimension = defaultMaxDimension
	}
	return &Processor{maxBytes: maxBytes, maxDimension: maxDimension}
}

// Process validates the image and returns it re-encoded as JPEG, downscaled
// to fit the dimension cap if needed.
func (p *Processor) Process(data []byte) ([]byte, error) {
	if int64(len(data)) > p.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d byte limit", domain.ErrImageTooLarge, len(data), p.maxBytes)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	switch format {
	case "jpeg", "png", "webp":
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", domain.ErrInvalidImage, format)
	}

	bounds := img.Bounds()
	if bounds.Dx() > p.maxDimension || bounds.Dy() > p.maxDimension {
		img = p.downscale(img)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// downscale fits the image inside maxDimension x maxDimension, preserving
// aspect ratio, composited onto white so transparency survives the JPEG
// re-encode.
func (p *Processor) downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	scale := float64(p.maxDimension) / float64(bounds.Dx())
	if s := float64(p.maxDimension) / float64(bounds.Dy()); s < scale {
		scale = s
	}

	w := int(float64(bounds.Dx()) * scale)
	h := int(float64(bounds.Dy()) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// Info reports basic properties of an image without processing it
func (p *Processor) Info(data []byte) (format string, width, height int, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	return format, cfg.Width, cfg.Height, nil
}
