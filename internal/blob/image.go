// Package blob holds the image values stored next to bookmarks and
// history rows: thumbnails and favicons.
package blob

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WEBP
)

var (
	ErrEmptyImage  = errors.New("empty image")
	ErrUnsupported = errors.New("unsupported image format")
	ErrBadSize     = errors.New("invalid thumbnail size")
)

// ImageType tags the encoding of the stored bytes. The numeric values are
// persisted in the image_type columns.
type ImageType int

const (
	NoImage ImageType = iota
	Raw
	PNG
	JPEG
	GIF
	BMP
	WEBP
)

func (t ImageType) String() string {
	switch t {
	case NoImage:
		return "none"
	case Raw:
		return "raw"
	case PNG:
		return "png"
	case JPEG:
		return "jpeg"
	case GIF:
		return "gif"
	case BMP:
		return "bmp"
	case WEBP:
		return "webp"
	default:
		return fmt.Sprintf("ImageType(%d)", int(t))
	}
}

// typeFromFormat maps an image package format name to ImageType.
func typeFromFormat(format string) ImageType {
	switch format {
	case "png":
		return PNG
	case "jpeg":
		return JPEG
	case "gif":
		return GIF
	case "bmp":
		return BMP
	case "webp":
		return WEBP
	default:
		return Raw
	}
}

// Image is an encoded picture plus its dimensions. Data is owned by the
// Image.
type Image struct {
	Width  int
	Height int
	Type   ImageType
	Data   []byte
}

// Empty returns the placeholder used where no image is stored.
func Empty() *Image {
	return &Image{Type: NoImage}
}

// IsEmpty reports whether img carries no picture. A nil image is empty.
func (img *Image) IsEmpty() bool {
	return img == nil || len(img.Data) == 0
}

// Clone returns a deep copy of img.
func (img *Image) Clone() *Image {
	if img == nil {
		return nil
	}

	c := *img
	if img.Data != nil {
		c.Data = make([]byte, len(img.Data))
		copy(c.Data, img.Data)
	}

	return &c
}

// Decode inspects data and returns an Image with its detected type and
// size. The bytes are copied. Unknown formats are kept as Raw with zero
// dimensions.
func Decode(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return &Image{Type: Raw, Data: buf}, nil
		}

		return nil, fmt.Errorf("decoding image: %w", err)
	}

	return &Image{
		Width:  cfg.Width,
		Height: cfg.Height,
		Type:   typeFromFormat(format),
		Data:   buf,
	}, nil
}

// Thumbnail scales img to fit in maxW x maxH keeping its aspect ratio and
// encodes the result as PNG. Images already small enough are re-encoded
// without scaling.
func Thumbnail(img *Image, maxW, maxH int) (*Image, error) {
	if img.IsEmpty() {
		return nil, ErrEmptyImage
	}

	if maxW <= 0 || maxH <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadSize, maxW, maxH)
	}

	if img.Type == Raw {
		return nil, ErrUnsupported
	}

	src, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}

	w, h := fit(src.Bounds().Dx(), src.Bounds().Dy(), maxW, maxH)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}

	return &Image{Width: w, Height: h, Type: PNG, Data: out.Bytes()}, nil
}

// EncodeBMP encodes m as BMP, the format some legacy rows use for favicons.
func EncodeBMP(m image.Image) (*Image, error) {
	var out bytes.Buffer
	if err := bmp.Encode(&out, m); err != nil {
		return nil, fmt.Errorf("encoding bmp: %w", err)
	}

	b := m.Bounds()

	return &Image{Width: b.Dx(), Height: b.Dy(), Type: BMP, Data: out.Bytes()}, nil
}

func fit(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}

	// compare w/maxW against h/maxH without floats
	if w*maxH >= h*maxW {
		nh := h * maxW / w
		return maxW, max(nh, 1)
	}

	nw := w * maxH / h

	return max(nw, 1), maxH
}
