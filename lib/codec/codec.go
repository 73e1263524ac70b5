// Package codec reads the page raster and writes the parts.
// Decoding supports png, jpeg, gif, bmp, tiff and webp, encoding supports png and jpeg.
package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register the webp decoder for image.Decode
)

// ErrOutOfBounds is returned when a region isn't fully inside the source image
var ErrOutOfBounds = errors.New("region exceeds the source bounds")

// ErrFormat is returned for an output format that can't be encoded
var ErrFormat = errors.New("unsupported output format")

// Codec encodes the parts
type Codec struct {
	format  imaging.Format
	quality int
}

// Default png codec
func Default() *Codec {
	return &Codec{format: imaging.PNG}
}

// New codec by the format name, such as "png", "jpg" or "jpeg".
// The quality is only used by jpeg, if it's not in [1, 100] the encoder's default is used.
func New(format string, quality int) (*Codec, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", "png":
		return &Codec{format: imaging.PNG}, nil
	case "jpg", "jpeg":
		return &Codec{format: imaging.JPEG, quality: quality}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, format)
	}
}

// Ext returns the file extension of the output format, such as ".png"
func (c *Codec) Ext() string {
	if c.format == imaging.JPEG {
		return ".jpg"
	}
	return ".png"
}

// Encode img to bytes
func (c *Codec) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	err := imaging.Encode(&buf, img, c.format, c.options()...)
	return buf.Bytes(), err
}

// Write img to path. The content is written to a temp file in the same dir first,
// then renamed to path, so path either holds the complete image or nothing new.
func (c *Codec) Write(img image.Image, path string) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	w := bufio.NewWriter(f)
	err = imaging.Encode(w, img, c.format, c.options()...)
	if err == nil {
		err = w.Flush()
	}
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

func (c *Codec) options() []imaging.EncodeOption {
	if c.format == imaging.JPEG && c.quality >= 1 && c.quality <= 100 {
		return []imaging.EncodeOption{imaging.JPEGQuality(c.quality)}
	}
	return nil
}

// Open an image file
func Open(path string) (image.Image, error) {
	return imaging.Open(path)
}

// Decode an image from bytes
func Decode(data []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data))
}

// Extract the region from src. The top and left are relative to the top-left corner of src.
func Extract(src image.Image, top, left, width, height int) (image.Image, error) {
	b := src.Bounds()
	r := image.Rect(left, top, left+width, top+height).Add(b.Min)

	if width <= 0 || height <= 0 || !r.In(b) {
		return nil, fmt.Errorf("%w: %v not in %v", ErrOutOfBounds, r, b)
	}

	return imaging.Crop(src, r), nil
}

// Pad img to width x height, img is anchored at the top-left corner and the rest is filled with bg.
// If img is already large enough it's returned as it is.
func Pad(img image.Image, width, height int, bg color.Color) image.Image {
	b := img.Bounds()
	if b.Dx() >= width && b.Dy() >= height {
		return img
	}

	if b.Dx() > width {
		width = b.Dx()
	}
	if b.Dy() > height {
		height = b.Dy()
	}

	return imaging.Paste(imaging.New(width, height, bg), img, image.Pt(0, 0))
}

// Trim the borders that have the same color as the top-left pixel.
// Two colors are the same if none of their channels differ more than threshold.
// If the whole image is border, img is returned as it is.
func Trim(img image.Image, threshold uint8) image.Image {
	src := imaging.Clone(img)
	b := src.Bounds()
	if b.Empty() {
		return img
	}

	bg := src.NRGBAAt(b.Min.X, b.Min.Y)
	box := image.Rectangle{}
	found := false

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if same(src.NRGBAAt(x, y), bg, threshold) {
				continue
			}

			p := image.Rect(x, y, x+1, y+1)
			if found {
				box = box.Union(p)
			} else {
				box = p
				found = true
			}
		}
	}

	if !found || box == b {
		return img
	}

	return imaging.Crop(src, box)
}

func same(a, b color.NRGBA, threshold uint8) bool {
	return near(a.R, b.R, threshold) && near(a.G, b.G, threshold) &&
		near(a.B, b.B, threshold) && near(a.A, b.A, threshold)
}

func near(a, b, threshold uint8) bool {
	if a > b {
		return a-b <= threshold
	}
	return b-a <= threshold
}
