package paintcore

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
)

// Pixmap represents a rectangular pixel buffer owned by a layer.
// Pixels are stored non-premultiplied in RGBA order, 4 bytes per pixel.
//
// A Pixmap may be 0x0: all pixel operations on an empty pixmap are no-ops
// and region reads return empty slices. Resizing never resamples; pixel
// values move but are preserved byte for byte.
type Pixmap struct {
	width  int
	height int
	data   []uint8 // RGBA format, 4 bytes per pixel
}

// NewPixmap creates a new pixmap with the given dimensions.
// Negative dimensions are clamped to zero.
func NewPixmap(width, height int) *Pixmap {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Pixmap{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int {
	return p.width
}

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int {
	return p.height
}

// IsEmpty returns true if the pixmap holds no pixels.
func (p *Pixmap) IsEmpty() bool {
	return p.width == 0 || p.height == 0
}

// Data returns the raw pixel data (RGBA format).
func (p *Pixmap) Data() []uint8 {
	return p.data
}

// Rect returns the pixmap bounds as a Rect anchored at the origin.
func (p *Pixmap) Rect() Rect {
	return Rect{W: p.width, H: p.height}
}

// SetPixel sets the color of a single pixel.
func (p *Pixmap) SetPixel(x, y int, c RGBA) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	i := (y*p.width + x) * 4
	p.data[i+0] = uint8(clamp255(c.R * 255))
	p.data[i+1] = uint8(clamp255(c.G * 255))
	p.data[i+2] = uint8(clamp255(c.B * 255))
	p.data[i+3] = uint8(clamp255(c.A * 255))
}

// GetPixel returns the color of a single pixel.
func (p *Pixmap) GetPixel(x, y int) RGBA {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return Transparent
	}
	i := (y*p.width + x) * 4
	return RGBA{
		R: float64(p.data[i+0]) / 255,
		G: float64(p.data[i+1]) / 255,
		B: float64(p.data[i+2]) / 255,
		A: float64(p.data[i+3]) / 255,
	}
}

// Clear fills the entire pixmap with a color.
func (p *Pixmap) Clear(c RGBA) {
	r := uint8(clamp255(c.R * 255))
	g := uint8(clamp255(c.G * 255))
	b := uint8(clamp255(c.B * 255))
	a := uint8(clamp255(c.A * 255))

	for i := 0; i < len(p.data); i += 4 {
		p.data[i+0] = r
		p.data[i+1] = g
		p.data[i+2] = b
		p.data[i+3] = a
	}
}

// FillRect fills the intersection of r with the pixmap bounds.
func (p *Pixmap) FillRect(r Rect, c RGBA) {
	r = r.Intersect(p.Rect())
	if r.IsEmpty() {
		return
	}
	cr := uint8(clamp255(c.R * 255))
	cg := uint8(clamp255(c.G * 255))
	cb := uint8(clamp255(c.B * 255))
	ca := uint8(clamp255(c.A * 255))
	for y := r.Y; y < r.Y+r.H; y++ {
		i := (y*p.width + r.X) * 4
		for x := 0; x < r.W; x++ {
			p.data[i+0] = cr
			p.data[i+1] = cg
			p.data[i+2] = cb
			p.data[i+3] = ca
			i += 4
		}
	}
}

// Clone returns a deep copy of the pixmap.
func (p *Pixmap) Clone() *Pixmap {
	c := &Pixmap{
		width:  p.width,
		height: p.height,
		data:   make([]uint8, len(p.data)),
	}
	copy(c.data, p.data)
	return c
}

// ReadRegion copies the pixels of r (clipped to the pixmap bounds) into a
// new byte slice, row-major, 4 bytes per pixel. The returned slice has
// exactly r.W*r.H*4 bytes; pixels of r outside the pixmap read as
// transparent.
func (p *Pixmap) ReadRegion(r Rect) []uint8 {
	if r.W < 0 || r.H < 0 {
		return nil
	}
	out := make([]uint8, r.W*r.H*4)
	in := r.Intersect(p.Rect())
	for y := in.Y; y < in.Y+in.H; y++ {
		srcOff := (y*p.width + in.X) * 4
		dstOff := ((y-r.Y)*r.W + (in.X - r.X)) * 4
		copy(out[dstOff:dstOff+in.W*4], p.data[srcOff:srcOff+in.W*4])
	}
	return out
}

// WriteRegion writes row-major RGBA pixel data into r. Rows of r that fall
// outside the pixmap bounds are skipped. pixels must hold r.W*r.H*4 bytes;
// shorter slices are ignored.
func (p *Pixmap) WriteRegion(r Rect, pixels []uint8) {
	if len(pixels) < r.W*r.H*4 {
		return
	}
	in := r.Intersect(p.Rect())
	for y := in.Y; y < in.Y+in.H; y++ {
		dstOff := (y*p.width + in.X) * 4
		srcOff := ((y-r.Y)*r.W + (in.X - r.X)) * 4
		copy(p.data[dstOff:dstOff+in.W*4], pixels[srcOff:srcOff+in.W*4])
	}
}

// ResizeCanvas reallocates the backing store to newW x newH and places the
// existing content with its top-left corner at (dx, dy) in the new buffer.
// Content that falls outside the new bounds is dropped; new area is
// transparent. Pixel values are copied exactly, never resampled.
func (p *Pixmap) ResizeCanvas(newW, newH, dx, dy int) {
	if newW < 0 {
		newW = 0
	}
	if newH < 0 {
		newH = 0
	}
	if newW == p.width && newH == p.height && dx == 0 && dy == 0 {
		return
	}
	data := make([]uint8, newW*newH*4)
	for y := 0; y < p.height; y++ {
		ny := y + dy
		if ny < 0 || ny >= newH {
			continue
		}
		srcX, dstX, w := 0, dx, p.width
		if dstX < 0 {
			srcX = -dstX
			w -= srcX
			dstX = 0
		}
		if dstX+w > newW {
			w = newW - dstX
		}
		if w <= 0 {
			continue
		}
		srcOff := (y*p.width + srcX) * 4
		dstOff := (ny*newW + dstX) * 4
		copy(data[dstOff:dstOff+w*4], p.data[srcOff:srcOff+w*4])
	}
	p.width = newW
	p.height = newH
	p.data = data
}

// Equal reports whether two pixmaps have identical dimensions and pixel
// content.
func (p *Pixmap) Equal(other *Pixmap) bool {
	if other == nil {
		return false
	}
	return p.width == other.width && p.height == other.height &&
		bytes.Equal(p.data, other.data)
}

// ContentBounds returns the tight bounding box of pixels with non-zero
// alpha. ok is false if the pixmap is fully transparent or empty.
func (p *Pixmap) ContentBounds() (r Rect, ok bool) {
	minX, minY := p.width, p.height
	maxX, maxY := -1, -1
	for y := 0; y < p.height; y++ {
		row := p.data[y*p.width*4 : (y+1)*p.width*4]
		for x := 0; x < p.width; x++ {
			if row[x*4+3] == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return Rect{}, false
	}
	return Rect{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}, true
}

// ToImage converts the pixmap to an image.NRGBA.
func (p *Pixmap) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.width, p.height))
	copy(img.Pix, p.data)
	return img
}

// FromImage creates a pixmap from an image.
func FromImage(img image.Image) *Pixmap {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	pm := NewPixmap(width, height)

	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Stride == width*4 {
		copy(pm.data, nrgba.Pix)
		return pm
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			pm.SetPixel(x, y, FromColor(c))
		}
	}

	return pm
}

// EncodePNG encodes the pixmap to PNG bytes.
func (p *Pixmap) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, p.ToImage()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodePNG decodes PNG bytes into a pixmap.
func DecodePNG(data []byte) (*Pixmap, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// SavePNG saves the pixmap to a PNG file.
func (p *Pixmap) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	return png.Encode(f, p.ToImage())
}

// At implements the image.Image interface.
func (p *Pixmap) At(x, y int) color.Color {
	return p.GetPixel(x, y).Color()
}

// Bounds implements the image.Image interface.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements the image.Image interface.
func (p *Pixmap) ColorModel() color.Model {
	return color.NRGBAModel
}
