package paintcore

import "image"

// Rect is an axis-aligned rectangle in integer pixel coordinates.
// W and H are extents; a Rect with W <= 0 or H <= 0 is empty.
type Rect struct {
	X, Y, W, H int
}

// NewRect creates a rectangle from position and size.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// RectAround returns the rectangle covering a point plus radius on every
// side. A radius of 0 yields a 1x1 rectangle containing the point.
func RectAround(x, y, radius int) Rect {
	if radius < 0 {
		radius = 0
	}
	return Rect{X: x - radius, Y: y - radius, W: 2*radius + 1, H: 2*radius + 1}
}

// IsEmpty returns true if the rectangle covers no pixels.
func (r Rect) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// MaxX returns the exclusive right edge.
func (r Rect) MaxX() int { return r.X + r.W }

// MaxY returns the exclusive bottom edge.
func (r Rect) MaxY() int { return r.Y + r.H }

// Area returns the number of pixels covered.
func (r Rect) Area() int {
	if r.IsEmpty() {
		return 0
	}
	return r.W * r.H
}

// Contains returns true if the point lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// ContainsRect returns true if other lies fully inside r.
func (r Rect) ContainsRect(other Rect) bool {
	if other.IsEmpty() {
		return true
	}
	return other.X >= r.X && other.Y >= r.Y &&
		other.MaxX() <= r.MaxX() && other.MaxY() <= r.MaxY()
}

// Union returns the smallest rectangle covering both r and other.
// An empty rectangle is the identity element.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	x := min(r.X, other.X)
	y := min(r.Y, other.Y)
	return Rect{
		X: x,
		Y: y,
		W: max(r.MaxX(), other.MaxX()) - x,
		H: max(r.MaxY(), other.MaxY()) - y,
	}
}

// Intersect returns the overlap of r and other, or an empty Rect.
func (r Rect) Intersect(other Rect) Rect {
	x := max(r.X, other.X)
	y := max(r.Y, other.Y)
	w := min(r.MaxX(), other.MaxX()) - x
	h := min(r.MaxY(), other.MaxY()) - y
	if w <= 0 || h <= 0 {
		return Rect{}
	}
	return Rect{X: x, Y: y, W: w, H: h}
}

// Inset shrinks the rectangle by n on every side. A negative n grows it.
func (r Rect) Inset(n int) Rect {
	return Rect{X: r.X + n, Y: r.Y + n, W: r.W - 2*n, H: r.H - 2*n}
}

// Translate returns the rectangle moved by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// ToImageRect converts to the standard image.Rectangle.
func (r Rect) ToImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.MaxX(), r.MaxY())
}

// FromImageRect converts from the standard image.Rectangle.
func FromImageRect(ir image.Rectangle) Rect {
	return Rect{X: ir.Min.X, Y: ir.Min.Y, W: ir.Dx(), H: ir.Dy()}
}
