package paintcore

// Point represents a 2D point in document or layer space.
type Point struct {
	X, Y float64
}

// Pt creates a point from coordinates.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the component-wise sum of two points.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the component-wise difference of two points.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}
