package paintcore

// Mask represents an 8-bit alpha mask, used for saved selections.
// Values range from 0 (not selected) to 255 (fully selected).
type Mask struct {
	width  int
	height int
	data   []uint8
}

// NewMask creates a new empty mask with the given dimensions.
// All values are initialized to 0.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		width:  width,
		height: height,
		data:   make([]uint8, width*height),
	}
}

// Width returns the mask width.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height.
func (m *Mask) Height() int { return m.height }

// Data returns the raw mask bytes.
func (m *Mask) Data() []uint8 { return m.data }

// At returns the mask value at (x, y).
// Returns 0 for coordinates outside the mask bounds.
func (m *Mask) At(x, y int) uint8 {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return 0
	}
	return m.data[y*m.width+x]
}

// Set sets the mask value at (x, y).
// Coordinates outside the mask bounds are ignored.
func (m *Mask) Set(x, y int, value uint8) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return
	}
	m.data[y*m.width+x] = value
}

// FillRect sets every value inside r (clipped to the mask) to value.
func (m *Mask) FillRect(r Rect, value uint8) {
	r = r.Intersect(Rect{W: m.width, H: m.height})
	for y := r.Y; y < r.Y+r.H; y++ {
		row := m.data[y*m.width : (y+1)*m.width]
		for x := r.X; x < r.X+r.W; x++ {
			row[x] = value
		}
	}
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	c := &Mask{
		width:  m.width,
		height: m.height,
		data:   make([]uint8, len(m.data)),
	}
	copy(c.data, m.data)
	return c
}

// Equal reports whether two masks have identical dimensions and values.
func (m *Mask) Equal(other *Mask) bool {
	if other == nil {
		return false
	}
	if m.width != other.width || m.height != other.height {
		return false
	}
	for i := range m.data {
		if m.data[i] != other.data[i] {
			return false
		}
	}
	return true
}

// MemorySize returns the number of bytes held by the mask data.
func (m *Mask) MemorySize() int64 {
	return int64(len(m.data))
}
