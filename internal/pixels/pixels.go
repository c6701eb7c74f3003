package pixels

import "fmt"

// A Buffer is a 2-D grid of float64 pixel values stored row-major.
// It holds the image data of the currently displayed frame. Analysis
// code reads it; only the session replaces it (wholesale, on frame
// change), so no locking is needed.
type Buffer struct {
	width  int
	values []float64
}

func New(w, h int) *Buffer {
	return &Buffer{
		width:  w,
		values: make([]float64, w*h),
	}
}

// FromSlice wraps a row-major value slice without copying.
func FromSlice(w, h int, values []float64) (*Buffer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("pixels: invalid dimensions %dx%d", w, h)
	}
	if len(values) != w*h {
		return nil, fmt.Errorf("pixels: have %d values, want %d", len(values), w*h)
	}
	return &Buffer{width: w, values: values}, nil
}

func (b *Buffer) Width() int  { return b.width }
func (b *Buffer) Height() int { return len(b.values) / b.width }

func (b *Buffer) At(x, y int) float64     { return b.values[y*b.width+x] }
func (b *Buffer) Set(x, y int, v float64) { b.values[y*b.width+x] = v }

func (b *Buffer) Inside(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.Height()
}

// Values returns the backing slice. Callers must treat it as read-only.
func (b *Buffer) Values() []float64 { return b.values }

// Row returns a view of row y. Callers must treat it as read-only.
func (b *Buffer) Row(y int) []float64 {
	return b.values[y*b.width : (y+1)*b.width]
}

// Column returns a copy of column x.
func (b *Buffer) Column(x int) []float64 {
	h := b.Height()
	out := make([]float64, h)
	for y := 0; y < h; y++ {
		out[y] = b.At(x, y)
	}
	return out
}

// Cutout returns a copy of the rectangle [x0,x1) x [y0,y1), clamped to
// the buffer bounds.
func (b *Buffer) Cutout(x0, y0, x1, y1 int) *Buffer {
	x0 = clamp(x0, 0, b.width)
	x1 = clamp(x1, 0, b.width)
	y0 = clamp(y0, 0, b.Height())
	y1 = clamp(y1, 0, b.Height())
	if x1 <= x0 || y1 <= y0 {
		return New(1, 1)
	}
	out := New(x1-x0, y1-y0)
	for y := y0; y < y1; y++ {
		copy(out.Row(y-y0), b.values[y*b.width+x0:y*b.width+x1])
	}
	return out
}

// ClampIndex converts an image coordinate to a valid pixel index.
func (b *Buffer) ClampIndex(x, y float64) (int, int) {
	xi := clamp(int(x+0.5), 0, b.width-1)
	yi := clamp(int(y+0.5), 0, b.Height()-1)
	return xi, yi
}

func (b *Buffer) MinMax() (float64, float64) {
	if len(b.values) == 0 {
		return 0, 0
	}
	min, max := b.values[0], b.values[0]
	for _, v := range b.values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
