package plot

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/cdeil/imexam/internal/pixels"
)

const (
	plotW   = 640
	plotH   = 480
	marginL = 60
	marginR = 20
	marginT = 40
	marginB = 50
)

// Profile renders one or two curves over a shared x axis: the data
// profile and, when fit is non-nil, a model overlay. With logY the y
// axis is log10-scaled; non-positive values are floored to the
// smallest positive sample so a noisy background stays plottable.
func Profile(path, title, xLabel string, xs, ys, fit []float64, logY bool) error {
	if len(xs) == 0 || len(xs) != len(ys) {
		return fmt.Errorf("plot: bad profile lengths %d/%d", len(xs), len(ys))
	}

	if logY {
		if floor := minPositive(ys, fit); floor > 0 {
			ys = log10Series(ys, floor)
			fit = log10Series(fit, floor)
			title = title + " [log10]"
		}
	}

	xmin, xmax := minMax(xs)
	ymin, ymax := minMax(ys)
	if fit != nil {
		fmin, fmax := minMax(fit)
		ymin = math.Min(ymin, fmin)
		ymax = math.Max(ymax, fmax)
	}
	if xmax == xmin {
		xmax = xmin + 1
	}
	if ymax == ymin {
		ymax = ymin + 1
	}

	dc := newCanvas(title, xLabel, xmin, xmax, ymin, ymax)

	toX := func(x float64) float64 {
		return marginL + (x-xmin)/(xmax-xmin)*(plotW-marginL-marginR)
	}
	toY := func(y float64) float64 {
		return plotH - marginB - (y-ymin)/(ymax-ymin)*(plotH-marginT-marginB)
	}

	dc.SetRGB(0.1, 0.3, 0.8)
	dc.SetLineWidth(1.5)
	for i := 1; i < len(xs); i++ {
		dc.DrawLine(toX(xs[i-1]), toY(ys[i-1]), toX(xs[i]), toY(ys[i]))
	}
	dc.Stroke()

	if fit != nil {
		dc.SetRGB(0.8, 0.2, 0.1)
		for i := 1; i < len(xs) && i < len(fit); i++ {
			dc.DrawLine(toX(xs[i-1]), toY(fit[i-1]), toX(xs[i]), toY(fit[i]))
		}
		dc.Stroke()
	}

	return dc.SavePNG(path)
}

// Histogram renders counts as bars between the given bin edges.
// len(edges) must be len(counts)+1.
func Histogram(path, title string, edges, counts []float64) error {
	if len(edges) != len(counts)+1 || len(counts) == 0 {
		return fmt.Errorf("plot: bad histogram lengths %d/%d", len(edges), len(counts))
	}

	xmin, xmax := edges[0], edges[len(edges)-1]
	_, ymax := minMax(counts)
	if ymax == 0 {
		ymax = 1
	}
	if xmax == xmin {
		xmax = xmin + 1
	}

	dc := newCanvas(title, "pixel value", xmin, xmax, 0, ymax)

	toX := func(x float64) float64 {
		return marginL + (x-xmin)/(xmax-xmin)*(plotW-marginL-marginR)
	}
	toY := func(y float64) float64 {
		return plotH - marginB - y/ymax*(plotH-marginT-marginB)
	}

	dc.SetRGB(0.1, 0.3, 0.8)
	for i, c := range counts {
		x0 := toX(edges[i])
		x1 := toX(edges[i+1])
		y := toY(c)
		dc.DrawRectangle(x0, y, x1-x0, plotH-marginB-y)
	}
	dc.Fill()

	return dc.SavePNG(path)
}

// Surface renders a pixel cutout as a gamma-scaled grayscale image
// with the title drawn on top.
func Surface(path, title string, buf *pixels.Buffer) error {
	img := grayImage(buf, 0)
	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 1, 0)
	dc.DrawString(title, 5, 13)
	return dc.SavePNG(path)
}

// Contour renders a pixel cutout banded into nLevels intensity levels.
func Contour(path, title string, buf *pixels.Buffer, nLevels int) error {
	if nLevels < 2 {
		nLevels = 2
	}
	img := grayImage(buf, nLevels)
	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 1, 0)
	dc.DrawString(title, 5, 13)
	return dc.SavePNG(path)
}

// grayImage maps buffer values to gamma-scaled gray, scaled up so
// small cutouts stay readable. nLevels > 0 posterizes into bands.
func grayImage(buf *pixels.Buffer, nLevels int) image.Image {
	min, max := buf.MinMax()
	span := max - min
	if span == 0 {
		span = 1
	}

	scale := 1
	for scale*buf.Width() < 256 && scale < 16 {
		scale *= 2
	}

	img := image.NewGray16(image.Rect(0, 0, buf.Width()*scale, buf.Height()*scale))
	for y := 0; y < buf.Height(); y++ {
		for x := 0; x < buf.Width(); x++ {
			v := (buf.At(x, y) - min) / span
			// NaN pixels (blank FITS values) render black; the float
			// to uint16 conversion needs v inside [0, 1] either way.
			if math.IsNaN(v) || v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			if nLevels > 0 {
				v = math.Floor(v*float64(nLevels)) / float64(nLevels)
			}
			gray := uint16(math.Sqrt(v) * 65535)
			// Flip y: image origin is top-left, pixel origin bottom-left.
			yy := buf.Height() - 1 - y
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetGray16(x*scale+dx, yy*scale+dy, color.Gray16{Y: gray})
				}
			}
		}
	}
	return img
}

func newCanvas(title, xLabel string, xmin, xmax, ymin, ymax float64) *gg.Context {
	dc := gg.NewContext(plotW, plotH)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(marginL, marginT, marginL, plotH-marginB)
	dc.DrawLine(marginL, plotH-marginB, plotW-marginR, plotH-marginB)
	dc.Stroke()

	dc.DrawStringAnchored(title, plotW/2, marginT/2, 0.5, 0.5)
	dc.DrawStringAnchored(xLabel, plotW/2, plotH-marginB/2, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.4g", xmin), marginL, plotH-marginB+15, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.4g", xmax), plotW-marginR, plotH-marginB+15, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.4g", ymin), marginL-5, plotH-marginB, 1, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.4g", ymax), marginL-5, marginT, 1, 0.5)
	return dc
}

// minPositive returns the smallest positive value across the series,
// or 0 when there is none (log scaling is skipped in that case).
func minPositive(series ...[]float64) float64 {
	floor := 0.0
	for _, values := range series {
		for _, v := range values {
			if v > 0 && (floor == 0 || v < floor) {
				floor = v
			}
		}
	}
	return floor
}

func log10Series(values []float64, floor float64) []float64 {
	if values == nil {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		if v < floor {
			v = floor
		}
		out[i] = math.Log10(v)
	}
	return out
}

func minMax(values []float64) (float64, float64) {
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
