package examine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cdeil/imexam/internal/pixels"
	"github.com/cdeil/imexam/internal/plot"
	"github.com/cdeil/imexam/internal/registry"
)

// Stats reports summary statistics of the region around the cursor.
func (e *Examiner) Stats(buf *pixels.Buffer, x, y float64, p registry.Params) error {
	size := int(param(p, "size", 5))
	region := cutoutAround(buf, x, y, size)
	values := region.Values()

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mean := stat.Mean(values, nil)
	stddev := stat.StdDev(values, nil)
	med := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	e.reportf("stats  x=%.2f y=%.2f region=%dx%d\n",
		x, y, region.Width(), region.Height())
	e.reportf("  npix=%d mean=%.3f median=%.3f stddev=%.3f min=%.3f max=%.3f\n",
		len(values), mean, med, stddev, sorted[0], sorted[len(sorted)-1])
	return nil
}

// Histogram plots the pixel value distribution of the region around
// the cursor.
func (e *Examiner) Histogram(buf *pixels.Buffer, x, y float64, p registry.Params) error {
	size := int(param(p, "size", 21))
	nbins := int(param(p, "nbins", 50))
	if nbins < 1 {
		nbins = 1
	}

	region := cutoutAround(buf, x, y, size)
	values := append([]float64(nil), region.Values()...)
	sort.Float64s(values)

	lo := values[0]
	hi := values[len(values)-1]
	if hi == lo {
		hi = lo + 1
	}
	dividers := make([]float64, nbins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram requires the last divider to be strictly greater
	// than the largest sample. A relative epsilon gets absorbed when the
	// values sit on a large offset, so step to the next float instead.
	dividers[nbins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, values, nil)

	path := e.plots.Next("hist")
	title := fmtCursor("histogram", x, y)
	if err := plot.Histogram(path, title, dividers, counts); err != nil {
		return err
	}
	e.reportf("histogram  x=%.2f y=%.2f nbins=%d -> %s\n", x, y, nbins, path)
	return nil
}

// Contour renders a banded contour view of the region around the
// cursor.
func (e *Examiner) Contour(buf *pixels.Buffer, x, y float64, p registry.Params) error {
	size := int(param(p, "size", 21))
	levels := int(param(p, "levels", 8))
	region := cutoutAround(buf, x, y, size)

	path := e.plots.Next("contour")
	title := fmtCursor("contour", x, y)
	if err := plot.Contour(path, title, region, levels); err != nil {
		return err
	}
	e.reportf("contour  x=%.2f y=%.2f levels=%d -> %s\n", x, y, levels, path)
	return nil
}

// Surface renders the region around the cursor as a grayscale
// surface image.
func (e *Examiner) Surface(buf *pixels.Buffer, x, y float64, p registry.Params) error {
	size := int(param(p, "size", 21))
	region := cutoutAround(buf, x, y, size)

	path := e.plots.Next("surface")
	title := fmtCursor("surface", x, y)
	if err := plot.Surface(path, title, region); err != nil {
		return err
	}
	e.reportf("surface  x=%.2f y=%.2f -> %s\n", x, y, path)
	return nil
}
