package examine

import (
	"fmt"
	"math"

	"github.com/cdeil/imexam/internal/pixels"
	"github.com/cdeil/imexam/internal/plot"
	"github.com/cdeil/imexam/internal/registry"
)

// LinePlot plots the full image row under the cursor, log-scaled when
// the logy setting is non-zero.
func (e *Examiner) LinePlot(buf *pixels.Buffer, x, y float64, p registry.Params) error {
	logy := param(p, "logy", 0) != 0
	_, yi := buf.ClampIndex(x, y)
	ys := buf.Row(yi)
	xs := indexRange(0, buf.Width())

	path := e.plots.Next("line")
	title := fmt.Sprintf("line %d", yi)
	if err := plot.Profile(path, title, "x [pix]", xs, ys, nil, logy); err != nil {
		return err
	}
	e.reportf("line plot y=%d -> %s\n", yi, path)
	return nil
}

// ColumnPlot plots the full image column under the cursor, log-scaled
// when the logy setting is non-zero.
func (e *Examiner) ColumnPlot(buf *pixels.Buffer, x, y float64, p registry.Params) error {
	logy := param(p, "logy", 0) != 0
	xi, _ := buf.ClampIndex(x, y)
	ys := buf.Column(xi)
	xs := indexRange(0, buf.Height())

	path := e.plots.Next("column")
	title := fmt.Sprintf("column %d", xi)
	if err := plot.Profile(path, title, "y [pix]", xs, ys, nil, logy); err != nil {
		return err
	}
	e.reportf("column plot x=%d -> %s\n", xi, path)
	return nil
}

// LineFit fits a gaussian to the row segment around the cursor and
// plots data and model.
func (e *Examiner) LineFit(buf *pixels.Buffer, x, y float64, p registry.Params) error {
	size := int(param(p, "size", 20))
	xi, yi := buf.ClampIndex(x, y)

	x0 := xi - size
	x1 := xi + size + 1
	if x0 < 0 {
		x0 = 0
	}
	if x1 > buf.Width() {
		x1 = buf.Width()
	}
	values := append([]float64(nil), buf.Row(yi)[x0:x1]...)
	xs := indexRange(x0, x1)

	return e.fitAndPlot(xs, values, fmt.Sprintf("line %d", yi), "x [pix]", "linefit")
}

// ColumnFit fits a gaussian to the column segment around the cursor
// and plots data and model.
func (e *Examiner) ColumnFit(buf *pixels.Buffer, x, y float64, p registry.Params) error {
	size := int(param(p, "size", 20))
	xi, yi := buf.ClampIndex(x, y)

	y0 := yi - size
	y1 := yi + size + 1
	if y0 < 0 {
		y0 = 0
	}
	if y1 > buf.Height() {
		y1 = buf.Height()
	}
	column := buf.Column(xi)
	values := column[y0:y1]
	xs := indexRange(y0, y1)

	return e.fitAndPlot(xs, values, fmt.Sprintf("column %d", xi), "y [pix]", "colfit")
}

func (e *Examiner) fitAndPlot(xs, values []float64, what, xLabel, suffix string) error {
	fit := fitGaussian(xs, values)
	model := make([]float64, len(xs))
	for i, xv := range xs {
		model[i] = fit.eval(xv)
	}

	path := e.plots.Next(suffix)
	title := fmt.Sprintf("gaussian fit %s", what)
	if err := plot.Profile(path, title, xLabel, xs, values, model, false); err != nil {
		return err
	}
	e.reportf("gaussian fit %s: center=%.2f fwhm=%.2f amp=%.1f bg=%.1f -> %s\n",
		what, fit.center, fit.fwhm(), fit.amp, fit.background, path)
	return nil
}

// gaussianFit holds moment estimates of a 1-D gaussian profile over a
// flat background.
type gaussianFit struct {
	amp        float64
	center     float64
	sigma      float64
	background float64
}

const fwhmPerSigma = 2.35482

func (g gaussianFit) fwhm() float64 { return fwhmPerSigma * g.sigma }

func (g gaussianFit) eval(x float64) float64 {
	d := x - g.center
	return g.background + g.amp*math.Exp(-d*d/(2*g.sigma*g.sigma))
}

// fitGaussian estimates amplitude, center and sigma from the weighted
// moments of the background-subtracted profile. Good enough for a
// quick look; not a least-squares fit.
func fitGaussian(xs, values []float64) gaussianFit {
	background := values[0]
	peak := values[0]
	for _, v := range values {
		if v < background {
			background = v
		}
		if v > peak {
			peak = v
		}
	}

	var sumW, sumWX float64
	for i, v := range values {
		w := v - background
		if w <= 0 {
			continue
		}
		sumW += w
		sumWX += w * xs[i]
	}
	if sumW == 0 {
		return gaussianFit{background: background, center: xs[len(xs)/2], sigma: 1}
	}
	center := sumWX / sumW

	var sumWV float64
	for i, v := range values {
		w := v - background
		if w <= 0 {
			continue
		}
		d := xs[i] - center
		sumWV += w * d * d
	}
	sigma := math.Sqrt(sumWV / sumW)
	if sigma == 0 {
		sigma = 0.5
	}

	return gaussianFit{
		amp:        peak - background,
		center:     center,
		sigma:      sigma,
		background: background,
	}
}

func indexRange(lo, hi int) []float64 {
	out := make([]float64, hi-lo)
	for i := range out {
		out[i] = float64(lo + i)
	}
	return out
}

func fmtCursor(what string, x, y float64) string {
	return fmt.Sprintf("%s at (%.1f, %.1f)", what, x, y)
}
