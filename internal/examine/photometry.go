package examine

import (
	"math"
	"sort"

	"github.com/cdeil/imexam/internal/pixels"
	"github.com/cdeil/imexam/internal/plot"
	"github.com/cdeil/imexam/internal/registry"
)

// AperPhot sums the flux in a circular aperture at the cursor, with
// the background estimated as the median of an annulus, and reports
// net flux and instrumental magnitude.
func (e *Examiner) AperPhot(buf *pixels.Buffer, x, y float64, p registry.Params) error {
	radius := param(p, "radius", 5)
	annulus := param(p, "annulus", 15)
	width := param(p, "width", 5)
	zmag := param(p, "zmag", 25)

	flux, npix := apertureSum(buf, x, y, radius)
	sky := annulusMedian(buf, x, y, annulus, annulus+width)
	net := flux - sky*float64(npix)

	mag := math.NaN()
	if net > 0 {
		mag = zmag - 2.5*math.Log10(net)
	}

	e.reportf("aperphot  x=%.2f y=%.2f radius=%.1f\n", x, y, radius)
	e.reportf("  flux=%.1f sky/pix=%.2f npix=%d net=%.1f mag=%.3f\n",
		flux, sky, npix, net, mag)
	return nil
}

// CurveOfGrowth plots enclosed flux against aperture radius, a quick
// check of how much of a source the photometry aperture captures.
func (e *Examiner) CurveOfGrowth(buf *pixels.Buffer, x, y float64, p registry.Params) error {
	rmax := int(param(p, "rmax", 12))
	if rmax < 1 {
		rmax = 1
	}

	radii := make([]float64, rmax)
	fluxes := make([]float64, rmax)
	for r := 1; r <= rmax; r++ {
		radii[r-1] = float64(r)
		flux, _ := apertureSum(buf, x, y, float64(r))
		fluxes[r-1] = flux
	}

	path := e.plots.Next("radial")
	title := fmtCursor("curve of growth", x, y)
	if err := plot.Profile(path, title, "aperture radius [pix]", radii, fluxes, nil, false); err != nil {
		return err
	}
	e.reportf("curve of growth  x=%.2f y=%.2f rmax=%d -> %s\n", x, y, rmax, path)
	return nil
}

func apertureSum(buf *pixels.Buffer, x, y, radius float64) (float64, int) {
	x0 := int(math.Floor(x - radius))
	x1 := int(math.Ceil(x + radius))
	y0 := int(math.Floor(y - radius))
	y1 := int(math.Ceil(y + radius))

	var flux float64
	var npix int
	for yy := y0; yy <= y1; yy++ {
		for xx := x0; xx <= x1; xx++ {
			if !buf.Inside(xx, yy) {
				continue
			}
			dx := float64(xx) - x
			dy := float64(yy) - y
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			flux += buf.At(xx, yy)
			npix++
		}
	}
	return flux, npix
}

func annulusMedian(buf *pixels.Buffer, x, y, rin, rout float64) float64 {
	x0 := int(math.Floor(x - rout))
	x1 := int(math.Ceil(x + rout))
	y0 := int(math.Floor(y - rout))
	y1 := int(math.Ceil(y + rout))

	var values []float64
	for yy := y0; yy <= y1; yy++ {
		for xx := x0; xx <= x1; xx++ {
			if !buf.Inside(xx, yy) {
				continue
			}
			dx := float64(xx) - x
			dy := float64(yy) - y
			r2 := dx*dx + dy*dy
			if r2 < rin*rin || r2 > rout*rout {
				continue
			}
			values = append(values, buf.At(xx, yy))
		}
	}
	return median(values)
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
