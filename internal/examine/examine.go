// Package examine holds the built-in analysis routines bound to keys
// during an examination session: aperture photometry, profiles and
// fits, histograms, statistics, contour and surface plots. Each
// routine reads its settings from the parameter record of its key
// binding and writes a plot or a textual report.
package examine

import (
	"fmt"
	"io"

	"github.com/cdeil/imexam/internal/output"
	"github.com/cdeil/imexam/internal/pixels"
	"github.com/cdeil/imexam/internal/registry"
)

type Examiner struct {
	plots   *output.PlotNamer
	reports *output.ReportWriter
	out     io.Writer
}

// New wires the analysis routines to their output sinks. reports may
// be nil to skip the report file.
func New(plots *output.PlotNamer, reports *output.ReportWriter, out io.Writer) *Examiner {
	return &Examiner{plots: plots, reports: reports, out: out}
}

// DefaultBindings returns the standard imexam key set. Register keeps
// these in sorted key order, which is also their menu order.
func (e *Examiner) DefaultBindings() map[string]registry.Binding {
	return map[string]registry.Binding{
		"a": {
			Description: "aperture photometry at cursor",
			Handler:     e.AperPhot,
			Params: registry.Params{
				"radius": 5, "annulus": 15, "width": 5, "zmag": 25,
			},
		},
		"c": {
			Description: "column plot through cursor",
			Handler:     e.ColumnPlot,
			Params:      registry.Params{"logy": 0},
		},
		"e": {
			Description: "contour plot around cursor",
			Handler:     e.Contour,
			Params:      registry.Params{"size": 21, "levels": 8},
		},
		"h": {
			Description: "histogram around cursor",
			Handler:     e.Histogram,
			Params:      registry.Params{"size": 21, "nbins": 50},
		},
		"j": {
			Description: "1D gaussian fit to line through cursor",
			Handler:     e.LineFit,
			Params:      registry.Params{"size": 20},
		},
		"k": {
			Description: "1D gaussian fit to column through cursor",
			Handler:     e.ColumnFit,
			Params:      registry.Params{"size": 20},
		},
		"l": {
			Description: "line plot through cursor",
			Handler:     e.LinePlot,
			Params:      registry.Params{"logy": 0},
		},
		"m": {
			Description: "statistics around cursor",
			Handler:     e.Stats,
			Params:      registry.Params{"size": 5},
		},
		"r": {
			Description: "curve of growth at cursor",
			Handler:     e.CurveOfGrowth,
			Params:      registry.Params{"rmax": 12},
		},
		"w": {
			Description: "surface plot around cursor",
			Handler:     e.Surface,
			Params:      registry.Params{"size": 21},
		},
	}
}

// reportf writes a result line to the console and, when configured,
// to the session report file.
func (e *Examiner) reportf(format string, args ...any) {
	fmt.Fprintf(e.out, format, args...)
	if e.reports != nil {
		_ = e.reports.Printf(format, args...)
	}
}

// param reads one setting with a fallback for records that lost it.
func param(p registry.Params, name string, fallback float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return fallback
}

// cutoutAround extracts a size x size region centered on the cursor,
// clamped to the buffer.
func cutoutAround(buf *pixels.Buffer, x, y float64, size int) *pixels.Buffer {
	if size < 1 {
		size = 1
	}
	cx, cy := buf.ClampIndex(x, y)
	half := size / 2
	return buf.Cutout(cx-half, cy-half, cx-half+size, cy-half+size)
}
