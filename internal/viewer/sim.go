package viewer

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/cdeil/imexam/internal/config"
	"github.com/cdeil/imexam/internal/fits"
	"github.com/cdeil/imexam/internal/pixels"
	"github.com/cdeil/imexam/internal/types"
)

// simViewer is a stand-in display tool for running without DS9 or a
// browser. It shows a FITS file or a synthetic star field and reads
// cursor events as "x y key" lines from a script file or stdin.
type simViewer struct {
	filename string
	buf      *pixels.Buffer
	scanner  *bufio.Scanner
	closer   io.Closer
}

const simGridSize = 128

func newSim(cfg config.AppConfig) (*simViewer, error) {
	v := &simViewer{}

	if cfg.SimFile != "" {
		buf, err := fits.Load(cfg.SimFile)
		if err != nil {
			return nil, err
		}
		v.buf = buf
		v.filename = cfg.SimFile
	} else {
		v.buf = syntheticField(simGridSize, simGridSize)
		v.filename = "simulated"
	}

	if cfg.SimScript != "" {
		f, err := os.Open(cfg.SimScript)
		if err != nil {
			return nil, err
		}
		v.scanner = bufio.NewScanner(f)
		v.closer = f
	} else {
		v.scanner = bufio.NewScanner(os.Stdin)
	}
	return v, nil
}

// syntheticField builds a star field: a handful of gaussian sources on
// a flat background with poisson-like noise.
func syntheticField(w, h int) *pixels.Buffer {
	rng := rand.New(rand.NewSource(42))
	buf := pixels.New(w, h)

	const background = 100.0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.Set(x, y, background+rng.NormFloat64()*math.Sqrt(background))
		}
	}

	type source struct{ x, y, amp, sigma float64 }
	sources := []source{
		{float64(w) / 2, float64(h) / 2, 2000, 2.5},
		{float64(w) * 0.25, float64(h) * 0.7, 800, 1.8},
		{float64(w) * 0.8, float64(h) * 0.3, 1200, 3.0},
	}
	for _, s := range sources {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dx := float64(x) - s.x
				dy := float64(y) - s.y
				v := s.amp * math.Exp(-(dx*dx+dy*dy)/(2*s.sigma*s.sigma))
				buf.Set(x, y, buf.At(x, y)+v)
			}
		}
	}
	return buf
}

func (v *simViewer) FrameID() (string, error)  { return "1", nil }
func (v *simViewer) Filename() (string, error) { return v.filename, nil }

func (v *simViewer) PixelData() (*pixels.Buffer, error) { return v.buf, nil }

// ReadCursor parses one "x y key" line. Unparsable lines yield an
// event with an empty key so the session reports invalid input and
// keeps going; end of input is a read failure, which quits the
// session the way a closed viewer connection would.
func (v *simViewer) ReadCursor() (types.CursorEvent, error) {
	if !v.scanner.Scan() {
		if v.closer != nil {
			_ = v.closer.Close()
		}
		if err := v.scanner.Err(); err != nil {
			return types.CursorEvent{}, fmt.Errorf("%w: %v", ErrReadFailure, err)
		}
		return types.CursorEvent{}, fmt.Errorf("%w: event stream ended", ErrReadFailure)
	}
	fields := strings.Fields(v.scanner.Text())
	if len(fields) != 3 {
		return types.CursorEvent{}, nil
	}
	x, errX := strconv.ParseFloat(fields[0], 64)
	y, errY := strconv.ParseFloat(fields[1], 64)
	if errX != nil || errY != nil {
		return types.CursorEvent{}, nil
	}
	return types.CursorEvent{X: x, Y: y, Key: fields[2]}, nil
}
