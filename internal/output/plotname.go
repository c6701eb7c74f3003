package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// PlotNamer hands out output paths for handler plots: a settable base
// name plus a per-session counter, so repeated key presses never
// overwrite earlier plots.
type PlotNamer struct {
	mu      sync.Mutex
	dir     string
	base    string
	counter int
}

func NewPlotNamer(dir, base string) (*PlotNamer, error) {
	if base == "" {
		base = "imexam"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &PlotNamer{dir: dir, base: base}, nil
}

// Next returns the path for the next plot, e.g. plots/imexam_003_aperphot.png.
func (p *PlotNamer) Next(suffix string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counter++
	return filepath.Join(p.dir, fmt.Sprintf("%s_%03d_%s.png", p.base, p.counter, suffix))
}

func (p *PlotNamer) Base() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.base
}

// SetBase changes the base name for subsequent plots. An error is
// returned when a plot with the new base already exists, so plots from
// an earlier run are not overwritten.
func (p *PlotNamer) SetBase(base string) error {
	if base == "" {
		return fmt.Errorf("empty plot base name")
	}
	matches, err := filepath.Glob(filepath.Join(p.dir, base+"_*.png"))
	if err != nil {
		return err
	}
	if len(matches) > 0 {
		return fmt.Errorf("plots named %q already exist in %s", base, p.dir)
	}
	p.mu.Lock()
	p.base = base
	p.counter = 0
	p.mu.Unlock()
	return nil
}
