package fits

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/astrogo/fitsio"
)

func writeTestFITS(t *testing.T, bitpix int, axes []int, data any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.fits")
	w, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	defer w.Close()

	f, err := fitsio.Create(w)
	if err != nil {
		t.Fatalf("create FITS: %v", err)
	}
	defer f.Close()

	img := fitsio.NewImage(bitpix, axes)
	defer img.Close()
	if err := img.Write(data); err != nil {
		t.Fatalf("write image data: %v", err)
	}
	if err := f.Write(img); err != nil {
		t.Fatalf("write HDU: %v", err)
	}
	return path
}

func TestLoadFloat32(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6}
	path := writeTestFITS(t, -32, []int{3, 2}, &data)

	buf, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if buf.Width() != 3 || buf.Height() != 2 {
		t.Errorf("dimensions = %dx%d, want 3x2", buf.Width(), buf.Height())
	}
	if buf.At(0, 0) != 1 || buf.At(2, 1) != 6 {
		t.Errorf("values = %v", buf.Values())
	}
}

func TestLoadInt16(t *testing.T) {
	data := []int16{10, 20, 30, 40}
	path := writeTestFITS(t, 16, []int{2, 2}, &data)

	buf, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if buf.At(1, 1) != 40 {
		t.Errorf("At(1,1) = %v, want 40", buf.At(1, 1))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.fits")); err == nil {
		t.Errorf("Load accepted a missing file")
	}
}
