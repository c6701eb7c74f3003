package plot

import (
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cdeil/imexam/internal/pixels"
)

func mustExist(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("plot not written: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("plot %s is empty", path)
	}
}

func TestProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.png")
	xs := []float64{0, 1, 2, 3}
	ys := []float64{1, 4, 9, 16}
	fit := []float64{1.1, 3.9, 9.2, 15.8}

	if err := Profile(path, "test profile", "x [pix]", xs, ys, fit, false); err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	mustExist(t, path)

	if err := Profile(path, "bad", "x", []float64{1, 2}, []float64{1}, nil, false); err == nil {
		t.Errorf("mismatched lengths accepted")
	}
	if err := Profile(path, "bad", "x", nil, nil, nil, false); err == nil {
		t.Errorf("empty profile accepted")
	}
}

func TestProfileConstantValues(t *testing.T) {
	// A flat profile must not divide by a zero value range.
	path := filepath.Join(t.TempDir(), "flat.png")
	xs := []float64{0, 1, 2}
	ys := []float64{5, 5, 5}
	if err := Profile(path, "flat", "x", xs, ys, nil, false); err != nil {
		t.Fatalf("Profile failed on flat data: %v", err)
	}
	mustExist(t, path)
}

func TestProfileLogScale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.png")
	xs := []float64{0, 1, 2, 3}
	ys := []float64{1, 10, 100, 1000}
	if err := Profile(path, "log profile", "x", xs, ys, nil, true); err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	mustExist(t, path)

	// Zeros and negatives are floored, not a failure.
	floored := filepath.Join(t.TempDir(), "floored.png")
	if err := Profile(floored, "log profile", "x", xs, []float64{0, -5, 10, 100}, nil, true); err != nil {
		t.Fatalf("Profile failed on non-positive values: %v", err)
	}
	mustExist(t, floored)

	// All non-positive: log scaling is skipped, the plot still renders.
	linear := filepath.Join(t.TempDir(), "linear.png")
	if err := Profile(linear, "log profile", "x", xs, []float64{0, -1, -2, -3}, nil, true); err != nil {
		t.Fatalf("Profile failed on all non-positive values: %v", err)
	}
	mustExist(t, linear)
}

func TestLog10Series(t *testing.T) {
	got := log10Series([]float64{0.1, 1, 100, 0}, 0.1)
	want := []float64{-1, 0, 2, -1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("log10Series = %v, want %v", got, want)
		}
	}
	if log10Series(nil, 1) != nil {
		t.Errorf("nil series must stay nil")
	}
	if minPositive([]float64{-1, 0}, nil) != 0 {
		t.Errorf("minPositive of non-positive series must be 0")
	}
	if got := minPositive([]float64{3, -1}, []float64{0.5}); got != 0.5 {
		t.Errorf("minPositive = %v, want 0.5", got)
	}
}

func TestHistogram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hist.png")
	edges := []float64{0, 1, 2, 3}
	counts := []float64{5, 0, 2}

	if err := Histogram(path, "test histogram", edges, counts); err != nil {
		t.Fatalf("Histogram failed: %v", err)
	}
	mustExist(t, path)

	if err := Histogram(path, "bad", edges, []float64{1}); err == nil {
		t.Errorf("mismatched lengths accepted")
	}
}

func TestGrayImageHandlesNaN(t *testing.T) {
	buf, err := pixels.FromSlice(2, 2, []float64{0, 10, math.NaN(), 5})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	img := grayImage(buf, 0).(*image.Gray16)

	// Buffer y is flipped into image y; (0,1) holds the NaN.
	if got := img.Gray16At(0, 0).Y; got != 0 {
		t.Errorf("NaN pixel = %d, want black", got)
	}
	if got := img.Gray16At(16, 16).Y; got != 65535 {
		t.Errorf("max pixel = %d, want full white", got)
	}
}

func TestSurfaceHandlesNaN(t *testing.T) {
	buf := pixels.New(9, 9)
	buf.Set(4, 4, 100)
	buf.Set(0, 0, math.NaN())

	path := filepath.Join(t.TempDir(), "nan.png")
	if err := Surface(path, "surface", buf); err != nil {
		t.Fatalf("Surface failed on NaN data: %v", err)
	}
	mustExist(t, path)
}

func TestSurfaceAndContour(t *testing.T) {
	buf := pixels.New(9, 9)
	buf.Set(4, 4, 100)

	surface := filepath.Join(t.TempDir(), "surface.png")
	if err := Surface(surface, "surface", buf); err != nil {
		t.Fatalf("Surface failed: %v", err)
	}
	mustExist(t, surface)

	contour := filepath.Join(t.TempDir(), "contour.png")
	if err := Contour(contour, "contour", buf, 5); err != nil {
		t.Fatalf("Contour failed: %v", err)
	}
	mustExist(t, contour)
}
