package fits

import (
	"fmt"
	"os"

	"github.com/astrogo/fitsio"

	"github.com/cdeil/imexam/internal/pixels"
)

// Load reads the primary HDU of a FITS file into a pixel buffer,
// converting whatever BITPIX the file uses to float64.
func Load(path string) (*pixels.Buffer, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("open FITS %q: %w", path, err)
	}
	defer f.Close()

	hdu := f.HDU(0)
	img, ok := hdu.(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("%q: primary HDU is not an image", path)
	}

	hdr := img.Header()
	axes := hdr.Axes()
	if len(axes) < 2 {
		return nil, fmt.Errorf("%q: need a 2-D image, got %d axes", path, len(axes))
	}
	// NAXIS1 is the fast axis: width.
	width, height := axes[0], axes[1]

	values, err := readValues(img, hdr.Bitpix(), width*height)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	return pixels.FromSlice(width, height, values)
}

func readValues(img fitsio.Image, bitpix, n int) ([]float64, error) {
	switch bitpix {
	case 8:
		data := make([]int8, 0, n)
		if err := img.Read(&data); err != nil {
			return nil, err
		}
		return widen(data, n)
	case 16:
		data := make([]int16, 0, n)
		if err := img.Read(&data); err != nil {
			return nil, err
		}
		return widen(data, n)
	case 32:
		data := make([]int32, 0, n)
		if err := img.Read(&data); err != nil {
			return nil, err
		}
		return widen(data, n)
	case 64:
		data := make([]int64, 0, n)
		if err := img.Read(&data); err != nil {
			return nil, err
		}
		return widen(data, n)
	case -32:
		data := make([]float32, 0, n)
		if err := img.Read(&data); err != nil {
			return nil, err
		}
		return widen(data, n)
	case -64:
		data := make([]float64, 0, n)
		if err := img.Read(&data); err != nil {
			return nil, err
		}
		return widen(data, n)
	default:
		return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
	}
}

func widen[T int8 | int16 | int32 | int64 | float32 | float64](data []T, n int) ([]float64, error) {
	if len(data) != n {
		return nil, fmt.Errorf("image has %d values, expected %d", len(data), n)
	}
	out := make([]float64, n)
	for i, v := range data {
		out[i] = float64(v)
	}
	return out, nil
}
