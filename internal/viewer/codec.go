package viewer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"

	"github.com/cdeil/imexam/internal/pixels"
)

// Pixel payloads arrive as RFC 8746 typed multi-dimensional arrays
// (tag 40 wrapping a little-endian typed array), or as a plain CBOR
// array plus explicit width/height fields for bridges that do not tag.
const (
	tagMultiDimArray = 40
	tagUint8         = 64
	tagUint16LE      = 69
	tagUint32LE      = 70
	tagFloat32LE     = 85
	tagFloat64LE     = 86
)

func decodeResponse(msg []byte) (map[string]any, error) {
	var payload map[string]any
	if err := cbor.Unmarshal(msg, &payload); err != nil {
		return nil, fmt.Errorf("decode bridge response: %w", err)
	}
	if errMsg, ok := payload["error"].(string); ok && errMsg != "" {
		return nil, fmt.Errorf("bridge error: %s", errMsg)
	}
	return payload, nil
}

func decodePixelPayload(payload map[string]any) (*pixels.Buffer, error) {
	raw, ok := payload["pixels"]
	if !ok {
		return nil, errors.New("bridge response has no pixels field")
	}

	if tag, ok := raw.(cbor.Tag); ok {
		return decodeMultiDimArray(tag)
	}

	width, err := toInt(payload["width"])
	if err != nil {
		return nil, fmt.Errorf("invalid width: %w", err)
	}
	height, err := toInt(payload["height"])
	if err != nil {
		return nil, fmt.Errorf("invalid height: %w", err)
	}
	values, err := toFloatSlice(raw)
	if err != nil {
		return nil, err
	}
	return pixels.FromSlice(width, height, values)
}

func decodeMultiDimArray(tag cbor.Tag) (*pixels.Buffer, error) {
	if tag.Number != tagMultiDimArray {
		return nil, fmt.Errorf("expected multidim tag %d, got %d", tagMultiDimArray, tag.Number)
	}
	items, ok := tag.Content.([]any)
	if !ok || len(items) != 2 {
		return nil, errors.New("invalid multidim array content")
	}
	dimsRaw, ok := items[0].([]any)
	if !ok || len(dimsRaw) != 2 {
		return nil, errors.New("invalid multidim dimensions")
	}
	rows, err := toInt(dimsRaw[0])
	if err != nil {
		return nil, err
	}
	cols, err := toInt(dimsRaw[1])
	if err != nil {
		return nil, err
	}

	values, err := decodeTypedArray(items[1])
	if err != nil {
		return nil, err
	}
	if rows*cols != len(values) {
		return nil, fmt.Errorf("dimension mismatch: %dx%d vs %d values", rows, cols, len(values))
	}
	return pixels.FromSlice(cols, rows, values)
}

func decodeTypedArray(value any) ([]float64, error) {
	tag, ok := value.(cbor.Tag)
	if !ok {
		return nil, errors.New("expected typed array tag")
	}
	data, ok := tag.Content.([]byte)
	if !ok {
		return nil, fmt.Errorf("unsupported typed array content %T", tag.Content)
	}

	switch tag.Number {
	case tagUint8:
		out := make([]float64, len(data))
		for i, v := range data {
			out[i] = float64(v)
		}
		return out, nil
	case tagUint16LE:
		out := make([]float64, len(data)/2)
		for i := range out {
			out[i] = float64(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		}
		return out, nil
	case tagUint32LE:
		out := make([]float64, len(data)/4)
		for i := range out {
			out[i] = float64(binary.LittleEndian.Uint32(data[i*4 : i*4+4]))
		}
		return out, nil
	case tagFloat32LE:
		out := make([]float64, len(data)/4)
		for i := range out {
			bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
			out[i] = float64(math.Float32frombits(bits))
		}
		return out, nil
	case tagFloat64LE:
		out := make([]float64, len(data)/8)
		for i := range out {
			bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
			out[i] = math.Float64frombits(bits)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported typed array tag %d", tag.Number)
	}
}

func toFloatSlice(value any) ([]float64, error) {
	switch v := value.(type) {
	case []float64:
		return v, nil
	case []any:
		out := make([]float64, len(v))
		for i, item := range v {
			f, err := toFloat(item)
			if err != nil {
				return nil, fmt.Errorf("pixel %d: %w", i, err)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported pixels type %T", value)
	}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case uint32:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("unsupported int type %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("unsupported float type %T", v)
	}
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}
