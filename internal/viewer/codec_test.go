package viewer

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func TestDecodeResponseError(t *testing.T) {
	msg, err := cbor.Marshal(map[string]any{"error": "no image loaded"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if _, err := decodeResponse(msg); err == nil || !strings.Contains(err.Error(), "no image loaded") {
		t.Errorf("err = %v, want bridge error surfaced", err)
	}
}

func TestDecodePixelPayloadPlainArray(t *testing.T) {
	msg, err := cbor.Marshal(map[string]any{
		"width":  3,
		"height": 2,
		"pixels": []float64{1, 2, 3, 4, 5, 6},
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	resp, err := decodeResponse(msg)
	if err != nil {
		t.Fatalf("decodeResponse failed: %v", err)
	}

	buf, err := decodePixelPayload(resp)
	if err != nil {
		t.Fatalf("decodePixelPayload failed: %v", err)
	}
	if buf.Width() != 3 || buf.Height() != 2 {
		t.Errorf("dimensions = %dx%d, want 3x2", buf.Width(), buf.Height())
	}
	if buf.At(2, 1) != 6 {
		t.Errorf("At(2,1) = %v, want 6", buf.At(2, 1))
	}
}

func TestDecodePixelPayloadMultiDimArray(t *testing.T) {
	// Tag 40 wraps [dims, typed array]: 2 rows, 3 columns of float32 LE.
	values := []float32{1, 2, 3, 4, 5, 6}
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	msg, err := cbor.Marshal(map[string]any{
		"pixels": cbor.Tag{
			Number: tagMultiDimArray,
			Content: []any{
				[]any{2, 3},
				cbor.Tag{Number: tagFloat32LE, Content: data},
			},
		},
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	resp, err := decodeResponse(msg)
	if err != nil {
		t.Fatalf("decodeResponse failed: %v", err)
	}
	buf, err := decodePixelPayload(resp)
	if err != nil {
		t.Fatalf("decodePixelPayload failed: %v", err)
	}
	if buf.Width() != 3 || buf.Height() != 2 {
		t.Errorf("dimensions = %dx%d, want 3x2", buf.Width(), buf.Height())
	}
	if buf.At(0, 1) != 4 {
		t.Errorf("At(0,1) = %v, want 4", buf.At(0, 1))
	}
}

func TestDecodePixelPayloadMissingPixels(t *testing.T) {
	if _, err := decodePixelPayload(map[string]any{"width": 3}); err == nil {
		t.Errorf("missing pixels field accepted")
	}
}

func TestDecodeTypedArray(t *testing.T) {
	u16 := make([]byte, 4)
	binary.LittleEndian.PutUint16(u16[0:], 100)
	binary.LittleEndian.PutUint16(u16[2:], 65535)

	f64 := make([]byte, 16)
	binary.LittleEndian.PutUint64(f64[0:], math.Float64bits(1.5))
	binary.LittleEndian.PutUint64(f64[8:], math.Float64bits(-2.5))

	cases := []struct {
		name string
		tag  cbor.Tag
		want []float64
	}{
		{"uint8", cbor.Tag{Number: tagUint8, Content: []byte{0, 7, 255}}, []float64{0, 7, 255}},
		{"uint16le", cbor.Tag{Number: tagUint16LE, Content: u16}, []float64{100, 65535}},
		{"float64le", cbor.Tag{Number: tagFloat64LE, Content: f64}, []float64{1.5, -2.5}},
	}
	for _, tc := range cases {
		got, err := decodeTypedArray(tc.tag)
		if err != nil {
			t.Errorf("%s: decodeTypedArray failed: %v", tc.name, err)
			continue
		}
		if len(got) != len(tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
			continue
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
				break
			}
		}
	}

	if _, err := decodeTypedArray(cbor.Tag{Number: 99, Content: []byte{1}}); err == nil {
		t.Errorf("unsupported tag accepted")
	}
}

func TestCursorFromResponse(t *testing.T) {
	ev := cursorFromResponse(map[string]any{"x": 10.5, "y": 20.25, "key": "a"})
	if ev.X != 10.5 || ev.Y != 20.25 || ev.Key != "a" {
		t.Errorf("event = %+v", ev)
	}

	// A reply without usable coordinates degrades to an empty key, which
	// the session reports as invalid input.
	ev = cursorFromResponse(map[string]any{"x": "oops", "y": 1.0, "key": "a"})
	if ev.Key != "" {
		t.Errorf("malformed reply produced key %q, want empty", ev.Key)
	}
}
