package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/cdeil/imexam/internal/pixels"
	"github.com/cdeil/imexam/internal/registry"
	"github.com/cdeil/imexam/internal/types"
	"github.com/cdeil/imexam/internal/viewer"
)

// fakeViewer scripts cursor events and counts adapter calls.
type fakeViewer struct {
	frame    string
	filename string
	buf      *pixels.Buffer

	events    []types.CursorEvent
	readErr   error
	afterRead func()

	frameCalls  int
	fileCalls   int
	pixelCalls  int
	cursorCalls int
}

func newFakeViewer(filename string) *fakeViewer {
	return &fakeViewer{
		frame:    "1",
		filename: filename,
		buf:      pixels.New(8, 8),
	}
}

func (f *fakeViewer) FrameID() (string, error) {
	f.frameCalls++
	return f.frame, nil
}

func (f *fakeViewer) Filename() (string, error) {
	f.fileCalls++
	return f.filename, nil
}

func (f *fakeViewer) PixelData() (*pixels.Buffer, error) {
	f.pixelCalls++
	return f.buf, nil
}

func (f *fakeViewer) ReadCursor() (types.CursorEvent, error) {
	f.cursorCalls++
	if len(f.events) == 0 {
		if f.readErr != nil {
			return types.CursorEvent{}, f.readErr
		}
		return types.CursorEvent{Key: registry.QuitKey}, nil
	}
	ev := f.events[0]
	f.events = f.events[1:]
	if f.afterRead != nil {
		f.afterRead()
		f.afterRead = nil
	}
	return ev, nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func mustRegister(t *testing.T, reg *registry.Registry, bindings map[string]registry.Binding) {
	t.Helper()
	if err := reg.Register(bindings); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
}

func TestRunDispatchesAndQuits(t *testing.T) {
	fv := newFakeViewer("ngc1333.fits")
	fv.events = []types.CursorEvent{
		{X: 10, Y: 20, Key: "p"},
		{X: 1, Y: 2, Key: "x"},
		{Key: registry.QuitKey},
	}

	var calls []string
	reg := registry.New()
	mustRegister(t, reg, map[string]registry.Binding{
		"p": {
			Description: "photometry",
			Handler: func(buf *pixels.Buffer, x, y float64, p registry.Params) error {
				if buf != fv.buf {
					t.Errorf("handler got a different buffer than the viewer served")
				}
				calls = append(calls, fmt.Sprintf("p %.0f %.0f", x, y))
				return nil
			},
		},
	})

	var out bytes.Buffer
	s := New(fv, reg, WithOutput(&out), WithLogger(quietLogger()))
	if err := s.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(calls) != 1 || calls[0] != "p 10 20" {
		t.Errorf("handler calls = %v, want one call at 10,20", calls)
	}
	if got := strings.Count(out.String(), "Invalid key"); got != 1 {
		t.Errorf("Invalid key printed %d times, want 1", got)
	}
	if fv.cursorCalls != 3 {
		t.Errorf("cursorCalls = %d, want 3", fv.cursorCalls)
	}
}

func TestRunPrintsMenuInOrder(t *testing.T) {
	fv := newFakeViewer("a.fits")
	noop := func(buf *pixels.Buffer, x, y float64, p registry.Params) error { return nil }
	reg := registry.New()
	mustRegister(t, reg, map[string]registry.Binding{
		"m": {Description: "statistics", Handler: noop},
		"a": {Description: "photometry", Handler: noop},
	})

	var out bytes.Buffer
	s := New(fv, reg, WithOutput(&out), WithLogger(quietLogger()))
	if err := s.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "Press 'q' to quit") {
		t.Errorf("menu missing quit line:\n%s", text)
	}
	ia := strings.Index(text, "a: photometry")
	im := strings.Index(text, "m: statistics")
	if ia < 0 || im < 0 || ia > im {
		t.Errorf("menu order wrong:\n%s", text)
	}
}

func TestRunFailsFastWithoutImage(t *testing.T) {
	fv := newFakeViewer("")
	reg := registry.New()

	s := New(fv, reg, WithOutput(io.Discard), WithLogger(quietLogger()))
	err := s.Run()
	if !errors.Is(err, ErrNoImageLoaded) {
		t.Fatalf("err = %v, want ErrNoImageLoaded", err)
	}
	if fv.cursorCalls != 0 {
		t.Errorf("cursorCalls = %d, no cursor read may happen without an image", fv.cursorCalls)
	}
}

func TestRunQuitsCleanlyOnReadFailure(t *testing.T) {
	fv := newFakeViewer("a.fits")
	fv.readErr = fmt.Errorf("%w: socket closed", viewer.ErrReadFailure)

	s := New(fv, registry.New(), WithOutput(io.Discard), WithLogger(quietLogger()))
	if err := s.Run(); err != nil {
		t.Fatalf("read failure must end the session cleanly, got %v", err)
	}
	if fv.cursorCalls != 1 {
		t.Errorf("cursorCalls = %d, want 1", fv.cursorCalls)
	}
}

func TestRunRefreshesOnFrameChange(t *testing.T) {
	fv := newFakeViewer("one.fits")
	first := fv.buf
	second := pixels.New(4, 4)
	// After the first cursor read, the user switches to frame 2.
	fv.afterRead = func() {
		fv.frame = "2"
		fv.filename = "two.fits"
		fv.buf = second
	}

	var seen []*pixels.Buffer
	reg := registry.New()
	mustRegister(t, reg, map[string]registry.Binding{
		"m": {Handler: func(buf *pixels.Buffer, x, y float64, p registry.Params) error {
			seen = append(seen, buf)
			return nil
		}},
	})

	fv.events = []types.CursorEvent{{Key: "m"}, {Key: "m"}}
	s := New(fv, reg, WithOutput(io.Discard), WithLogger(quietLogger()))
	if err := s.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(seen) != 2 {
		t.Fatalf("handler ran %d times, want 2", len(seen))
	}
	if seen[0] != first {
		t.Errorf("first dispatch did not use the initial buffer")
	}
	if seen[1] != second {
		t.Errorf("dispatch after the frame switch did not use the new buffer")
	}
	if fv.pixelCalls != 2 {
		t.Errorf("pixelCalls = %d, want initial fetch plus one refresh", fv.pixelCalls)
	}
}
