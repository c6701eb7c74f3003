package session

import (
	"errors"
	"fmt"

	"github.com/cdeil/imexam/internal/pixels"
	"github.com/cdeil/imexam/internal/viewer"
)

// ErrNoImageLoaded means the viewer reports no image in the displayed
// frame. A session cannot start, and a refresh will not cache an
// empty buffer, in that condition.
var ErrNoImageLoaded = errors.New("no image loaded in viewer")

// State is the session's view of the displayed frame: its identity
// token, the filename behind it, and the cached pixel data. It is
// replaced wholesale when the user switches frames.
type State struct {
	Frame    string
	Filename string
	Data     *pixels.Buffer
}

// FrameTracker decides each loop iteration whether the displayed
// frame changed and the pixel data must be re-fetched.
type FrameTracker struct {
	viewer viewer.Adapter
}

func NewFrameTracker(v viewer.Adapter) *FrameTracker {
	return &FrameTracker{viewer: v}
}

func (t *FrameTracker) CurrentID() (string, error) {
	return t.viewer.FrameID()
}

// RefreshIfChanged compares the viewer's frame identity against the
// cached state. Same identity means same displayed content: nothing
// is fetched. On a change it pulls the new filename and pixel data
// and replaces the state, reporting true. A frame without an image
// surfaces ErrNoImageLoaded and leaves the state untouched.
func (t *FrameTracker) RefreshIfChanged(st *State) (bool, error) {
	id, err := t.viewer.FrameID()
	if err != nil {
		return false, fmt.Errorf("read frame identity: %w", err)
	}
	if id == st.Frame {
		return false, nil
	}

	filename, err := t.viewer.Filename()
	if err != nil {
		return false, fmt.Errorf("read filename: %w", err)
	}
	if filename == "" {
		return false, fmt.Errorf("frame %s: %w", id, ErrNoImageLoaded)
	}

	data, err := t.viewer.PixelData()
	if err != nil {
		return false, fmt.Errorf("fetch pixel data: %w", err)
	}

	st.Frame = id
	st.Filename = filename
	st.Data = data
	return true, nil
}
