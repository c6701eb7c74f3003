package viewer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cdeil/imexam/internal/config"
	"github.com/cdeil/imexam/internal/pixels"
	"github.com/cdeil/imexam/internal/types"
)

// Supported viewer backends.
const (
	DS9 = "ds9"
	Web = "web"
	Sim = "sim"
)

var possibleViewers = []string{DS9, Web, Sim}

// ErrReadFailure marks a failed blocking cursor read: the viewer
// disconnected or delivered an undecodable event. The session treats
// it as a forced quit.
var ErrReadFailure = errors.New("viewer: cursor read failed")

// Adapter is the narrow contract the examination session needs from a
// display tool. ReadCursor blocks until the user presses a key inside
// the viewer, or fails with ErrReadFailure when the connection is
// lost. The other three calls describe the currently displayed frame.
type Adapter interface {
	FrameID() (string, error)
	Filename() (string, error)
	PixelData() (*pixels.Buffer, error)
	ReadCursor() (types.CursorEvent, error)
}

// Recorder receives the raw wire payload of every viewer message, for
// offline inspection with imexam-dump.
type Recorder interface {
	Record(payload []byte) error
}

// New opens a connection to the named viewer backend. The connection
// shuts down when ctx is cancelled.
func New(ctx context.Context, cfg config.AppConfig, recorder Recorder) (Adapter, error) {
	switch cfg.Viewer {
	case DS9:
		return newDS9(ctx, cfg.Endpoint, cfg.ConnectWait, recorder)
	case Web:
		return newWeb(ctx, cfg.Port, recorder)
	case Sim:
		return newSim(cfg)
	default:
		return nil, fmt.Errorf("unsupported viewer %q (supported: %s)",
			cfg.Viewer, strings.Join(possibleViewers, ", "))
	}
}
