// Package session runs the interactive examination loop: it keeps
// track of which frame the viewer displays, blocks for cursor events,
// and dispatches bound analysis routines for each key press.
package session

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/cdeil/imexam/internal/registry"
	"github.com/cdeil/imexam/internal/viewer"
)

// Session drives one interactive examination against a viewer. It is
// single-threaded: the blocking cursor read is the only suspension
// point, and handlers run to completion before the next read.
type Session struct {
	viewer  viewer.Adapter
	reg     *registry.Registry
	tracker *FrameTracker
	out     io.Writer
	logger  *log.Logger
}

type Option func(*Session)

// WithOutput redirects the console surface (key menu, invalid-key
// messages).
func WithOutput(w io.Writer) Option {
	return func(s *Session) { s.out = w }
}

// WithLogger redirects the informational records (current filename on
// frame change, termination cause).
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func New(v viewer.Adapter, reg *registry.Registry, opts ...Option) *Session {
	s := &Session{
		viewer:  v,
		reg:     reg,
		tracker: NewFrameTracker(v),
		out:     os.Stdout,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run validates that an image is loaded, prints the key menu and
// enters the loop. It returns nil after a clean quit (the reserved
// key, or a lost viewer connection, which is treated as a forced
// quit) and ErrNoImageLoaded when the viewer has nothing to examine.
func (s *Session) Run() error {
	filename, err := s.viewer.Filename()
	if err != nil {
		return fmt.Errorf("query filename: %w", err)
	}
	if filename == "" {
		return ErrNoImageLoaded
	}

	frame, err := s.viewer.FrameID()
	if err != nil {
		return fmt.Errorf("query frame: %w", err)
	}
	data, err := s.viewer.PixelData()
	if err != nil {
		return fmt.Errorf("fetch pixel data: %w", err)
	}
	st := State{Frame: frame, Filename: filename, Data: data}

	s.printMenu()
	s.logger.Printf("current image %s", st.Filename)

	for {
		changed, err := s.tracker.RefreshIfChanged(&st)
		switch {
		case errors.Is(err, ErrNoImageLoaded):
			// The user switched to an empty frame. Keep the previous
			// buffer rather than caching nothing; examining resumes
			// when a loaded frame is displayed.
			s.logger.Printf("displayed frame has no image, keeping %s", st.Filename)
		case err != nil:
			s.logger.Printf("lost viewer while checking frame: %v", err)
			return nil
		case changed:
			s.logger.Printf("current image %s", st.Filename)
		}

		event, err := s.viewer.ReadCursor()
		if err != nil {
			// No way to recover viewer connectivity from here, so any
			// read failure is a forced quit.
			s.logger.Printf("cursor read failed, quitting: %v", err)
			return nil
		}

		if event.Key == registry.QuitKey {
			return nil
		}
		binding, ok := s.reg.Resolve(event.Key)
		if !ok {
			fmt.Fprintln(s.out, "Invalid key")
			continue
		}
		if err := binding.Handler(st.Data, event.X, event.Y, binding.Params); err != nil {
			s.logger.Printf("%s (%s): %v", binding.Description, event.Key, err)
		}
	}
}

func (s *Session) printMenu() {
	fmt.Fprintf(s.out, "\nPress '%s' to quit\n\n", registry.QuitKey)
	for _, key := range s.reg.Keys() {
		if b, ok := s.reg.Resolve(key); ok {
			fmt.Fprintf(s.out, "%s: %s\n", key, b.Description)
		}
	}
}
