package viewer

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cdeil/imexam/internal/pixels"
	"github.com/cdeil/imexam/internal/types"
)

//go:embed web/*
var webFS embed.FS

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10
)

// webViewer serves a browser-based viewer over HTTP and receives its
// frame and cursor messages over a websocket. The browser pushes the
// displayed image; the session blocks on the cursor event channel.
type webViewer struct {
	ctx      context.Context
	upgrader websocket.Upgrader
	recorder Recorder

	mu   sync.Mutex
	info types.FrameInfo
	buf  *pixels.Buffer

	events chan types.CursorEvent
}

func newWeb(ctx context.Context, port int, recorder Recorder) (*webViewer, error) {
	v := &webViewer{
		ctx: ctx,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		recorder: recorder,
		events:   make(chan types.CursorEvent, 16),
	}

	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(sub)))
	mux.HandleFunc("/ws", v.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			// Nothing to report to: the session will see no frames and
			// fail its no-image check.
			_ = err
		}
	}()
	return v, nil
}

func (v *webViewer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := v.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(64 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writeMu := &sync.Mutex{}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(pingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-v.ctx.Done():
				return
			case <-ticker.C:
				writeMu.Lock()
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				err := conn.WriteMessage(websocket.PingMessage, nil)
				writeMu.Unlock()
				if err != nil {
					_ = conn.Close()
					return
				}
			}
		}
	}()

	go func() {
		defer close(done)
		defer conn.Close()
		for {
			messageType, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}
			if v.recorder != nil {
				_ = v.recorder.Record(payload)
			}
			v.handleMessage(payload)
		}
	}()
}

func (v *webViewer) handleMessage(payload []byte) {
	var msg types.WebMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return
	}
	switch msg.Type {
	case "frame":
		buf, err := pixels.FromSlice(msg.Width, msg.Height, msg.Pixels)
		if err != nil {
			return
		}
		v.mu.Lock()
		v.info = types.FrameInfo{
			Frame:    msg.Frame,
			Filename: msg.Filename,
			Width:    msg.Width,
			Height:   msg.Height,
		}
		v.buf = buf
		v.mu.Unlock()
	case "cursor":
		select {
		case v.events <- types.CursorEvent{X: msg.X, Y: msg.Y, Key: msg.Key}:
		default:
			// Drop events the session has not consumed yet rather than
			// stalling the websocket read pump.
		}
	}
}

func (v *webViewer) FrameID() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.info.Frame, nil
}

func (v *webViewer) Filename() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.info.Filename, nil
}

func (v *webViewer) PixelData() (*pixels.Buffer, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.buf == nil {
		return nil, errors.New("web viewer has not sent a frame yet")
	}
	return v.buf, nil
}

func (v *webViewer) ReadCursor() (types.CursorEvent, error) {
	select {
	case <-v.ctx.Done():
		return types.CursorEvent{}, fmt.Errorf("%w: %v", ErrReadFailure, v.ctx.Err())
	case ev := <-v.events:
		return ev, nil
	}
}
