package viewer

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pebbe/zmq4"

	"github.com/cdeil/imexam/internal/pixels"
	"github.com/cdeil/imexam/internal/types"
)

// ds9Viewer talks to a bridge sidecar process that speaks XPA to a
// running DS9 window. The bridge exposes a CBOR request/reply socket:
//
//	{"op": "frame"}    -> {"frame": "<id>"}
//	{"op": "filename"} -> {"filename": "<path or empty>"}
//	{"op": "data"}     -> {"pixels": <typed array>} or width/height/pixels
//	{"op": "cursor"}   -> {"x": <f>, "y": <f>, "key": "<char>"} (blocks)
type ds9Viewer struct {
	ctx      context.Context
	requests chan ds9Request
	stop     chan struct{}
}

type ds9Request struct {
	op    map[string]any
	reply chan ds9Result
}

type ds9Result struct {
	msg []byte
	err error
}

// recvPollInterval bounds how long the socket loop stays blind to
// context cancellation while waiting for a reply.
const recvPollInterval = 500 * time.Millisecond

func newDS9(ctx context.Context, endpoint string, wait time.Duration, recorder Recorder) (*ds9Viewer, error) {
	socket, err := zmq4.NewSocket(zmq4.REQ)
	if err != nil {
		return nil, err
	}
	if err := socket.SetRcvtimeo(recvPollInterval); err != nil {
		_ = socket.Close()
		return nil, err
	}
	if err := socket.Connect(endpoint); err != nil {
		_ = socket.Close()
		return nil, err
	}

	v := &ds9Viewer{
		ctx:      ctx,
		requests: make(chan ds9Request),
		stop:     make(chan struct{}),
	}
	go v.loop(ctx, socket, recorder)

	if wait > 0 {
		pingCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		if _, err := v.request(pingCtx, map[string]any{"op": "frame"}); err != nil {
			// Release the socket goroutine; it would otherwise idle
			// until process shutdown.
			close(v.stop)
			return nil, fmt.Errorf("ds9 bridge not responding at %s: %w", endpoint, err)
		}
	}
	return v, nil
}

// loop owns the socket; zmq sockets are not safe for concurrent use.
func (v *ds9Viewer) loop(ctx context.Context, socket *zmq4.Socket, recorder Recorder) {
	defer socket.Close()

	for {
		var req ds9Request
		select {
		case <-ctx.Done():
			return
		case <-v.stop:
			return
		case req = <-v.requests:
		}

		payload, err := cbor.Marshal(req.op)
		if err != nil {
			req.reply <- ds9Result{err: err}
			continue
		}
		if _, err := socket.SendBytes(payload, 0); err != nil {
			req.reply <- ds9Result{err: err}
			continue
		}

		msg, err := v.recv(ctx, socket)
		if err == nil && recorder != nil {
			if rerr := recorder.Record(msg); rerr != nil {
				err = fmt.Errorf("record message: %w", rerr)
			}
		}
		req.reply <- ds9Result{msg: msg, err: err}
	}
}

func (v *ds9Viewer) recv(ctx context.Context, socket *zmq4.Socket) ([]byte, error) {
	for {
		msg, err := socket.RecvBytes(0)
		if err == nil {
			return msg, nil
		}
		if zmq4.AsErrno(err) != zmq4.Errno(syscall.EAGAIN) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-v.stop:
			return nil, errors.New("viewer connection stopped")
		default:
		}
	}
}

func (v *ds9Viewer) request(ctx context.Context, op map[string]any) (map[string]any, error) {
	reply := make(chan ds9Result, 1)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case v.requests <- ds9Request{op: op, reply: reply}:
	}

	var res ds9Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-reply:
	}
	if res.err != nil {
		return nil, res.err
	}
	return decodeResponse(res.msg)
}

func (v *ds9Viewer) FrameID() (string, error) {
	resp, err := v.request(v.ctx, map[string]any{"op": "frame"})
	if err != nil {
		return "", err
	}
	return toString(resp["frame"]), nil
}

func (v *ds9Viewer) Filename() (string, error) {
	resp, err := v.request(v.ctx, map[string]any{"op": "filename"})
	if err != nil {
		return "", err
	}
	return toString(resp["filename"]), nil
}

func (v *ds9Viewer) PixelData() (*pixels.Buffer, error) {
	resp, err := v.request(v.ctx, map[string]any{"op": "data"})
	if err != nil {
		return nil, err
	}
	return decodePixelPayload(resp)
}

// ReadCursor blocks until the user presses a key in the DS9 window.
// A transport failure is wrapped in ErrReadFailure; a reply without a
// usable key yields an event with an empty key, which the session
// reports as invalid input and survives.
func (v *ds9Viewer) ReadCursor() (types.CursorEvent, error) {
	resp, err := v.request(v.ctx, map[string]any{"op": "cursor"})
	if err != nil {
		return types.CursorEvent{}, fmt.Errorf("%w: %v", ErrReadFailure, err)
	}
	return cursorFromResponse(resp), nil
}

func cursorFromResponse(resp map[string]any) types.CursorEvent {
	x, errX := toFloat(resp["x"])
	y, errY := toFloat(resp["y"])
	if errX != nil || errY != nil {
		return types.CursorEvent{}
	}
	return types.CursorEvent{X: x, Y: y, Key: toString(resp["key"])}
}
