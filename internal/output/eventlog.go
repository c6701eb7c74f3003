package output

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const eventLogMagic = "IMEXRAW1"

// EventLogWriter records the raw wire payload of every viewer message
// to a timestamped binary log. Each record is an 8-byte unix-nano
// timestamp and a 4-byte payload length, little endian, followed by
// the payload. imexam-dump reads these logs back.
type EventLogWriter struct {
	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

func NewEventLogWriter(dir string) (*EventLogWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(dir, fmt.Sprintf("%s_events.bin", timestamp))
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriterSize(f, 1<<20)
	if _, err := w.WriteString(eventLogMagic); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &EventLogWriter{f: f, w: w}, nil
}

func (e *EventLogWriter) Record(payload []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.w == nil {
		return fmt.Errorf("event log writer is closed")
	}
	var header [12]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(time.Now().UnixNano()))
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(payload)))
	if _, err := e.w.Write(header[:]); err != nil {
		return err
	}
	if _, err := e.w.Write(payload); err != nil {
		return err
	}
	return e.w.Flush()
}

func (e *EventLogWriter) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.f == nil {
		return ""
	}
	return e.f.Name()
}

func (e *EventLogWriter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.w == nil {
		return nil
	}
	if err := e.w.Flush(); err != nil {
		_ = e.f.Close()
		e.w = nil
		return err
	}
	err := e.f.Close()
	e.w = nil
	return err
}

// EventLogRecord is one replayed record from an event log.
type EventLogRecord struct {
	Time    time.Time
	Payload []byte
}

// ReadEventLog parses a log written by EventLogWriter.
func ReadEventLog(r io.Reader) ([]EventLogRecord, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, len(eventLogMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(magic) != eventLogMagic {
		return nil, fmt.Errorf("not an imexam event log (magic %q)", magic)
	}

	var records []EventLogRecord
	var header [12]byte
	for {
		if _, err := io.ReadFull(br, header[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return records, fmt.Errorf("read record header: %w", err)
		}
		nanos := binary.LittleEndian.Uint64(header[:8])
		size := binary.LittleEndian.Uint32(header[8:12])
		payload := make([]byte, size)
		if _, err := io.ReadFull(br, payload); err != nil {
			return records, fmt.Errorf("read record payload: %w", err)
		}
		records = append(records, EventLogRecord{
			Time:    time.Unix(0, int64(nanos)),
			Payload: payload,
		})
	}
}
