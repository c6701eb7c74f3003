package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ReportWriter appends textual analysis reports (statistics, aperture
// photometry results) to a per-session file.
type ReportWriter struct {
	mu sync.Mutex
	f  *os.File
}

func NewReportWriter(dir string) (*ReportWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(dir, fmt.Sprintf("%s_imexam_report.txt", timestamp))
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(f, "# imexam session report %s\n", timestamp); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &ReportWriter{f: f}, nil
}

func (r *ReportWriter) Printf(format string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return fmt.Errorf("report writer is closed")
	}
	_, err := fmt.Fprintf(r.f, format, args...)
	return err
}

func (r *ReportWriter) Name() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return ""
	}
	return r.f.Name()
}

func (r *ReportWriter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
