// Package log writes the engine audit trail: one compressed JSONL entry per
// derive or aggregate call. Rotation is hourly.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// AuditEntry records one engine invocation. Fields are sparse by kind:
// derive entries fill asset/cost/passes, aggregate entries fill units/points.
type AuditEntry struct {
	At   string `json:"at"`
	Kind string `json:"kind"` // "derive" or "aggregate"

	ReqID     string `json:"req_id,omitempty"`
	Asset     string `json:"asset,omitempty"`
	TotalCost int    `json:"total_cost,omitempty"`
	Patched   bool   `json:"patched,omitempty"`

	RosterID  string `json:"roster_id,omitempty"`
	Units     int    `json:"units,omitempty"`
	Points    int    `json:"points,omitempty"`
	UnitCount int    `json:"unit_count,omitempty"`

	Code string `json:"code,omitempty"`
}

type jsonlZstdWriter struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func newJSONLZstdWriter(baseDir, prefix string) *jsonlZstdWriter {
	return &jsonlZstdWriter{baseDir: baseDir, prefix: prefix}
}

func (w *jsonlZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *jsonlZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *jsonlZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *jsonlZstdWriter) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err
}

// AuditLogger writes audit JSONL entries (compressed).
type AuditLogger struct{ w *jsonlZstdWriter }

func NewAuditLogger(dataDir string) *AuditLogger {
	return &AuditLogger{w: newJSONLZstdWriter(filepath.Join(dataDir, "audit"), "audit")}
}

func (l *AuditLogger) Write(e AuditEntry) error {
	if e.At == "" {
		e.At = time.Now().UTC().Format(time.RFC3339)
	}
	return l.w.Write(e)
}

func (l *AuditLogger) Close() error { return l.w.Close() }
