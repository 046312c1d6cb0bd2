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

// hourlyLog appends JSON lines to zstd files named <prefix>-YYYY-MM-DD-HH
// after the hour each entry was stamped with, so a replay reads files in
// build order. Reopening an earlier hour appends a new zstd frame.
type hourlyLog struct {
	dir    string
	prefix string
	now    func() time.Time

	mu    sync.Mutex
	hour  string
	file  *os.File
	zw    *zstd.Encoder
	buf   *bufio.Writer
	lines int
}

func newHourlyLog(dir, prefix string) *hourlyLog {
	return &hourlyLog{dir: dir, prefix: prefix, now: time.Now}
}

// stamp returns at, or the current time when at is zero.
func (l *hourlyLog) stamp(at time.Time) time.Time {
	if at.IsZero() {
		return l.now().UTC()
	}
	return at.UTC()
}

// append writes v as one line into the file for at's hour.
func (l *hourlyLog) append(at time.Time, v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s entry: %w", l.prefix, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if hour := at.UTC().Format("2006-01-02-15"); hour != l.hour {
		if err := l.open(hour); err != nil {
			return err
		}
	}
	line = append(line, '\n')
	if _, err := l.buf.Write(line); err != nil {
		return err
	}
	l.lines++
	return l.buf.Flush()
}

func (l *hourlyLog) open(hour string) error {
	if err := l.closeFile(); err != nil {
		return err
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(l.dir, fmt.Sprintf("%s-%s.jsonl.zst", l.prefix, hour))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	l.file, l.zw, l.hour = f, zw, hour
	l.buf = bufio.NewWriterSize(zw, 64*1024)
	return nil
}

func (l *hourlyLog) closeFile() error {
	if l.file == nil {
		return nil
	}
	var err error
	if ferr := l.buf.Flush(); ferr != nil {
		err = ferr
	}
	if zerr := l.zw.Close(); zerr != nil && err == nil {
		err = zerr
	}
	if cerr := l.file.Close(); cerr != nil && err == nil {
		err = cerr
	}
	l.file, l.zw, l.buf, l.hour = nil, nil, nil, ""
	return err
}

// Lines is how many entries were written since the log was opened.
func (l *hourlyLog) Lines() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lines
}

func (l *hourlyLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeFile()
}

// BuildEntry is one built structure.
type BuildEntry struct {
	Time       time.Time      `json:"time"`
	ID         string         `json:"id"`
	Family     string         `json:"family"`
	Seed       int64          `json:"seed"`
	Anchor     [3]int         `json:"anchor"`
	Facing     string         `json:"facing"`
	Pieces     int            `json:"pieces"`
	Bounds     [6]int         `json:"bounds"`
	Digest     string         `json:"digest"`
	Stats      map[string]int `json:"stats,omitempty"`
	DurationMS float64        `json:"duration_ms"`
	Source     string         `json:"source,omitempty"`
}

// BuildLogger writes one line per build under <dataDir>/builds.
type BuildLogger struct{ log *hourlyLog }

func NewBuildLogger(dataDir string) *BuildLogger {
	return &BuildLogger{log: newHourlyLog(filepath.Join(dataDir, "builds"), "builds")}
}

// WriteBuild stamps e with the current time when it has none.
func (l *BuildLogger) WriteBuild(e BuildEntry) error {
	e.Time = l.log.stamp(e.Time)
	return l.log.append(e.Time, e)
}

func (l *BuildLogger) Close() error { return l.log.Close() }

// AuditEntry records something an operator should look at: a piece dropped
// on import, or a replayed structure whose digest moved.
type AuditEntry struct {
	Time        time.Time `json:"time"`
	Action      string    `json:"action"`
	StructureID string    `json:"structure_id"`
	Family      string    `json:"family,omitempty"`
	Detail      string    `json:"detail"`
}

const (
	AuditPieceDropped   = "PIECE_DROPPED"
	AuditDigestMismatch = "DIGEST_MISMATCH"
)

// AuditLogger writes audit entries under <dataDir>/audit.
type AuditLogger struct{ log *hourlyLog }

func NewAuditLogger(dataDir string) *AuditLogger {
	return &AuditLogger{log: newHourlyLog(filepath.Join(dataDir, "audit"), "audit")}
}

func (l *AuditLogger) WriteAudit(e AuditEntry) error {
	e.Time = l.log.stamp(e.Time)
	return l.log.append(e.Time, e)
}

func (l *AuditLogger) Written() int { return l.log.Lines() }
func (l *AuditLogger) Close() error { return l.log.Close() }
