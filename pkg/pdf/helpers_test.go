package pdf

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/novvoo/go-pdfwriter/pkg/observability"
)

var testClock = func() time.Time {
	return time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
}

// writeTestFonts copies the Go fonts into a fresh directory.
func writeTestFonts(t *testing.T) (dir, regular, mono string) {
	t.Helper()
	dir = t.TempDir()
	regular = filepath.Join(dir, "goregular.ttf")
	mono = filepath.Join(dir, "gomono.ttf")
	if err := os.WriteFile(regular, goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(mono, gomono.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	return dir, regular, mono
}

// countingEngine wraps a MetricsEngine and records calls.
type countingEngine struct {
	inner   MetricsEngine
	openErr error
	loads   map[string]int
	opened  int
	closed  int
	mangle  func(*FontMetrics)
}

func newCountingEngine() *countingEngine {
	return &countingEngine{inner: NewFreetypeEngine(), loads: make(map[string]int)}
}

func (e *countingEngine) Open() error {
	e.opened++
	if e.openErr != nil {
		return e.openErr
	}
	return e.inner.Open()
}

func (e *countingEngine) Load(path string) (*FontMetrics, error) {
	e.loads[path]++
	m, err := e.inner.Load(path)
	if err == nil && e.mangle != nil {
		e.mangle(m)
	}
	return m, err
}

func (e *countingEngine) Close() error {
	e.closed++
	return e.inner.Close()
}

// closeRecorder is a FontLocator that records Close calls.
type closeRecorder struct {
	MapFontLocator
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

// memLogger keeps log records in memory.
type memLogger struct {
	mu      sync.Mutex
	records []string
}

func (l *memLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, level+" "+msg)
}

func (l *memLogger) Debug(msg string, _ ...observability.Field) { l.add("DEBUG", msg) }
func (l *memLogger) Info(msg string, _ ...observability.Field)  { l.add("INFO", msg) }
func (l *memLogger) Warn(msg string, _ ...observability.Field)  { l.add("WARN", msg) }
func (l *memLogger) Error(msg string, _ ...observability.Field) { l.add("ERROR", msg) }
func (l *memLogger) With(...observability.Field) observability.Logger {
	return l
}

func (l *memLogger) count(level string) int {
	n := 0
	for _, r := range l.records {
		if len(r) > len(level) && r[:len(level)+1] == level+" " {
			n++
		}
	}
	return n
}

var errBoom = errors.New("boom")
