package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncWriter makes a bytes.Buffer safe for the printer goroutine.
type syncWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestProgress_PrintsSessionCounts(t *testing.T) {
	out := &syncWriter{}
	p := New(4, false)
	p.SetOutput(out)

	p.Start()
	p.SessionDone()
	p.SessionDone()
	time.Sleep(1200 * time.Millisecond)
	p.Stop()

	if !strings.Contains(out.String(), "Sessions: 2/4") {
		t.Errorf("expected a status line with completed counts, got %q", out.String())
	}
}

func TestProgress_QuietSuppressesOutput(t *testing.T) {
	out := &syncWriter{}
	p := New(1, true)
	p.SetOutput(out)

	p.Start()
	p.SessionDone()
	time.Sleep(50 * time.Millisecond)
	p.Stop()

	if out.String() != "" {
		t.Errorf("expected no output in quiet mode, got %q", out.String())
	}
}

func TestProgress_StopIsIdempotent(t *testing.T) {
	p := New(1, false)
	p.SetOutput(&syncWriter{})
	p.Start()
	p.Stop()
	p.Stop() // must not panic or double-close
}

func TestProgress_Printf(t *testing.T) {
	out := &syncWriter{}
	p := New(1, false)
	p.SetOutput(out)

	p.Printf("starting %d workers", 3)
	if !strings.Contains(out.String(), "starting 3 workers") {
		t.Errorf("expected the message printed, got %q", out.String())
	}
}
